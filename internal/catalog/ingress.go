package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"bellastore/internal/scan"
)

// IngressRecord is one provenance event.
type IngressRecord struct {
	Hash     string
	FilePath string
	Filename string
}

// IngressOf returns the provenance triple of a hashed scan at its current path.
func IngressOf(s *scan.Scan) IngressRecord {
	return IngressRecord{Hash: s.ContentHash, FilePath: s.Path, Filename: s.Filename}
}

func requireHashed(s *scan.Scan) error {
	if !s.Has(scan.Hashed) || s.ContentHash == "" {
		return fmt.Errorf("%w: %w: %s", ErrPrecondition, ErrNotHashed, s.Path)
	}
	return nil
}

// RecordIngress inserts the scan's provenance triple. An identical triple
// already present is not an error; inserted reports whether a row was added.
func (s *Store) RecordIngress(ctx context.Context, sc *scan.Scan) (inserted bool, err error) {
	if err := requireHashed(sc); err != nil {
		return false, err
	}
	err = s.WithTx(ctx, func(tx *sql.Tx) error {
		var txErr error
		inserted, txErr = insertIngress(ctx, tx, IngressOf(sc))
		return txErr
	})
	return inserted, err
}

func insertIngress(ctx context.Context, q Querier, rec IngressRecord) (bool, error) {
	_, err := q.ExecContext(ctx,
		"INSERT INTO ingress (hash, filepath, filename) VALUES (?, ?, ?)",
		rec.Hash, rec.FilePath, rec.Filename,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert ingress %s: %w", rec.FilePath, err)
	}
	return true, nil
}

// HasIngress reports whether the exact triple was recorded before.
func (s *Store) HasIngress(ctx context.Context, rec IngressRecord) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM ingress WHERE hash = ? AND filepath = ? AND filename = ?",
		rec.Hash, rec.FilePath, rec.Filename,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("lookup ingress: %w", err)
	}
	return n > 0, nil
}

// IngressRows lists every provenance row ordered by hash then path.
func (s *Store) IngressRows(ctx context.Context) ([]IngressRecord, error) {
	return listIngress(ctx, s.db, "SELECT hash, filepath, filename FROM ingress ORDER BY hash, filepath, filename")
}

// IngressByHash lists provenance rows for one content hash.
func (s *Store) IngressByHash(ctx context.Context, hash string) ([]IngressRecord, error) {
	return listIngress(ctx, s.db, "SELECT hash, filepath, filename FROM ingress WHERE hash = ? ORDER BY filepath, filename", hash)
}

func listIngress(ctx context.Context, q Querier, query string, args ...any) ([]IngressRecord, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ingress: %w", err)
	}
	defer rows.Close()

	var out []IngressRecord
	for rows.Next() {
		var rec IngressRecord
		if err := rows.Scan(&rec.Hash, &rec.FilePath, &rec.Filename); err != nil {
			return nil, fmt.Errorf("scan ingress row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func ingressTriples(ctx context.Context, q Querier) (map[IngressRecord]struct{}, error) {
	rows, err := listIngress(ctx, q, "SELECT hash, filepath, filename FROM ingress")
	if err != nil {
		return nil, err
	}
	set := make(map[IngressRecord]struct{}, len(rows))
	for _, rec := range rows {
		set[rec] = struct{}{}
	}
	return set, nil
}

// CandidateResult describes a WriteCandidates batch.
type CandidateResult struct {
	// Inserted holds the scans that produced a new ingress row, in input order.
	Inserted []*scan.Scan
	// Known holds hashed scans whose triple was already recorded.
	Known []*scan.Scan
	// Skipped maps paths that were invalid or unhashable to the reason.
	Skipped map[string]error
}

// WriteCandidates hashes the staging paths on a bounded pool, drops those
// whose provenance triple is already recorded, and inserts the rest in one
// transaction. Callers must not assume every candidate is inserted.
func (s *Store) WriteCandidates(ctx context.Context, paths []string, formats *scan.Formats, workers int) (CandidateResult, error) {
	scans := make([]*scan.Scan, 0, len(paths))
	for _, p := range paths {
		scans = append(scans, scan.New(p, formats))
	}

	skipped, err := scan.HashAll(ctx, scans, workers)
	if err != nil {
		return CandidateResult{}, err
	}
	result := CandidateResult{Skipped: skipped}

	var fresh []*scan.Scan
	err = s.WithTx(ctx, func(tx *sql.Tx) error {
		fresh = fresh[:0]
		result.Known = result.Known[:0]

		existing, err := ingressTriples(ctx, tx)
		if err != nil {
			return err
		}
		for _, sc := range scans {
			if _, failed := skipped[sc.Path]; failed || !sc.Has(scan.Hashed) {
				continue
			}
			rec := IngressOf(sc)
			if _, seen := existing[rec]; seen {
				result.Known = append(result.Known, sc)
				continue
			}
			inserted, err := insertIngress(ctx, tx, rec)
			if err != nil {
				return err
			}
			existing[rec] = struct{}{}
			if inserted {
				fresh = append(fresh, sc)
			} else {
				result.Known = append(result.Known, sc)
			}
		}
		return nil
	})
	if err != nil {
		return CandidateResult{}, err
	}
	result.Inserted = fresh
	return result, nil
}
