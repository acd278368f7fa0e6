package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bellastore/internal/scan"
)

// StorageRecord is the canonical location of one content hash.
type StorageRecord struct {
	Hash     string
	FilePath string
	Filename string
	Name     string
}

// LookupStorage returns the storage row for hash, or nil when absent.
func (s *Store) LookupStorage(ctx context.Context, hash string) (*StorageRecord, error) {
	var rec StorageRecord
	err := s.db.QueryRowContext(ctx,
		"SELECT hash, filepath, filename, name FROM storage WHERE hash = ?", hash,
	).Scan(&rec.Hash, &rec.FilePath, &rec.Filename, &rec.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup storage %s: %w", hash, err)
	}
	return &rec, nil
}

// StorageRows lists every storage row ordered by hash.
func (s *Store) StorageRows(ctx context.Context) ([]StorageRecord, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT hash, filepath, filename, name FROM storage ORDER BY hash")
	if err != nil {
		return nil, fmt.Errorf("query storage: %w", err)
	}
	defer rows.Close()

	var out []StorageRecord
	for rows.Next() {
		var rec StorageRecord
		if err := rows.Scan(&rec.Hash, &rec.FilePath, &rec.Filename, &rec.Name); err != nil {
			return nil, fmt.Errorf("scan storage row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func storageHashes(ctx context.Context, q Querier) (map[string]struct{}, error) {
	rows, err := q.QueryContext(ctx, "SELECT hash FROM storage")
	if err != nil {
		return nil, fmt.Errorf("query storage hashes: %w", err)
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan storage hash: %w", err)
		}
		set[h] = struct{}{}
	}
	return set, rows.Err()
}

// Write records the canonical location of each scan. Every scan must be
// hashed and already moved into the content store; otherwise the call fails
// with ErrPrecondition before anything is written. Within the batch the
// first scan per hash wins, and hashes already cataloged are dropped. The
// scans that produced rows are advanced to Cataloged and returned.
func (s *Store) Write(ctx context.Context, scans []*scan.Scan) ([]*scan.Scan, error) {
	for _, sc := range scans {
		if err := requireHashed(sc); err != nil {
			return nil, err
		}
		if !sc.Has(scan.Stored) {
			return nil, fmt.Errorf("%w: %w: %s", ErrPrecondition, ErrNotStored, sc.Path)
		}
	}

	var inserted []*scan.Scan
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		inserted = inserted[:0]
		existing, err := storageHashes(ctx, tx)
		if err != nil {
			return err
		}
		for _, sc := range scans {
			if _, dup := existing[sc.ContentHash]; dup {
				continue
			}
			_, err := tx.ExecContext(ctx,
				"INSERT INTO storage (hash, filepath, filename, name) VALUES (?, ?, ?, ?)",
				sc.ContentHash, sc.Path, sc.Filename, sc.Name,
			)
			if err != nil {
				return fmt.Errorf("insert storage %s: %w", sc.ContentHash, err)
			}
			existing[sc.ContentHash] = struct{}{}
			inserted = append(inserted, sc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, sc := range inserted {
		if sc.Current() == scan.Stored {
			if err := sc.Advance(); err != nil {
				return inserted, err
			}
		}
	}
	return inserted, nil
}

// Counts summarizes catalog size.
type Counts struct {
	IngressRows    int
	IngressHashes  int
	StorageRecords int
}

// Counts returns row totals for status reporting.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(1) FROM ingress),
		(SELECT COUNT(DISTINCT hash) FROM ingress),
		(SELECT COUNT(1) FROM storage)`,
	).Scan(&c.IngressRows, &c.IngressHashes, &c.StorageRecords)
	if err != nil {
		return Counts{}, fmt.Errorf("count catalog rows: %w", err)
	}
	return c, nil
}
