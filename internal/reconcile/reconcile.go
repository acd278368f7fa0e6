package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"bellastore/internal/catalog"
	"bellastore/internal/contentstore"
	"bellastore/internal/logging"
	"bellastore/internal/scan"
)

// Catalog is the read side of the storage table.
type Catalog interface {
	StorageRows(ctx context.Context) ([]catalog.StorageRecord, error)
}

// ContentStore is the directory tree being checked.
type ContentStore interface {
	Directories() ([]string, error)
	ScanFiles(name string) ([]string, error)
	Rename(from, to string) error
	DirFor(hash string) string
}

// Reconciler checks and discovers content.
type Reconciler struct {
	catalog Catalog
	store   ContentStore
	formats *scan.Formats
	workers int
	logger  *slog.Logger
}

// New returns a Reconciler. workers bounds the hashing pool; 0 means one per
// CPU.
func New(cat Catalog, store ContentStore, formats *scan.Formats, workers int, logger *slog.Logger) *Reconciler {
	if formats == nil {
		formats = scan.NewFormats(nil)
	}
	return &Reconciler{
		catalog: cat,
		store:   store,
		formats: formats,
		workers: workers,
		logger:  logging.NewComponentLogger(logger, "reconcile"),
	}
}

// Options selects what CheckIntegrity verifies.
type Options struct {
	// CheckCatalog cross-checks directories against the storage table.
	CheckCatalog bool
	// Repair renames directories whose name does not match their content.
	Repair bool
}

// inspection is the per-directory state of a check.
type inspection struct {
	dir  string
	scan *scan.Scan
}

// CheckIntegrity walks the store and verifies every directory. Violations
// are reported, not fixed, except stale directory names when opts.Repair is
// set. An error is returned only when the check itself could not run.
func (r *Reconciler) CheckIntegrity(ctx context.Context, opts Options) (Report, error) {
	report, _, err := r.inspect(ctx, opts)
	return report, err
}

func (r *Reconciler) inspect(ctx context.Context, opts Options) (Report, []inspection, error) {
	var report Report
	dirs, err := r.store.Directories()
	if err != nil {
		return report, nil, err
	}
	report.Directories = len(dirs)

	var (
		found []inspection
		scans []*scan.Scan
	)
	for _, dir := range dirs {
		files, err := r.store.ScanFiles(dir)
		if err != nil {
			return report, nil, err
		}
		if len(files) != 1 {
			report.Violations = append(report.Violations, Violation{
				Kind:   KindScanCount,
				Dir:    dir,
				Detail: fmt.Sprintf("expected exactly one scan file, found %d", len(files)),
			})
			continue
		}
		sc := scan.New(files[0], r.formats)
		found = append(found, inspection{dir: dir, scan: sc})
		scans = append(scans, sc)
	}

	failures, err := scan.HashAll(ctx, scans, r.workers)
	if err != nil {
		return report, nil, err
	}

	hashed := found[:0]
	for _, in := range found {
		if hashErr, failed := failures[in.scan.Path]; failed {
			report.Violations = append(report.Violations, Violation{
				Kind: KindUnhashable, Dir: in.dir, Detail: hashErr.Error(),
			})
			continue
		}
		if in.scan.ContentHash != in.dir {
			if !opts.Repair {
				report.Violations = append(report.Violations, Violation{
					Kind: KindHashMismatch, Dir: in.dir, Hash: in.scan.ContentHash,
					Detail: "directory name does not match content",
				})
				hashed = append(hashed, in)
				continue
			}
			if err := r.store.Rename(in.dir, in.scan.ContentHash); err != nil {
				if !errors.Is(err, contentstore.ErrConflict) {
					return report, nil, err
				}
				report.Violations = append(report.Violations, Violation{
					Kind: KindRenameConflict, Dir: in.dir, Hash: in.scan.ContentHash,
					Detail: "a directory named by the recomputed hash already exists",
				})
				hashed = append(hashed, in)
				continue
			}
			logging.WarnWithContext(r.logger, "renamed directory to match its content", "store_dir_renamed",
				logging.String("from", in.dir),
				logging.String("to", in.scan.ContentHash),
				logging.String(logging.FieldErrorHint, "run 'bellastore check --catalog' to find catalog drift"),
				logging.String(logging.FieldImpact, "catalog rows for the old name may now be stale"),
			)
			report.Renamed = append(report.Renamed, Rename{From: in.dir, To: in.scan.ContentHash})
			in.scan.Relocate(filepath.Join(r.store.DirFor(in.scan.ContentHash), in.scan.Filename))
			in.dir = in.scan.ContentHash
		}
		hashed = append(hashed, in)
	}

	if opts.CheckCatalog {
		if err := r.checkCatalog(ctx, &report, dirs, hashed); err != nil {
			return report, nil, err
		}
	}

	for _, v := range report.Violations {
		r.logger.Debug("integrity violation",
			logging.String("kind", string(v.Kind)),
			logging.String("dir", v.Dir),
			logging.String("detail", v.Detail),
			logging.String(logging.FieldEventType, "integrity_violation"),
		)
	}
	return report, hashed, nil
}

func (r *Reconciler) checkCatalog(ctx context.Context, report *Report, dirs []string, hashed []inspection) error {
	rows, err := r.catalog.StorageRows(ctx)
	if err != nil {
		return err
	}
	cataloged := make(map[string]catalog.StorageRecord, len(rows))
	for _, row := range rows {
		cataloged[row.Hash] = row
	}

	present := make(map[string]struct{}, len(dirs))
	for _, d := range dirs {
		present[d] = struct{}{}
	}
	for _, rn := range report.Renamed {
		delete(present, rn.From)
		present[rn.To] = struct{}{}
	}

	for _, in := range hashed {
		row, ok := cataloged[in.scan.ContentHash]
		if !ok {
			report.Violations = append(report.Violations, Violation{
				Kind: KindNotInCatalog, Dir: in.dir, Hash: in.scan.ContentHash,
				Detail: "present on disk, absent from catalog",
			})
			continue
		}
		if filepath.Clean(row.FilePath) != in.scan.Path {
			report.Violations = append(report.Violations, Violation{
				Kind: KindStalePath, Dir: in.dir, Hash: row.Hash,
				Detail: fmt.Sprintf("catalog points at %s", row.FilePath),
			})
		}
	}

	missing := make([]string, 0)
	for h := range cataloged {
		if _, ok := present[h]; !ok {
			missing = append(missing, h)
		}
	}
	slices.Sort(missing)
	for _, h := range missing {
		report.Violations = append(report.Violations, Violation{
			Kind: KindMissingContent, Hash: h,
			Detail: "cataloged content has no directory",
		})
	}
	return nil
}

// ExistingSlides returns the content present in the store but absent from
// the catalog, advanced to Stored and ready for the storage table. It fails
// when the store does not pass an integrity check, when the catalog
// references content that is gone, or when a new directory's content does
// not match its name. Nothing on disk or in the catalog is changed.
func (r *Reconciler) ExistingSlides(ctx context.Context) ([]*scan.Scan, error) {
	report, inspected, err := r.inspect(ctx, Options{})
	if err != nil {
		return nil, err
	}
	if !report.Passed() {
		return nil, &IntegrityError{Violations: report.Violations}
	}

	rows, err := r.catalog.StorageRows(ctx)
	if err != nil {
		return nil, err
	}
	cataloged := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		cataloged[row.Hash] = struct{}{}
	}
	onDisk := make(map[string]*scan.Scan, len(inspected))
	for _, in := range inspected {
		onDisk[in.dir] = in.scan
	}

	var missing []string
	for h := range cataloged {
		if _, ok := onDisk[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, fmt.Errorf("%w: %s", ErrMissingContent, strings.Join(missing, ", "))
	}

	var fresh []*scan.Scan
	for _, in := range inspected {
		if _, ok := cataloged[in.dir]; ok {
			continue
		}
		if err := in.scan.AdvanceTo(scan.Stored); err != nil {
			return nil, err
		}
		fresh = append(fresh, in.scan)
	}

	r.logger.Info("existing slides discovered",
		logging.Int("directories", report.Directories),
		logging.Int("uncataloged", len(fresh)),
		logging.String(logging.FieldEventType, "discover_finished"),
	)
	return fresh, nil
}
