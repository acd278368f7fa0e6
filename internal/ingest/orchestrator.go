package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"bellastore/internal/catalog"
	"bellastore/internal/contentstore"
	"bellastore/internal/logging"
	"bellastore/internal/scan"
	"bellastore/internal/staging"
)

// Catalog is the subset of the catalog the pipeline writes through.
type Catalog interface {
	HasIngress(ctx context.Context, rec catalog.IngressRecord) (bool, error)
	LookupStorage(ctx context.Context, hash string) (*catalog.StorageRecord, error)
	RecordIngress(ctx context.Context, s *scan.Scan) (bool, error)
	WriteCandidates(ctx context.Context, paths []string, formats *scan.Formats, workers int) (catalog.CandidateResult, error)
	Write(ctx context.Context, scans []*scan.Scan) ([]*scan.Scan, error)
}

// ContentStore places scans under their hash directory.
type ContentStore interface {
	Exists(hash string) (bool, error)
	Place(s *scan.Scan) error
}

// Options configures an Orchestrator.
type Options struct {
	Catalog Catalog
	Store   ContentStore
	Formats *scan.Formats
	// Workers bounds the hashing pool; 0 means one per CPU.
	Workers    int
	StagingDir string
	// Prune removes directories emptied by a staging run.
	Prune bool
	// Exclude lists subtrees of the staging directory that are neither
	// scanned nor pruned, such as the storage and backup directories.
	Exclude []string
	Logger  *slog.Logger
}

// Orchestrator runs the insert pipeline.
type Orchestrator struct {
	catalog    Catalog
	store      ContentStore
	formats    *scan.Formats
	workers    int
	stagingDir string
	prune      bool
	exclude    []string
	logger     *slog.Logger
}

// New builds an Orchestrator from opts.
func New(opts Options) *Orchestrator {
	formats := opts.Formats
	if formats == nil {
		formats = scan.NewFormats(nil)
	}
	return &Orchestrator{
		catalog:    opts.Catalog,
		store:      opts.Store,
		formats:    formats,
		workers:    opts.Workers,
		stagingDir: opts.StagingDir,
		prune:      opts.Prune,
		exclude:    opts.Exclude,
		logger:     logging.NewComponentLogger(opts.Logger, "ingest"),
	}
}

// provenance says what is known about a scan's ingress triple before the
// placement step runs.
type provenance int

const (
	provenanceUnknown provenance = iota
	// provenancePrior: the triple was recorded by an earlier run.
	provenancePrior
	// provenanceBatch: the triple was recorded by this run's candidate batch.
	provenanceBatch
)

// Insert runs the pipeline for one scan. Skipped scans return their skip
// reason with OutcomeSkipped; every other error comes with OutcomeFailed.
func (o *Orchestrator) Insert(ctx context.Context, sc *scan.Scan) (Outcome, error) {
	return o.insert(ctx, sc, provenanceUnknown)
}

func (o *Orchestrator) insert(ctx context.Context, sc *scan.Scan, prov provenance) (Outcome, error) {
	source := sc.Path
	if !sc.Has(scan.Hashed) {
		if err := sc.Hash(); err != nil {
			if scan.IsSkip(err) {
				o.logger.Debug("scan skipped",
					logging.String(logging.FieldScanPath, source),
					logging.String("reason", err.Error()),
					logging.String(logging.FieldEventType, "scan_skipped"),
				)
				return OutcomeSkipped, err
			}
			return OutcomeFailed, err
		}
	}

	ctx = logging.WithScan(ctx, source, sc.ContentHash)
	log := logging.WithContext(ctx, o.logger)

	known := prov == provenancePrior
	if prov == provenanceUnknown {
		var err error
		if known, err = o.catalog.HasIngress(ctx, catalog.IngressOf(sc)); err != nil {
			return OutcomeFailed, err
		}
	}
	stored, err := o.catalog.LookupStorage(ctx, sc.ContentHash)
	if err != nil {
		return OutcomeFailed, err
	}

	switch {
	case known && stored != nil:
		if err := removeStaging(sc); err != nil {
			return OutcomeFailed, err
		}
		log.Info("already ingested; staging copy removed",
			logging.String("stored_at", stored.FilePath),
			logging.String(logging.FieldEventType, "scan_already_ingested"),
		)
		return OutcomeAlreadyIngested, nil

	case stored != nil:
		if _, err := o.catalog.RecordIngress(ctx, sc); err != nil {
			return OutcomeFailed, err
		}
		if err := removeStaging(sc); err != nil {
			return OutcomeFailed, err
		}
		log.Info("duplicate content; provenance recorded and staging copy removed",
			logging.String("stored_at", stored.FilePath),
			logging.String(logging.FieldEventType, "scan_deduplicated"),
		)
		return OutcomeDeduplicated, nil
	}

	// A recorded triple without a storage row means an earlier run stopped
	// before placing the content; it is stored now like new content.
	if known {
		log.Debug("provenance recorded but content not cataloged; resuming placement",
			logging.String(logging.FieldEventType, "scan_resume"),
		)
	}
	if err := o.storeNew(ctx, log, sc); err != nil {
		return OutcomeFailed, err
	}
	return OutcomeStored, nil
}

func (o *Orchestrator) storeNew(ctx context.Context, log *slog.Logger, sc *scan.Scan) error {
	exists, err := o.store.Exists(sc.ContentHash)
	if err != nil {
		return fmt.Errorf("check store directory: %w", err)
	}
	if exists {
		logging.WarnWithContext(log, "content directory exists but is not cataloged; staging copy kept", "scan_conflict",
			logging.String(logging.FieldErrorHint, "run 'bellastore discover --write' to catalog existing content"),
			logging.String(logging.FieldImpact, "scan left in staging"),
		)
		return fmt.Errorf("%w: directory for %s exists without a catalog record", contentstore.ErrConflict, sc.ContentHash)
	}

	if _, err := o.catalog.RecordIngress(ctx, sc); err != nil {
		return err
	}
	if err := o.store.Place(sc); err != nil {
		return err
	}
	if _, err := o.catalog.Write(ctx, []*scan.Scan{sc}); err != nil {
		logging.ErrorWithContext(log, "content moved but storage record failed", "scan_catalog_failed",
			logging.String("stored_at", sc.Path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run 'bellastore discover --write' to catalog the moved content"),
		)
		return fmt.Errorf("record storage for %s: %w", sc.Path, err)
	}
	log.Info("scan stored",
		logging.String("stored_at", sc.Path),
		logging.String(logging.FieldEventType, "scan_stored"),
	)
	return nil
}

// removeStaging deletes a staging scan whose content is already cataloged,
// including the payload directory of composite scans.
func removeStaging(sc *scan.Scan) error {
	if err := os.Remove(sc.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove staging file %s: %w", sc.Path, err)
	}
	if dir := sc.CompositeDir(); dir != "" {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove staging payload %s: %w", dir, err)
		}
	}
	return nil
}

// InsertMany hashes scans on the worker pool, then runs the remaining
// pipeline steps one scan at a time in input order. Per-scan failures are
// recorded in the summary; only cancellation returns an error.
func (o *Orchestrator) InsertMany(ctx context.Context, scans []*scan.Scan) (Summary, error) {
	var summary Summary
	hashFailures, err := scan.HashAll(ctx, scans, o.workers)
	if err != nil {
		return summary, err
	}

	for _, sc := range scans {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		o.record(&summary, o.insertHashed(ctx, sc, hashFailures[sc.Path], provenanceUnknown))
	}
	return summary, nil
}

// insertCandidates records provenance for the staging paths in one batch,
// then places each scan in input order.
func (o *Orchestrator) insertCandidates(ctx context.Context, paths []string) (Summary, error) {
	var summary Summary
	batch, err := o.catalog.WriteCandidates(ctx, paths, o.formats, o.workers)
	if err != nil {
		return summary, err
	}
	type candidate struct {
		scan *scan.Scan
		prov provenance
	}
	byPath := make(map[string]candidate, len(paths))
	for _, sc := range batch.Inserted {
		byPath[sc.Path] = candidate{sc, provenanceBatch}
	}
	for _, sc := range batch.Known {
		byPath[sc.Path] = candidate{sc, provenancePrior}
	}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		c, ok := byPath[p]
		if !ok {
			c = candidate{scan.New(p, o.formats), provenanceUnknown}
		}
		o.record(&summary, o.insertHashed(ctx, c.scan, batch.Skipped[p], c.prov))
	}
	return summary, nil
}

func (o *Orchestrator) record(summary *Summary, res Result) {
	if res.Outcome == OutcomeFailed {
		logging.WarnWithContext(o.logger, "scan ingestion failed", "scan_failed",
			logging.String(logging.FieldScanPath, res.Source),
			logging.Error(res.Err),
			logging.String(logging.FieldImpact, "scan left for the next run"),
		)
	}
	summary.Results = append(summary.Results, res)
}

func (o *Orchestrator) insertHashed(ctx context.Context, sc *scan.Scan, hashErr error, prov provenance) Result {
	res := Result{Source: sc.Path, Path: sc.Path}
	if hashErr != nil {
		res.Outcome, res.Err = OutcomeFailed, hashErr
		if scan.IsSkip(hashErr) {
			res.Outcome = OutcomeSkipped
		}
		return res
	}
	if size, err := sc.Size(); err == nil {
		res.Bytes = size
	}
	res.Outcome, res.Err = o.insert(ctx, sc, prov)
	res.Path = sc.Path
	res.Hash = sc.ContentHash
	return res
}

// InsertFromStaging ingests every valid scan under the staging directory and
// then prunes the directories the moves emptied.
func (o *Orchestrator) InsertFromStaging(ctx context.Context) (Summary, error) {
	found, err := o.DryRun(ctx)
	if err != nil {
		return Summary{}, err
	}
	o.logger.Info("ingest started",
		logging.String("staging_dir", o.stagingDir),
		logging.Int("candidates", len(found.Valid)),
		logging.String(logging.FieldEventType, "ingest_started"),
	)
	summary, err := o.insertCandidates(ctx, found.Valid)
	if err != nil {
		return summary, err
	}

	if o.prune {
		pruned := staging.PruneEmptyDirs(ctx, o.stagingDir, nil, o.exclude, o.logger)
		summary.Pruned = pruned.Removed
	}

	o.logger.Info("ingest finished",
		logging.Int("stored", summary.Count(OutcomeStored)),
		logging.Int("deduplicated", summary.Count(OutcomeDeduplicated)),
		logging.Int("already_ingested", summary.Count(OutcomeAlreadyIngested)),
		logging.Int("skipped", summary.Count(OutcomeSkipped)),
		logging.Int("failed", summary.Count(OutcomeFailed)),
		logging.String(logging.FieldEventType, "ingest_finished"),
	)
	return summary, nil
}

// DryRun reports the candidates a real run would attempt, without touching
// the filesystem or the catalog.
func (o *Orchestrator) DryRun(ctx context.Context) (staging.Discovery, error) {
	return staging.Discover(ctx, o.stagingDir, o.formats, o.exclude...)
}
