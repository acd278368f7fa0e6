package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"bellastore/internal/catalog"
	"bellastore/internal/config"
	"bellastore/internal/contentstore"
	"bellastore/internal/logging"
	"bellastore/internal/preflight"
	"bellastore/internal/scan"
)

type globalFlags struct {
	config  string
	root    string
	staging string
	catalog string
	verbose bool
}

type commandContext struct {
	flags *globalFlags

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if applyOverrides(cfg, c.flags) {
			if err := cfg.Finalize(); err != nil {
				c.configErr = err
				return
			}
		}
		c.config = cfg
		c.configPath = path
		c.configExists = exists
	})
	return c.config, c.configErr
}

// applyOverrides copies command-line paths over the loaded config and
// reports whether anything changed.
func applyOverrides(cfg *config.Config, flags *globalFlags) bool {
	changed := false
	if v := strings.TrimSpace(flags.root); v != "" {
		cfg.Paths.RootDir = v
		// Let the log directory follow the overridden root.
		cfg.Paths.LogDir = ""
		changed = true
	}
	if v := strings.TrimSpace(flags.staging); v != "" {
		cfg.Paths.StagingDir = v
		changed = true
	}
	if v := strings.TrimSpace(flags.catalog); v != "" {
		cfg.Paths.CatalogFilename = v
		changed = true
	}
	if flags.verbose {
		cfg.Logging.Level = "debug"
		changed = true
	}
	return changed
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		logging.CleanupOldLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays)
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// runtime bundles the open resources a command works against.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	catalog *catalog.Store
	store   *contentstore.Store
	formats *scan.Formats
	lock    *preflight.RootLock
}

func (r *runtime) close() error {
	var errs []error
	if r.catalog != nil {
		errs = append(errs, r.catalog.Close())
	}
	errs = append(errs, r.lock.Release())
	return errors.Join(errs...)
}

type runOptions struct {
	// exclusive takes the root lock before opening the catalog.
	exclusive bool
	// readOnly leaves the filesystem untouched: no layout creation, no log
	// file and no catalog. Log output goes to stderr only.
	readOnly bool
}

// withRuntime creates the root layout, opens the catalog and content store,
// tags the context with a fresh run ID, and runs fn. With --verbose the
// catalog is dumped afterwards.
func (c *commandContext) withRuntime(cmd *cobra.Command, opts runOptions, fn func(context.Context, *runtime) error) (err error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	var logger *slog.Logger
	if opts.readOnly {
		logger, err = logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	} else {
		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}
		logger, err = c.ensureLogger()
	}
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	runID := logging.NewRunID()
	ctx = logging.WithRunID(ctx, runID)
	logger = logger.With(logging.String(logging.FieldRunID, runID))

	rt := &runtime{cfg: cfg, logger: logger, formats: scan.NewFormats(cfg.Ingest.Extensions)}
	if opts.exclusive {
		lock, err := preflight.AcquireRootLock(cfg)
		if err != nil {
			return err
		}
		rt.lock = lock
	}
	defer func() {
		if cerr := rt.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if !opts.readOnly {
		rt.catalog, err = catalog.Open(ctx, cfg.CatalogPath())
		if err != nil {
			return err
		}
	}
	rt.store = contentstore.New(cfg.StorageDir(), rt.formats)

	logger.Debug("command started",
		logging.String("command", cmd.CommandPath()),
		logging.String("root", cfg.Paths.RootDir),
		logging.String("catalog", cfg.CatalogPath()),
		logging.Bool("read_only", opts.readOnly),
	)

	runErr := fn(ctx, rt)
	if c.flags.verbose && rt.catalog != nil {
		if dumpErr := dumpCatalog(ctx, cmd.OutOrStdout(), rt.catalog); dumpErr != nil && runErr == nil {
			runErr = dumpErr
		}
	}
	return runErr
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
