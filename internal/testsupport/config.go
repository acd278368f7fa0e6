package testsupport

import (
	"path/filepath"
	"testing"

	"bellastore/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test:
// <tmp>/root for the store and <tmp>/staging for incoming scans. The root
// layout is created before returning.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.RootDir = filepath.Join(base, "root")
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Ingest.Workers = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Finalize(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithWorkers overrides the hashing pool size.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ingest.Workers = n
	}
}

// WithMaxBackups overrides backup retention.
func WithMaxBackups(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Backup.MaxBackups = n
	}
}

// WithCompressedBackups enables zstd backups.
func WithCompressedBackups() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Backup.Compress = true
	}
}

// WithCatalogFilename overrides the catalog file name.
func WithCatalogFilename(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.CatalogFilename = name
	}
}
