package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"bellastore/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("BELLASTORE_ROOT", "")
	t.Setenv("BELLASTORE_STAGING", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantRoot := filepath.Join(tempHome, ".local", "share", "bellastore")
	if cfg.Paths.RootDir != wantRoot {
		t.Fatalf("unexpected root dir: got %q want %q", cfg.Paths.RootDir, wantRoot)
	}
	if cfg.Paths.LogDir != filepath.Join(wantRoot, "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.CatalogPath() != filepath.Join(wantRoot, "storage", "scans.sqlite") {
		t.Fatalf("unexpected catalog path: %q", cfg.CatalogPath())
	}
	if cfg.BackupDir() != filepath.Join(wantRoot, "backup") {
		t.Fatalf("unexpected backup dir: %q", cfg.BackupDir())
	}
	if cfg.Paths.StagingDir != "" {
		t.Fatalf("expected no staging dir by default, got %q", cfg.Paths.StagingDir)
	}
	if len(cfg.Ingest.Extensions) != len(config.DefaultExtensions) {
		t.Fatalf("unexpected extensions: %v", cfg.Ingest.Extensions)
	}
}

func TestLoadEnvironmentOverridesDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	root := filepath.Join(t.TempDir(), "root")
	staging := filepath.Join(t.TempDir(), "incoming")
	t.Setenv("BELLASTORE_ROOT", root)
	t.Setenv("BELLASTORE_STAGING", staging)

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.RootDir != root {
		t.Fatalf("root dir = %q, want %q", cfg.Paths.RootDir, root)
	}
	if cfg.Paths.StagingDir != staging {
		t.Fatalf("staging dir = %q, want %q", cfg.Paths.StagingDir, staging)
	}
}

func TestLoadCustomConfigFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("BELLASTORE_ROOT", "")
	t.Setenv("BELLASTORE_STAGING", "")

	payload := map[string]any{
		"paths": map[string]any{
			"root_dir":         "~/slides",
			"staging_dir":      "~/incoming",
			"catalog_filename": "catalog.db",
		},
		"ingest": map[string]any{
			"workers":    3,
			"extensions": []string{" .SVS", ".ndpi", ".svs"},
		},
		"backup": map[string]any{
			"max_backups": 4,
			"compress":    true,
		},
		"logging": map[string]any{
			"format": "JSON",
			"level":  "Debug",
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected explicit config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.RootDir != filepath.Join(tempHome, "slides") {
		t.Fatalf("unexpected root dir: %q", cfg.Paths.RootDir)
	}
	if cfg.Paths.StagingDir != filepath.Join(tempHome, "incoming") {
		t.Fatalf("unexpected staging dir: %q", cfg.Paths.StagingDir)
	}
	if filepath.Base(cfg.CatalogPath()) != "catalog.db" {
		t.Fatalf("unexpected catalog path: %q", cfg.CatalogPath())
	}
	if cfg.Ingest.Workers != 3 {
		t.Fatalf("unexpected workers: %d", cfg.Ingest.Workers)
	}
	if got := strings.Join(cfg.Ingest.Extensions, ","); got != ".svs,.ndpi" {
		t.Fatalf("extensions not normalized: %q", got)
	}
	if cfg.Backup.MaxBackups != 4 || !cfg.Backup.Compress {
		t.Fatalf("unexpected backup settings: %+v", cfg.Backup)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging settings: %+v", cfg.Logging)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"catalog with separator", func(c *config.Config) { c.Paths.CatalogFilename = "sub/scans.sqlite" }, "bare filename"},
		{"extension without dot", func(c *config.Config) { c.Ingest.Extensions = []string{"svs"} }, "start with a dot"},
		{"negative workers", func(c *config.Config) { c.Ingest.Workers = -1 }, "ingest.workers"},
		{"negative backups", func(c *config.Config) { c.Backup.MaxBackups = -2 }, "max_backups"},
		{"unknown format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"staging equals storage", func(c *config.Config) { c.Paths.StagingDir = c.StorageDir() }, "staging_dir"},
		{"staging is root", func(c *config.Config) { c.Paths.StagingDir = c.Paths.RootDir }, "storage directory"},
		{"staging inside storage", func(c *config.Config) {
			c.Paths.StagingDir = filepath.Join(c.StorageDir(), "incoming")
		}, "storage directory"},
		{"staging inside backups", func(c *config.Config) {
			c.Paths.StagingDir = filepath.Join(c.BackupDir(), "drop")
		}, "backup directory"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.RootDir = t.TempDir()
			tc.mutate(&cfg)
			err := cfg.Finalize()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestValidateAcceptsStagingBesideStore(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.RootDir = filepath.Join(base, "root")
	cfg.Paths.StagingDir = filepath.Join(base, "root-staging")
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	cfg.Paths.StagingDir = filepath.Join(cfg.Paths.RootDir, "staging")
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("staging under root beside storage: %v", err)
	}
}

func TestEnsureDirectoriesCreatesLayout(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.RootDir = filepath.Join(t.TempDir(), "root")
	cfg.Paths.StagingDir = filepath.Join(t.TempDir(), "staging")
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.StorageDir(), cfg.BackupDir(), cfg.Paths.LogDir, cfg.Paths.StagingDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("sample config should load: exists=%v err=%v", exists, err)
	}
}
