package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if c.Backup.MaxBackups < 0 {
		return errors.New("backup.max_backups must be >= 0")
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.RootDir == "" {
		return errors.New("paths.root_dir must be set (or BELLASTORE_ROOT)")
	}
	if strings.ContainsAny(c.Paths.CatalogFilename, `/\`) {
		return fmt.Errorf("paths.catalog_filename %q must be a bare filename", c.Paths.CatalogFilename)
	}
	if c.Paths.StagingDir == "" {
		return nil
	}
	for _, protected := range []struct{ name, dir string }{
		{"storage", c.StorageDir()},
		{"backup", c.BackupDir()},
	} {
		if overlaps(c.Paths.StagingDir, protected.dir) {
			return fmt.Errorf("paths.staging_dir %q must not contain or sit inside the %s directory %q",
				c.Paths.StagingDir, protected.name, protected.dir)
		}
	}
	return nil
}

// overlaps reports whether either path equals or contains the other.
func overlaps(a, b string) bool {
	return within(a, b) || within(b, a)
}

func within(path, parent string) bool {
	rel, err := filepath.Rel(parent, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func (c *Config) validateIngest() error {
	if c.Ingest.Workers < 0 {
		return errors.New("ingest.workers must be >= 0")
	}
	if len(c.Ingest.Extensions) == 0 {
		return errors.New("ingest.extensions must list at least one format")
	}
	for _, ext := range c.Ingest.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("ingest.extensions entry %q must start with a dot", ext)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn, or error", c.Logging.Level)
	}
	return nil
}
