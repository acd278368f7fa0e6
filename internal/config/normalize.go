package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeIngest()
	c.normalizeLogging()
	return nil
}

// applyEnv lets environment variables replace the built-in path defaults.
// Values from a config file still win because they are decoded afterwards.
func (c *Config) applyEnv() {
	if value, ok := os.LookupEnv("BELLASTORE_ROOT"); ok && strings.TrimSpace(value) != "" {
		c.Paths.RootDir = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("BELLASTORE_STAGING"); ok && strings.TrimSpace(value) != "" {
		c.Paths.StagingDir = strings.TrimSpace(value)
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.RootDir, err = expandPath(strings.TrimSpace(c.Paths.RootDir)); err != nil {
		return fmt.Errorf("paths.root_dir: %w", err)
	}
	if c.Paths.StagingDir, err = expandPath(strings.TrimSpace(c.Paths.StagingDir)); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" && c.Paths.RootDir != "" {
		c.Paths.LogDir = filepath.Join(c.Paths.RootDir, logDirName)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.CatalogFilename = strings.TrimSpace(c.Paths.CatalogFilename)
	if c.Paths.CatalogFilename == "" {
		c.Paths.CatalogFilename = defaultCatalogFilename
	}
	return nil
}

func (c *Config) normalizeIngest() {
	if len(c.Ingest.Extensions) == 0 {
		c.Ingest.Extensions = append([]string(nil), DefaultExtensions...)
		return
	}
	seen := make(map[string]struct{}, len(c.Ingest.Extensions))
	out := c.Ingest.Extensions[:0]
	for _, ext := range c.Ingest.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if _, dup := seen[ext]; dup {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	c.Ingest.Extensions = out
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
