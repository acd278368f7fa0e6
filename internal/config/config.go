package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the store root and staging locations.
type Paths struct {
	RootDir         string `toml:"root_dir"`
	StagingDir      string `toml:"staging_dir"`
	CatalogFilename string `toml:"catalog_filename"`
	LogDir          string `toml:"log_dir"`
}

// Ingest controls discovery and hashing.
type Ingest struct {
	// Workers bounds the hashing pool. Zero selects runtime.NumCPU().
	Workers        int      `toml:"workers"`
	Extensions     []string `toml:"extensions"`
	PruneEmptyDirs bool     `toml:"prune_empty_dirs"`
}

// Backup controls catalog backup rotation.
type Backup struct {
	MaxBackups int  `toml:"max_backups"`
	Compress   bool `toml:"compress"`
}

// Logging contains log output settings.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for bellastore.
//
// Configuration sections:
//   - Paths: store root, staging directory, catalog filename, log directory
//   - Ingest: hashing pool size, format allow-list, empty directory pruning
//   - Backup: catalog backup retention and compression
//   - Logging: log format, level, and retention
type Config struct {
	Paths   Paths   `toml:"paths"`
	Ingest  Ingest  `toml:"ingest"`
	Backup  Backup  `toml:"backup"`
	Logging Logging `toml:"logging"`
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RootDir:         defaultRootDir,
			CatalogFilename: defaultCatalogFilename,
		},
		Ingest: Ingest{
			Extensions:     append([]string(nil), DefaultExtensions...),
			PruneEmptyDirs: defaultPruneEmptyDirs,
		},
		Backup: Backup{
			MaxBackups: defaultMaxBackups,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/bellastore/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()
	cfg.applyEnv()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// Finalize normalizes and validates a config assembled in code, such as one
// with command-line overrides applied after Load.
func (c *Config) Finalize() error {
	if err := c.normalize(); err != nil {
		return err
	}
	return c.Validate()
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("bellastore.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// StorageDir is the content store root; it also holds the catalog file.
func (c *Config) StorageDir() string {
	return filepath.Join(c.Paths.RootDir, storageDirName)
}

// BackupDir holds catalog backups and is never pruned.
func (c *Config) BackupDir() string {
	return filepath.Join(c.Paths.RootDir, backupDirName)
}

// CatalogPath returns the catalog database location.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.StorageDir(), c.Paths.CatalogFilename)
}

// LockPath returns the root-wide single instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.RootDir, lockFileName)
}

// EnsureDirectories creates the root layout. The staging directory is
// created only when configured.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.RootDir, c.StorageDir(), c.BackupDir(), c.Paths.LogDir}
	if strings.TrimSpace(c.Paths.StagingDir) != "" {
		dirs = append(dirs, c.Paths.StagingDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
