// Package backup writes timestamped copies of the catalog and rotates them.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"bellastore/internal/logging"
)

const (
	nameMarker          = "_backup_"
	plainExtension      = ".db"
	compressedExtension = ".db.zst"
	stampLayout         = "20060102_150405"
)

// Source is a catalog that can copy itself consistently.
type Source interface {
	Path() string
	BackupTo(ctx context.Context, dest string) error
}

// Options configures Create.
type Options struct {
	Catalog   Source
	BackupDir string
	// MaxBackups caps the number of backups kept. Zero keeps all.
	MaxBackups int
	Compress   bool
	Logger     *slog.Logger
	// Now overrides the clock used for the backup name.
	Now func() time.Time
}

// Result describes a created backup.
type Result struct {
	Path   string
	Size   int64
	Pruned []string
}

// Entry is one backup file on disk.
type Entry struct {
	Path       string
	Name       string
	Size       int64
	ModTime    time.Time
	Compressed bool
}

// Create copies the catalog into the backup directory and prunes the oldest
// copies beyond MaxBackups.
func Create(ctx context.Context, opts Options) (Result, error) {
	if opts.Catalog == nil {
		return Result{}, errors.New("backup: catalog is required")
	}
	if strings.TrimSpace(opts.BackupDir) == "" {
		return Result{}, errors.New("backup: backup directory is required")
	}
	logger := logging.NewComponentLogger(opts.Logger, "backup")
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	if err := os.MkdirAll(opts.BackupDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create backup directory: %w", err)
	}

	dest := filepath.Join(opts.BackupDir, FileName(opts.Catalog.Path(), now()))
	if err := opts.Catalog.BackupTo(ctx, dest); err != nil {
		return Result{}, err
	}
	if opts.Compress {
		compressed, err := compressFile(dest)
		if err != nil {
			return Result{}, err
		}
		dest = compressed
	}

	info, err := os.Stat(dest)
	if err != nil {
		return Result{}, fmt.Errorf("stat backup: %w", err)
	}
	result := Result{Path: dest, Size: info.Size()}
	logger.Info("catalog backup created",
		logging.String("path", dest),
		logging.Int64("bytes", info.Size()),
		logging.Bool("compressed", opts.Compress),
		logging.String(logging.FieldEventType, "backup_created"),
	)

	pruned, err := Prune(opts.BackupDir, opts.MaxBackups)
	result.Pruned = pruned
	for _, p := range pruned {
		logger.Info("removed old backup", logging.String("path", p))
	}
	if err != nil {
		return result, err
	}
	return result, nil
}

// FileName returns the backup name for catalogPath taken at t:
// <stem>_backup_<YYYYMMDD_HHMMSS_micro>.db.
func FileName(catalogPath string, t time.Time) string {
	base := filepath.Base(catalogPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s%s%s_%06d%s", stem, nameMarker, t.Format(stampLayout), t.Nanosecond()/1000, plainExtension)
}

// List returns the backups in dir, oldest first. A missing directory has no
// backups.
func List(dir string) ([]Entry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup directory: %w", err)
	}
	var backups []Entry
	for _, e := range entries {
		if !e.Type().IsRegular() || !isBackupName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Entry{
			Path:       filepath.Join(dir, e.Name()),
			Name:       e.Name(),
			Size:       info.Size(),
			ModTime:    info.ModTime(),
			Compressed: strings.HasSuffix(e.Name(), compressedExtension),
		})
	}
	slices.SortFunc(backups, func(a, b Entry) int {
		if c := a.ModTime.Compare(b.ModTime); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return backups, nil
}

// Prune deletes the oldest backups until at most keep remain and returns
// the removed paths. keep <= 0 disables pruning.
func Prune(dir string, keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}
	backups, err := List(dir)
	if err != nil {
		return nil, err
	}
	var (
		removed []string
		errs    []error
	)
	for len(backups) > keep {
		oldest := backups[0]
		backups = backups[1:]
		if err := os.Remove(oldest.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", oldest.Path, err))
			continue
		}
		removed = append(removed, oldest.Path)
	}
	return removed, errors.Join(errs...)
}

func isBackupName(name string) bool {
	if !strings.Contains(name, nameMarker) {
		return false
	}
	return strings.HasSuffix(name, plainExtension) || strings.HasSuffix(name, compressedExtension)
}

// compressFile replaces path with a zstd-compressed path+".zst".
func compressFile(path string) (string, error) {
	dest := path + ".zst"
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open backup: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(path), ".backup-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	enc, err := zstd.NewWriter(tmp, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		cleanup()
		return "", fmt.Errorf("create zstd encoder: %w", err)
	}
	if _, err := io.Copy(enc, src); err != nil {
		_ = enc.Close()
		cleanup()
		return "", fmt.Errorf("compress backup: %w", err)
	}
	if err := enc.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("finish compression: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return "", fmt.Errorf("sync compressed backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("close compressed backup: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("commit compressed backup: %w", err)
	}
	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("remove uncompressed backup: %w", err)
	}
	return dest, nil
}

// Decompress writes the plain catalog held by a .db.zst backup to dest.
func Decompress(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open backup: %w", err)
	}
	defer in.Close()

	dec, err := zstd.NewReader(in)
	if err != nil {
		return fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, dec); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("decompress backup: %w", err)
	}
	return out.Close()
}
