package staging

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"bellastore/internal/logging"
)

// PruneResult contains the outcome of an empty directory sweep.
type PruneResult struct {
	Removed []string
	Errors  []PruneError
}

// PruneError pairs a directory path with its removal error.
type PruneError struct {
	Path  string
	Error error
}

// PruneEmptyDirs removes empty directories below root, deepest first, so a
// chain of directories emptied by moves disappears in one pass. root itself,
// every path in keep, and everything beneath an excluded path are left alone.
func PruneEmptyDirs(ctx context.Context, root string, keep, exclude []string, logger *slog.Logger) PruneResult {
	result := PruneResult{}
	root = strings.TrimSpace(root)
	if root == "" {
		return result
	}
	root = filepath.Clean(root)

	keepSet := map[string]struct{}{root: {}}
	for _, k := range keep {
		keepSet[filepath.Clean(k)] = struct{}{}
	}
	excluded := cleanPaths(exclude)

	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			result.Errors = append(result.Errors, PruneError{Path: path, Error: err})
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if isWithin(path, excluded) {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, PruneError{Path: root, Error: err})
		}
		return result
	}

	// WalkDir visits parents before children; reverse it to go bottom-up.
	slices.Reverse(dirs)
	for _, dir := range dirs {
		if ctx.Err() != nil {
			break
		}
		if _, ok := keepSet[dir]; ok {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			result.Errors = append(result.Errors, PruneError{Path: dir, Error: err})
			continue
		}
		if len(entries) > 0 {
			continue
		}
		if err := os.Remove(dir); err != nil {
			result.Errors = append(result.Errors, PruneError{Path: dir, Error: err})
			logging.WarnWithContext(logger, "failed to remove empty directory", "prune_failed",
				logging.String("path", dir),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check directory permissions"),
				logging.String(logging.FieldImpact, "empty directory left in place"),
			)
			continue
		}
		result.Removed = append(result.Removed, dir)
		if logger != nil {
			logger.Debug("removed empty directory",
				logging.String("path", dir),
				logging.String(logging.FieldEventType, "prune_dir"),
			)
		}
	}
	return result
}

func cleanPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if strings.TrimSpace(p) != "" {
			out = append(out, filepath.Clean(p))
		}
	}
	return out
}

func isWithin(path string, roots []string) bool {
	for _, r := range roots {
		if path == r || strings.HasPrefix(path, r+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
