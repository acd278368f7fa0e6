package staging

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"bellastore/internal/scan"
)

// Discovery lists the valid scans found under a staging root.
type Discovery struct {
	// Valid holds candidate paths in lexical order.
	Valid []string
	// Ignored counts regular files outside the allow-list.
	Ignored int
	// ByFormat counts valid candidates per folded extension.
	ByFormat map[string]int
}

// Formats returns the formats present, sorted.
func (d Discovery) Formats() []string {
	out := make([]string, 0, len(d.ByFormat))
	for f := range d.ByFormat {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// Discover walks dir recursively and collects every regular file whose
// extension is allowed. Payload directories of composite scans are not
// entered: their files belong to the primary scan. Subtrees listed in
// exclude are skipped. Nothing is modified.
func Discover(ctx context.Context, dir string, formats *scan.Formats, exclude ...string) (Discovery, error) {
	result := Discovery{ByFormat: make(map[string]int)}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return result, errors.New("staging directory not configured")
	}
	if formats == nil {
		formats = scan.NewFormats(nil)
	}
	dir = filepath.Clean(dir)
	skip := cleanPaths(exclude)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != dir && isWithin(path, skip) {
				return filepath.SkipDir
			}
			if path != dir && isCompositePayload(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !formats.Match(path) {
			result.Ignored++
			return nil
		}
		result.Valid = append(result.Valid, path)
		result.ByFormat[scan.FormatOf(path)]++
		return nil
	})
	if err != nil {
		return Discovery{}, fmt.Errorf("discover scans in %s: %w", dir, err)
	}
	slices.Sort(result.Valid)
	return result, nil
}

// isCompositePayload reports whether dir has a same-named composite primary
// file next to it.
func isCompositePayload(dir string) bool {
	parent := filepath.Dir(dir)
	base := filepath.Base(dir)
	entries, err := os.ReadDir(parent)
	if err != nil {
		return false
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || scan.FormatOf(name) != scan.CompositeExtension {
			continue
		}
		if strings.TrimSuffix(name, filepath.Ext(name)) == base {
			return true
		}
	}
	return false
}
