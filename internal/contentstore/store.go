package contentstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"bellastore/internal/fileutil"
	"bellastore/internal/scan"
)

// ErrConflict is returned when a placement or rename target already exists.
var ErrConflict = errors.New("content store conflict")

// Store is the content-addressed tree rooted at a directory.
type Store struct {
	root    string
	formats *scan.Formats
}

// New returns a Store rooted at root. A nil formats uses the built-in
// allow-list.
func New(root string, formats *scan.Formats) *Store {
	if formats == nil {
		formats = scan.NewFormats(nil)
	}
	return &Store{root: root, formats: formats}
}

// Root returns the store root.
func (s *Store) Root() string {
	return s.root
}

// DirFor returns the directory that holds content with hash.
func (s *Store) DirFor(hash string) string {
	return filepath.Join(s.root, hash)
}

// Exists reports whether a directory for hash is present.
func (s *Store) Exists(hash string) (bool, error) {
	info, err := os.Stat(s.DirFor(hash))
	if err == nil {
		return info.IsDir(), nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Place moves a hashed scan into <root>/<hash>/, updates its path, and
// advances it to Stored. The hash directory must not exist yet. Composite
// scans move their payload directory alongside; if that fails the primary
// file is moved back so staging is left as it was found.
func (s *Store) Place(sc *scan.Scan) error {
	if !sc.Has(scan.Hashed) || sc.ContentHash == "" {
		return fmt.Errorf("place %s: %w", sc.Path, scan.ErrInvalidTransition)
	}
	dir := s.DirFor(sc.ContentHash)
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("ensure store root: %w", err)
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s already exists", ErrConflict, dir)
		}
		return fmt.Errorf("create %s: %w", dir, err)
	}

	src := sc.Path
	payload := sc.CompositeDir()
	dst := filepath.Join(dir, sc.Filename)
	if err := fileutil.MoveFile(src, dst); err != nil {
		_ = os.Remove(dir)
		return fmt.Errorf("move %s: %w", src, err)
	}
	if payload != "" {
		if err := fileutil.MoveDir(payload, filepath.Join(dir, sc.Name)); err != nil {
			if rbErr := fileutil.MoveFile(dst, src); rbErr != nil {
				return fmt.Errorf("move payload %s: %w (rollback failed: %v)", payload, err, rbErr)
			}
			_ = os.Remove(dir)
			return fmt.Errorf("move payload %s: %w", payload, err)
		}
	}

	sc.Relocate(dst)
	return sc.AdvanceTo(scan.Stored)
}

// Directories lists the names of immediate subdirectories, sorted. Files at
// the root (such as the catalog) are ignored.
func (s *Store) Directories() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read store root: %w", err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs, nil
}

// ScanFiles lists the valid scan files directly inside the directory name.
// Payload directories of composite scans are not descended into.
func (s *Store) ScanFiles(name string) ([]string, error) {
	dir := filepath.Join(s.root, name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if s.formats.Match(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(files)
	return files, nil
}

// Rename renames directory from to to. It refuses to touch an existing
// target.
func (s *Store) Rename(from, to string) error {
	src := filepath.Join(s.root, from)
	dst := filepath.Join(s.root, to)
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("%w: cannot rename %s, %s already exists", ErrConflict, from, to)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", dst, err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("rename %s to %s: %w", from, to, err)
	}
	return nil
}
