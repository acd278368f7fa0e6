package contentstore_test

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"bellastore/internal/contentstore"
	"bellastore/internal/scan"
	"bellastore/internal/testsupport"
)

func hashed(t *testing.T, path string) *scan.Scan {
	t.Helper()
	s := scan.New(path, nil)
	if err := s.Hash(); err != nil {
		t.Fatalf("hash %s: %v", path, err)
	}
	return s
}

func TestPlaceMovesSingleFile(t *testing.T) {
	base := t.TempDir()
	store := contentstore.New(filepath.Join(base, "storage"), nil)
	src := testsupport.WriteScan(t, filepath.Join(base, "staging", "a.ndpi"), "X")
	s := hashed(t, src)

	if err := store.Place(s); err != nil {
		t.Fatalf("Place: %v", err)
	}
	want := filepath.Join(store.DirFor(s.ContentHash), "a.ndpi")
	if s.Path != want {
		t.Fatalf("path = %q, want %q", s.Path, want)
	}
	if s.Current() != scan.Stored {
		t.Fatalf("state = %s, want stored", s.Current())
	}
	testsupport.AssertMissing(t, src)
	testsupport.AssertExists(t, want)
}

func TestPlaceMovesCompositePayload(t *testing.T) {
	base := t.TempDir()
	store := contentstore.New(filepath.Join(base, "storage"), nil)
	primary := testsupport.WriteComposite(t, filepath.Join(base, "staging"), "slide", "desc", map[string]string{
		"Data0000.dat": "d0",
		"Index.dat":    "idx",
	})
	s := hashed(t, primary)
	before := s.ContentHash

	if err := store.Place(s); err != nil {
		t.Fatalf("Place: %v", err)
	}
	dir := store.DirFor(before)
	testsupport.AssertExists(t, filepath.Join(dir, "slide.mrxs"))
	testsupport.AssertExists(t, filepath.Join(dir, "slide", "Data0000.dat"))
	testsupport.AssertMissing(t, filepath.Join(base, "staging", "slide"))

	after, err := scan.CompositeHash(s.Path, s.CompositeDir())
	if err != nil {
		t.Fatalf("rehash after move: %v", err)
	}
	if after != before {
		t.Fatalf("hash changed by move: %s vs %s", after, before)
	}
}

func TestPlaceRefusesExistingDirectory(t *testing.T) {
	base := t.TempDir()
	store := contentstore.New(filepath.Join(base, "storage"), nil)
	src := testsupport.WriteScan(t, filepath.Join(base, "staging", "a.svs"), "X")
	s := hashed(t, src)
	if err := os.MkdirAll(store.DirFor(s.ContentHash), 0o755); err != nil {
		t.Fatal(err)
	}

	err := store.Place(s)
	if !errors.Is(err, contentstore.ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
	testsupport.AssertExists(t, src)
	if s.Has(scan.Stored) || s.Path != src {
		t.Fatal("failed placement mutated the scan")
	}
}

func TestPlaceRequiresHash(t *testing.T) {
	base := t.TempDir()
	store := contentstore.New(filepath.Join(base, "storage"), nil)
	s := scan.New(testsupport.WriteScan(t, filepath.Join(base, "a.svs"), "X"), nil)
	if err := store.Place(s); !errors.Is(err, scan.ErrInvalidTransition) {
		t.Fatalf("got %v, want ErrInvalidTransition", err)
	}
}

func TestDirectoriesAndScanFiles(t *testing.T) {
	root := t.TempDir()
	store := contentstore.New(root, nil)
	testsupport.WriteScan(t, filepath.Join(root, "scans.sqlite"), "db")
	testsupport.WriteScan(t, filepath.Join(root, "h1", "a.svs"), "a")
	testsupport.WriteScan(t, filepath.Join(root, "h1", "readme.txt"), "ignored")
	testsupport.WriteComposite(t, filepath.Join(root, "h2"), "m", "desc", map[string]string{"x.tif": "nested scan-like file"})
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}

	dirs, err := store.Directories()
	if err != nil {
		t.Fatalf("Directories: %v", err)
	}
	if !slices.Equal(dirs, []string{"empty", "h1", "h2"}) {
		t.Fatalf("dirs = %v", dirs)
	}

	files, _ := store.ScanFiles("h1")
	if len(files) != 1 || filepath.Base(files[0]) != "a.svs" {
		t.Fatalf("h1 files = %v", files)
	}
	files, _ = store.ScanFiles("h2")
	if len(files) != 1 || filepath.Base(files[0]) != "m.mrxs" {
		t.Fatalf("h2 files = %v (payload must not be searched)", files)
	}
	files, _ = store.ScanFiles("empty")
	if len(files) != 0 {
		t.Fatalf("empty files = %v", files)
	}
}

func TestDirectoriesMissingRoot(t *testing.T) {
	store := contentstore.New(filepath.Join(t.TempDir(), "absent"), nil)
	dirs, err := store.Directories()
	if err != nil || len(dirs) != 0 {
		t.Fatalf("got %v, %v", dirs, err)
	}
}

func TestRenameRefusesCollision(t *testing.T) {
	root := t.TempDir()
	store := contentstore.New(root, nil)
	testsupport.WriteScan(t, filepath.Join(root, "wrong", "a.svs"), "a")
	testsupport.WriteScan(t, filepath.Join(root, "right", "b.svs"), "b")

	if err := store.Rename("wrong", "right"); !errors.Is(err, contentstore.ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
	testsupport.AssertExists(t, filepath.Join(root, "wrong", "a.svs"))
	testsupport.AssertExists(t, filepath.Join(root, "right", "b.svs"))

	if err := store.Rename("wrong", "fixed"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	testsupport.AssertExists(t, filepath.Join(root, "fixed", "a.svs"))
}

func TestUsageAndTree(t *testing.T) {
	root := t.TempDir()
	store := contentstore.New(root, nil)
	testsupport.WriteScan(t, filepath.Join(root, "h1", "a.svs"), "1234")
	testsupport.WriteComposite(t, filepath.Join(root, "h2"), "m", "12", map[string]string{"p1": "1", "p2": "1"})

	u, err := store.Usage()
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if u.Directories != 2 || u.Files != 4 || u.Bytes != 8 {
		t.Fatalf("usage = %+v", u)
	}

	out, err := store.Tree()
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	for _, want := range []string{"h1", "a.svs", "h2", "m.mrxs", "m/ (2 files)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("tree missing %q:\n%s", want, out)
		}
	}
}
