package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(got)
}

// simulateCrossDevice makes every rename fail with EXDEV for the test.
func simulateCrossDevice(t *testing.T) {
	t.Helper()
	prev := rename
	rename = func(oldpath, newpath string) error {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: unix.EXDEV}
	}
	t.Cleanup(func() { rename = prev })
}

func TestCopyFileVerifiedKeepsPermissions(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")
	writeFile(t, src, "data")
	if err := os.Chmod(src, 0o600); err != nil {
		t.Fatal(err)
	}

	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")
	writeFile(t, src, "verified copy content")

	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, dst); got != "verified copy content" {
		t.Fatalf("content mismatch: got %q", got)
	}
	if err := CopyFileVerified(src, dst); !errors.Is(err, ErrExists) {
		t.Fatalf("second copy: got %v, want ErrExists", err)
	}
}

func TestCopyFileVerified_MissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFileVerified(filepath.Join(dir, "nonexistent"), filepath.Join(dir, "dst.bin")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestMoveFileRenames(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "staging", "a.svs")
	dst := filepath.Join(dir, "store", "hash", "a.svs")
	writeFile(t, src, "X")

	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("source still present: %v", err)
	}
	if got := readFile(t, dst); got != "X" {
		t.Fatalf("moved content = %q", got)
	}
}

func TestMoveFileRefusesExistingTarget(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.svs")
	dst := filepath.Join(dir, "b.svs")
	writeFile(t, src, "new")
	writeFile(t, dst, "old")

	if err := MoveFile(src, dst); !errors.Is(err, ErrExists) {
		t.Fatalf("got %v, want ErrExists", err)
	}
	if readFile(t, dst) != "old" || readFile(t, src) != "new" {
		t.Fatal("refused move modified files")
	}
}

func TestMoveFileCrossDeviceFallsBackToCopy(t *testing.T) {
	simulateCrossDevice(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "a.svs")
	dst := filepath.Join(dir, "other", "a.svs")
	writeFile(t, src, "payload")

	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("source not removed after copy: %v", err)
	}
	if got := readFile(t, dst); got != "payload" {
		t.Fatalf("copied content = %q", got)
	}
}

func TestMoveDirCrossDeviceCopiesTree(t *testing.T) {
	simulateCrossDevice(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "slide")
	writeFile(t, filepath.Join(src, "Data0000.dat"), "d0")
	writeFile(t, filepath.Join(src, "nested", "Index.dat"), "idx")
	dst := filepath.Join(dir, "store", "slide")

	if err := MoveDir(src, dst); err != nil {
		t.Fatalf("MoveDir: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("source tree not removed: %v", err)
	}
	if readFile(t, filepath.Join(dst, "Data0000.dat")) != "d0" || readFile(t, filepath.Join(dst, "nested", "Index.dat")) != "idx" {
		t.Fatal("tree content not copied")
	}
}

func TestMoveDirRenames(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "slide")
	writeFile(t, filepath.Join(src, "a.dat"), "a")
	dst := filepath.Join(dir, "moved")

	if err := MoveDir(src, dst); err != nil {
		t.Fatalf("MoveDir: %v", err)
	}
	if readFile(t, filepath.Join(dst, "a.dat")) != "a" {
		t.Fatal("content missing after rename")
	}
	if err := MoveDir(dst, dst); !errors.Is(err, ErrExists) {
		t.Fatalf("move onto itself: got %v, want ErrExists", err)
	}
}
