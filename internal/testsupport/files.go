package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := min(remaining, int64(chunkSize))
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// WriteScan writes content to path, creating parent directories, and returns
// path for chaining.
func WriteScan(t testing.TB, path, content string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteComposite creates a composite scan: <dir>/<name>.mrxs holding
// descriptor, plus <dir>/<name>/ holding payload (relative slash paths to
// content). It returns the primary file path.
func WriteComposite(t testing.TB, dir, name, descriptor string, payload map[string]string) string {
	t.Helper()

	primary := WriteScan(t, filepath.Join(dir, name+".mrxs"), descriptor)
	payloadDir := filepath.Join(dir, name)
	if err := os.MkdirAll(payloadDir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", payloadDir, err)
	}
	for rel, content := range payload {
		WriteScan(t, filepath.Join(payloadDir, filepath.FromSlash(rel)), content)
	}
	return primary
}

// AssertExists fails the test when path is missing.
func AssertExists(t testing.TB, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
}

// AssertMissing fails the test when path exists.
func AssertMissing(t testing.TB, path string) {
	t.Helper()
	if _, err := os.Lstat(path); !os.IsNotExist(err) {
		t.Fatalf("expected %s to be absent, stat err=%v", path, err)
	}
}

// ListDirs returns the names of immediate subdirectories of dir.
func ListDirs(t testing.TB, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir %s: %v", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out
}
