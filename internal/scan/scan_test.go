package scan_test

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"bellastore/internal/scan"
	"bellastore/internal/testsupport"
)

func TestNewDerivesNames(t *testing.T) {
	s := scan.New("/staging/batch/slide.01.SVS", nil)
	if s.Filename != "slide.01.SVS" {
		t.Fatalf("filename = %q", s.Filename)
	}
	if s.Name != "slide.01" {
		t.Fatalf("name = %q", s.Name)
	}
	if s.Format() != ".svs" {
		t.Fatalf("format = %q", s.Format())
	}
	if !s.IsValid() {
		t.Fatal("upper-case extension should match the allow-list")
	}
	if s.ContentHash != "" || s.Current() != scan.None {
		t.Fatalf("fresh scan should be unhashed and in state none")
	}
}

func TestValidateSkipsUnknownFormats(t *testing.T) {
	for _, path := range []string{"/staging/c.txt", "/staging/noext", "/staging/svs"} {
		s := scan.New(path, nil)
		err := s.Validate()
		if !errors.Is(err, scan.ErrInvalidScan) {
			t.Fatalf("%s: got %v, want ErrInvalidScan", path, err)
		}
		if !scan.IsSkip(err) {
			t.Fatalf("%s: invalid scans should be skips", path)
		}
		if s.Has(scan.Validated) {
			t.Fatalf("%s: invalid scan advanced", path)
		}
	}
}

func TestCustomFormats(t *testing.T) {
	formats := scan.NewFormats([]string{".SVS"})
	if !scan.New("/x/a.svs", formats).IsValid() {
		t.Fatal("expected .svs to match folded allow-list")
	}
	if scan.New("/x/a.ndpi", formats).IsValid() {
		t.Fatal("expected .ndpi to be rejected by custom allow-list")
	}
}

func TestHashSingleFileMatchesSHA256(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteScan(t, filepath.Join(dir, "a.ndpi"), "X")

	s := scan.New(path, nil)
	if err := s.Hash(); err != nil {
		t.Fatalf("Hash: %v", err)
	}
	sum := sha256.Sum256([]byte("X"))
	want := base64.URLEncoding.EncodeToString(sum[:])
	if s.ContentHash != want {
		t.Fatalf("hash = %q, want %q", s.ContentHash, want)
	}
	if s.Current() != scan.Hashed {
		t.Fatalf("state = %s, want hashed", s.Current())
	}
}

func TestHashIgnoresNameAndMetadata(t *testing.T) {
	dir := t.TempDir()
	a := testsupport.WriteScan(t, filepath.Join(dir, "a.ndpi"), "same bytes")
	b := testsupport.WriteScan(t, filepath.Join(dir, "nested", "b.svs"), "same bytes")
	if err := os.Chmod(b, 0o600); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	ha, err := scan.FileHash(a)
	if err != nil {
		t.Fatalf("FileHash a: %v", err)
	}
	hb, err := scan.FileHash(b)
	if err != nil {
		t.Fatalf("FileHash b: %v", err)
	}
	if ha != hb {
		t.Fatalf("identical bytes produced different hashes: %s vs %s", ha, hb)
	}
}

func TestHashLargeFileSpansChunks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.tif")
	testsupport.WriteFile(t, path, 200*1024+17)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	sum := sha256.Sum256(data)
	got, err := scan.FileHash(path)
	if err != nil {
		t.Fatalf("FileHash: %v", err)
	}
	if got != base64.URLEncoding.EncodeToString(sum[:]) {
		t.Fatalf("chunked hash differs from one-shot digest")
	}
}

func TestCompositeHashFoldsSortedPayloadThenPrimary(t *testing.T) {
	dir := t.TempDir()
	primary := testsupport.WriteComposite(t, dir, "slide", "descriptor", map[string]string{
		"b.dat":        "bravo",
		"a.dat":        "alpha",
		"sub/c.dat":    "charlie",
		"Slidedat.ini": "ini",
	})

	running := sha256.New()
	for _, content := range []string{"ini", "alpha", "bravo", "charlie"} {
		sum := sha256.Sum256([]byte(content))
		running.Write(sum[:])
	}
	primarySum := sha256.Sum256([]byte("descriptor"))
	running.Write(primarySum[:])
	want := base64.URLEncoding.EncodeToString(running.Sum(nil))

	s := scan.New(primary, nil)
	if !s.IsComposite() {
		t.Fatal("expected .mrxs to be composite")
	}
	if s.CompositeDir() != filepath.Join(dir, "slide") {
		t.Fatalf("composite dir = %q", s.CompositeDir())
	}
	if err := s.Hash(); err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if s.ContentHash != want {
		t.Fatalf("composite hash = %q, want %q", s.ContentHash, want)
	}
}

func TestCompositeHashIndependentOfCreationOrder(t *testing.T) {
	payload := []struct{ rel, content string }{
		{"z.dat", "zulu"},
		{"a.dat", "alpha"},
		{"m/n.dat", "november"},
		{"m/b.dat", "bravo"},
	}

	build := func(order []int) string {
		dir := t.TempDir()
		testsupport.WriteScan(t, filepath.Join(dir, "s.mrxs"), "desc")
		for _, i := range order {
			testsupport.WriteScan(t, filepath.Join(dir, "s", filepath.FromSlash(payload[i].rel)), payload[i].content)
		}
		h, err := scan.CompositeHash(filepath.Join(dir, "s.mrxs"), filepath.Join(dir, "s"))
		if err != nil {
			t.Fatalf("CompositeHash: %v", err)
		}
		return h
	}

	first := build([]int{0, 1, 2, 3})
	second := build([]int{3, 2, 1, 0})
	third := build([]int{2, 0, 3, 1})
	if first != second || first != third {
		t.Fatalf("hash depends on creation order: %s %s %s", first, second, third)
	}
}

func TestCompositeWithoutPayloadIsUnhashable(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteScan(t, filepath.Join(dir, "lonely.mrxs"), "desc")

	s := scan.New(path, nil)
	err := s.Hash()
	if !errors.Is(err, scan.ErrUnhashable) {
		t.Fatalf("got %v, want ErrUnhashable", err)
	}
	if s.ContentHash != "" || s.Has(scan.Hashed) {
		t.Fatal("unhashable scan must not carry a hash")
	}
	testsupport.AssertExists(t, path)
}

func TestComputeHashRequiresValidation(t *testing.T) {
	path := testsupport.WriteScan(t, filepath.Join(t.TempDir(), "a.svs"), "X")
	s := scan.New(path, nil)
	if _, err := s.ComputeHash(); !errors.Is(err, scan.ErrInvalidTransition) {
		t.Fatalf("got %v, want ErrInvalidTransition", err)
	}
}

func TestHashAllCollectsFailuresByPath(t *testing.T) {
	dir := t.TempDir()
	var scans []*scan.Scan
	for _, name := range []string{"a.svs", "b.svs", "c.svs", "d.svs", "e.svs"} {
		scans = append(scans, scan.New(testsupport.WriteScan(t, filepath.Join(dir, name), name), nil))
	}
	bad := scan.New(testsupport.WriteScan(t, filepath.Join(dir, "broken.mrxs"), "desc"), nil)
	invalid := scan.New(testsupport.WriteScan(t, filepath.Join(dir, "notes.txt"), "n"), nil)
	scans = append(scans, bad, invalid)

	failures, err := scan.HashAll(context.Background(), scans, 3)
	if err != nil {
		t.Fatalf("HashAll: %v", err)
	}
	if len(failures) != 2 {
		t.Fatalf("failures = %v, want 2 entries", failures)
	}
	if !errors.Is(failures[bad.Path], scan.ErrUnhashable) {
		t.Fatalf("broken composite error = %v", failures[bad.Path])
	}
	if !errors.Is(failures[invalid.Path], scan.ErrInvalidScan) {
		t.Fatalf("invalid scan error = %v", failures[invalid.Path])
	}
	for _, s := range scans[:5] {
		if !s.Has(scan.Hashed) || s.ContentHash == "" {
			t.Fatalf("%s not hashed", s.Path)
		}
	}
}

func TestHashAllHonoursCancellation(t *testing.T) {
	path := testsupport.WriteScan(t, filepath.Join(t.TempDir(), "a.svs"), "X")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := scan.HashAll(ctx, []*scan.Scan{scan.New(path, nil)}, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestSizeIncludesPayload(t *testing.T) {
	dir := t.TempDir()
	primary := testsupport.WriteComposite(t, dir, "s", "1234", map[string]string{"a": "12", "b/c": "123"})
	size, err := scan.New(primary, nil).Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 9 {
		t.Fatalf("size = %d, want 9", size)
	}
}
