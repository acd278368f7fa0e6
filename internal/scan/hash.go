package scan

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

const hashChunkSize = 64 << 10

// ErrUnhashable marks a scan whose content cannot be digested, such as a
// composite scan without its payload directory. Callers must leave such files
// where they are.
var ErrUnhashable = errors.New("scan is not hashable")

// EncodeDigest renders raw digest bytes in the printable form used for
// directory names and catalog keys.
func EncodeDigest(sum []byte) string {
	return base64.URLEncoding.EncodeToString(sum)
}

// fileDigest streams path through SHA-256 in fixed-size chunks.
func fileDigest(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrUnhashable, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return h.Sum(nil), nil
}

// FileHash returns the encoded digest of a single file.
func FileHash(path string) (string, error) {
	sum, err := fileDigest(path)
	if err != nil {
		return "", err
	}
	return EncodeDigest(sum), nil
}

// CompositeHash digests a composite scan. Every regular file under
// payloadDir is digested on its own and the digests are folded into a running
// SHA-256 in order of slash-separated relative path; the primary file digest
// is folded in last.
func CompositeHash(primary, payloadDir string) (string, error) {
	info, err := os.Stat(payloadDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: payload directory %s missing", ErrUnhashable, payloadDir)
		}
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrUnhashable, payloadDir)
	}

	files, err := payloadFiles(payloadDir)
	if err != nil {
		return "", err
	}

	running := sha256.New()
	for _, rel := range files {
		sum, err := fileDigest(filepath.Join(payloadDir, filepath.FromSlash(rel)))
		if err != nil {
			return "", err
		}
		running.Write(sum)
	}
	sum, err := fileDigest(primary)
	if err != nil {
		return "", err
	}
	running.Write(sum)
	return EncodeDigest(running.Sum(nil)), nil
}

// payloadFiles lists regular files below dir as sorted slash paths.
func payloadFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk payload directory: %w", err)
	}
	slices.Sort(files)
	return files, nil
}
