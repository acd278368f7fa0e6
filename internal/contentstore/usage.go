package contentstore

import (
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/disiqueira/gotree/v3"
)

// Usage summarizes the store contents.
type Usage struct {
	Directories int
	Files       int
	Bytes       int64
}

// Usage walks the store and totals directories, files, and bytes held
// inside hash directories.
func (s *Store) Usage() (Usage, error) {
	dirs, err := s.Directories()
	if err != nil {
		return Usage{}, err
	}
	u := Usage{Directories: len(dirs)}
	for _, name := range dirs {
		err := filepath.WalkDir(filepath.Join(s.root, name), func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.Type().IsRegular() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			u.Files++
			u.Bytes += info.Size()
			return nil
		})
		if err != nil {
			return Usage{}, err
		}
	}
	return u, nil
}

// Tree renders the store layout. Composite payload directories are shown
// with their file count rather than every payload file.
func (s *Store) Tree() (string, error) {
	root := gotree.New(s.root)
	dirs, err := s.Directories()
	if err != nil {
		return "", err
	}
	for _, name := range dirs {
		node := root.Add(name)
		entries, err := os.ReadDir(filepath.Join(s.root, name))
		if err != nil {
			return "", err
		}
		for _, e := range entries {
			if !e.IsDir() {
				node.Add(e.Name())
				continue
			}
			n, err := countFiles(filepath.Join(s.root, name, e.Name()))
			if err != nil {
				return "", err
			}
			node.Add(e.Name() + "/ (" + pluralFiles(n) + ")")
		}
	}
	return root.Print(), nil
}

func countFiles(dir string) (int, error) {
	n := 0
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			n++
		}
		return nil
	})
	return n, err
}

func pluralFiles(n int) string {
	if n == 1 {
		return "1 file"
	}
	return strconv.Itoa(n) + " files"
}
