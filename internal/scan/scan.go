package scan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidScan is returned when a path is not an allowed scanner format.
var ErrInvalidScan = errors.New("not a valid scan")

// Scan is one candidate or recorded slide.
type Scan struct {
	// Path is the current absolute location; it changes as the scan moves.
	Path string
	// Name is the base name without extension.
	Name string
	// Filename is the base name with extension.
	Filename string
	// ContentHash is empty until hashing succeeds.
	ContentHash string

	Lifecycle

	formats *Formats
}

// New wraps path in a Scan in state None. A nil formats uses the built-in
// allow-list.
func New(path string, formats *Formats) *Scan {
	if formats == nil {
		formats = defaultFormats
	}
	s := &Scan{formats: formats}
	s.setPath(path)
	return s
}

func (s *Scan) setPath(path string) {
	s.Path = path
	s.Filename = filepath.Base(path)
	s.Name = strings.TrimSuffix(s.Filename, filepath.Ext(s.Filename))
}

// Relocate records a physical move to path. The base name is retained.
func (s *Scan) Relocate(path string) {
	s.setPath(path)
}

// IsValid reports whether the scan's extension is allowed.
func (s *Scan) IsValid() bool {
	return s.formats.Match(s.Path)
}

// Format returns the case-folded extension.
func (s *Scan) Format() string {
	return FormatOf(s.Path)
}

// IsComposite reports whether the scan carries a sibling payload directory.
func (s *Scan) IsComposite() bool {
	return s.Format() == CompositeExtension
}

// CompositeDir returns the payload directory of a composite scan, or "" for
// single-file formats.
func (s *Scan) CompositeDir() string {
	if !s.IsComposite() {
		return ""
	}
	return filepath.Join(filepath.Dir(s.Path), s.Name)
}

// Validate advances None to Validated when the format is allowed.
func (s *Scan) Validate() error {
	if s.Has(Validated) {
		return nil
	}
	if !s.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidScan, s.Path)
	}
	return s.Advance()
}

// ComputeHash digests the scan's content and stores it in ContentHash. The
// scan must be validated. State is not changed, so it can be used to
// re-verify scans already past Hashed.
func (s *Scan) ComputeHash() (string, error) {
	if !s.Has(Validated) {
		return "", fmt.Errorf("%w: %s must be validated before hashing", ErrInvalidTransition, s.Path)
	}
	var (
		digest string
		err    error
	)
	if s.IsComposite() {
		digest, err = CompositeHash(s.Path, s.CompositeDir())
	} else {
		digest, err = FileHash(s.Path)
	}
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", s.Path, err)
	}
	s.ContentHash = digest
	return digest, nil
}

// Hash validates and digests the scan, advancing it to Hashed. Invalid or
// unhashable scans are left without a hash.
func (s *Scan) Hash() error {
	if err := s.Validate(); err != nil {
		return err
	}
	if _, err := s.ComputeHash(); err != nil {
		return err
	}
	if s.Has(Hashed) {
		return nil
	}
	return s.AdvanceTo(Hashed)
}

// Size returns the total bytes of the scan including composite payload.
func (s *Scan) Size() (int64, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return 0, err
	}
	total := info.Size()
	if dir := s.CompositeDir(); dir != "" {
		err := filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type().IsRegular() {
				fi, err := d.Info()
				if err != nil {
					return err
				}
				total += fi.Size()
			}
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}

// IsSkip reports whether err marks a scan the pipeline should pass over
// without treating it as a failure.
func IsSkip(err error) bool {
	return errors.Is(err, ErrInvalidScan) || errors.Is(err, ErrUnhashable)
}
