package scan

import (
	"path/filepath"
	"slices"

	"golang.org/x/text/cases"
)

// CompositeExtension marks the directory-backed format: a primary file plus a
// same-named sibling directory of payload files.
const CompositeExtension = ".mrxs"

// DefaultExtensions is the built-in scanner format allow-list.
var DefaultExtensions = []string{".ndpi", ".svs", ".tif", ".tiff", CompositeExtension}

// Formats is an extension allow-list matched case-insensitively.
type Formats struct {
	exts map[string]struct{}
}

// NewFormats builds an allow-list. Entries are case folded; an empty list
// falls back to DefaultExtensions.
func NewFormats(extensions []string) *Formats {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	f := &Formats{exts: make(map[string]struct{}, len(extensions))}
	for _, ext := range extensions {
		f.exts[foldExt(ext)] = struct{}{}
	}
	return f
}

// Extensions returns the allow-list in sorted order.
func (f *Formats) Extensions() []string {
	out := make([]string, 0, len(f.exts))
	for ext := range f.exts {
		out = append(out, ext)
	}
	slices.Sort(out)
	return out
}

// Match reports whether path carries an allowed extension.
func (f *Formats) Match(path string) bool {
	_, ok := f.exts[foldExt(filepath.Ext(path))]
	return ok
}

// FormatOf returns the case-folded extension of path.
func FormatOf(path string) string {
	return foldExt(filepath.Ext(path))
}

// cases.Caser is stateful, so each call builds its own.
func foldExt(ext string) string {
	return cases.Fold().String(ext)
}

var defaultFormats = NewFormats(nil)
