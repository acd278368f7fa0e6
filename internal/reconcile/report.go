package reconcile

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIntegrity marks a failed integrity check.
	ErrIntegrity = errors.New("content store integrity check failed")
	// ErrMissingContent marks catalog rows whose content directory is gone.
	ErrMissingContent = errors.New("catalog references missing content")
	// ErrHashMismatch marks content whose hash differs from its directory name.
	ErrHashMismatch = errors.New("content hash does not match directory")
)

// Kind classifies a violation.
type Kind string

const (
	// KindScanCount: a directory holds zero or several scan files.
	KindScanCount Kind = "scan_count"
	// KindUnhashable: the directory's scan could not be hashed.
	KindUnhashable Kind = "unhashable"
	// KindHashMismatch: the recomputed hash differs from the directory name
	// and repair was not requested.
	KindHashMismatch Kind = "hash_mismatch"
	// KindRenameConflict: repair was requested but the target name exists.
	KindRenameConflict Kind = "rename_conflict"
	// KindNotInCatalog: content on disk without a storage row.
	KindNotInCatalog Kind = "not_in_catalog"
	// KindMissingContent: a storage row without a directory.
	KindMissingContent Kind = "missing_content"
	// KindStalePath: a storage row whose filepath is not where the scan is.
	KindStalePath Kind = "stale_path"
)

// Violation is one integrity finding.
type Violation struct {
	Kind Kind
	// Dir is the store directory name involved, if any.
	Dir string
	// Hash is the recomputed or cataloged hash involved, if any.
	Hash   string
	Detail string
}

func (v Violation) String() string {
	var b strings.Builder
	b.WriteString(string(v.Kind))
	if v.Dir != "" {
		b.WriteString(" dir=")
		b.WriteString(v.Dir)
	}
	if v.Hash != "" && v.Hash != v.Dir {
		b.WriteString(" hash=")
		b.WriteString(v.Hash)
	}
	if v.Detail != "" {
		b.WriteString(": ")
		b.WriteString(v.Detail)
	}
	return b.String()
}

// Rename records one self-healing directory rename.
type Rename struct {
	From string
	To   string
}

// Report is the result of CheckIntegrity.
type Report struct {
	// Directories is the number of store directories inspected.
	Directories int
	Renamed     []Rename
	Violations  []Violation
}

// Passed reports whether no violations were found. Renames alone do not fail
// a check.
func (r Report) Passed() bool {
	return len(r.Violations) == 0
}

// Count returns the number of violations of kind k.
func (r Report) Count(k Kind) int {
	n := 0
	for _, v := range r.Violations {
		if v.Kind == k {
			n++
		}
	}
	return n
}

// IntegrityError carries the violations that made a check fail.
type IntegrityError struct {
	Violations []Violation
}

func (e *IntegrityError) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("%s: %s", ErrIntegrity, e.Violations[0])
	}
	return fmt.Sprintf("%s: %d violations (first: %s)", ErrIntegrity, len(e.Violations), e.Violations[0])
}

// Unwrap exposes ErrIntegrity plus the sentinel of each violation kind that
// has one, so errors.Is can classify the failure.
func (e *IntegrityError) Unwrap() []error {
	errs := []error{ErrIntegrity}
	if e.has(KindHashMismatch) {
		errs = append(errs, ErrHashMismatch)
	}
	if e.has(KindMissingContent) {
		errs = append(errs, ErrMissingContent)
	}
	return errs
}

func (e *IntegrityError) has(k Kind) bool {
	for _, v := range e.Violations {
		if v.Kind == k {
			return true
		}
	}
	return false
}
