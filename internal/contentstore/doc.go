// Package contentstore manages the content-addressed directory tree under
// <root>/storage.
//
// Every immediate subdirectory is named by a content hash and holds exactly
// one logical scan: a single file, or a composite primary file together with
// its same-named payload directory. The package only moves and inspects
// files; the catalog is updated by callers once a move has completed.
package contentstore
