// Package reconcile compares the content store against the catalog.
//
// CheckIntegrity recomputes the hash of every store directory's scan and
// reports directories that hold zero or several scans, content that no
// longer matches its directory name, and (optionally) drift between the
// directories and the storage table. With repair enabled a directory whose
// name is stale is renamed to its recomputed hash, unless a directory with
// that name already exists.
//
// ExistingSlides finds content present in the store but absent from the
// catalog and returns it ready to be written. It never changes the
// filesystem and never writes the catalog itself.
package reconcile
