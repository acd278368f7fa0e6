// Package ingest moves scans from staging into the content store and records
// them in the catalog.
//
// For each scan the Orchestrator hashes the content, then decides its
// disposition:
//
//   - the exact (hash, path, filename) event was seen before and the content
//     is stored: the staging copy is deleted;
//   - the content is stored under another provenance: a new ingress row is
//     recorded and the staging copy is deleted;
//   - the content is new: an ingress row is recorded, the scan is moved to
//     <store>/<hash>/, and a storage row is recorded.
//
// The move and the storage write are not atomic together. A crash between
// them leaves content on disk that the catalog does not know about; the
// reconcile package's discovery pass is the repair path. A staging file is
// never deleted until its content is known to be cataloged.
//
// Hashing runs on a bounded worker pool; moves and catalog writes are
// sequential.
package ingest
