// Package catalog persists where scans came from and where their content
// lives, in an embedded SQLite database.
//
// Two tables make up the catalog. ingress records provenance: one row per
// (hash, filepath, filename) event, so the same content arriving from several
// staging locations leaves several rows. storage records the canonical
// location: exactly one row per content hash, always pointing inside the
// content store.
//
// A Store is an explicit handle with Open/Close; there is no package-level
// connection, so tests can run isolated catalogs in parallel. All access goes
// through a single serialized connection. Multi-statement work runs inside
// WithTx, which commits only when the callback returns nil.
package catalog
