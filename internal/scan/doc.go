// Package scan models one slide scan as it moves through ingestion.
//
// A Scan is an ephemeral value: it is created when a path is discovered in
// staging (or inside the content store during reconciliation), mutated as it
// is hashed and moved, and dropped once its catalog row is committed. Progress
// is tracked by a Lifecycle whose states form a strict total order, so a scan
// can never be recorded as stored without first having been hashed.
//
// Content hashes are SHA-256 digests encoded with URL-safe base64. Composite
// formats (a primary .mrxs file plus a same-named sibling directory of payload
// files) hash as one unit in an order that does not depend on directory
// enumeration.
package scan
