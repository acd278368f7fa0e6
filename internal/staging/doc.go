// Package staging enumerates candidate scans in the staging directory and
// prunes the empty directories ingestion leaves behind.
//
// Discovery is read-only and is what a dry run reports: the exact set of
// paths a real run would attempt to ingest.
package staging
