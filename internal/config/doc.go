// Package config loads, normalizes, and validates bellastore configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// BELLASTORE_ROOT. The Config type centralizes the store root, staging
// directory, catalog filename, and the hashing, backup, and logging knobs so
// the CLI resolves every location in one pass.
//
// Derived locations (storage, backup, catalog, lock) are exposed as methods
// rather than stored fields so they can never drift from the root.
package config
