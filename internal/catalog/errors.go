package catalog

import "errors"

var (
	// ErrPrecondition marks a scan handed to the catalog in the wrong
	// lifecycle state. It is fatal for that scan, not a skip.
	ErrPrecondition = errors.New("catalog precondition violated")
	// ErrNotHashed means a scan without a content hash reached a write.
	ErrNotHashed = errors.New("scan is not hashed")
	// ErrNotStored means a storage write was attempted before the scan was
	// moved to its final location.
	ErrNotStored = errors.New("scan is not in the content store")
)
