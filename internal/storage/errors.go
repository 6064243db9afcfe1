package storage

import "errors"

// Sentinel errors for the storage layer. Handlers match on these with
// errors.Is and map them to HTTP responses.
var (
	// ErrNotFound means the requested blob (or message) does not exist. A
	// blob that was downloaded and reclaimed is indistinguishable from one
	// that never existed; both surface as ErrNotFound on purpose.
	ErrNotFound = errors.New("not found")

	// ErrStorageUnavailable means the message document could not be read or
	// written back. The operation failed; the next one re-reads from disk.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrWriteFailed means the medium rejected a blob write (disk full,
	// permissions). An append carrying the blob fails as a whole so the log
	// never holds a dangling reference.
	ErrWriteFailed = errors.New("write failed")
)
