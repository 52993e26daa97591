package bindelta

import "errors"

// Error kinds reported by the engine. Callers match them with
// errors.Is; every error returned by Diff, Apply and Recompress wraps
// exactly one of these.
var (
	// ErrConfig reports an invalid compression kind requested of Diff
	// or Recompress. It is raised before any work is performed.
	ErrConfig = errors.New("bindelta: invalid configuration")

	// ErrCodec reports compressed data that is not valid for its
	// claimed kind, or a decompressed length that does not match the
	// expected length.
	ErrCodec = errors.New("bindelta: codec failure")

	// ErrDiff reports an internal edit-script invariant violation.
	// It should not occur on well-formed inputs; seeing it means a
	// matcher or builder bug.
	ErrDiff = errors.New("bindelta: edit script invariant violated")

	// ErrPatch reports a malformed patch: bad magic, unsupported
	// format version, old-data size mismatch, exhausted or leftover
	// instruction streams, or a final output length that does not
	// match the header.
	ErrPatch = errors.New("bindelta: malformed patch")
)
