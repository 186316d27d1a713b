package errors

// ErrorCode represents a standardized way to categorize different types of errors.
type ErrorCode string

// Base error codes represent the fundamental categories of failures that can
// occur across any software system. These codes provide the foundation layer
// of error classification.
const (
	// ErrorCodeIO represents failures in input/output operations across any
	// system boundary: reading or writing the store file, the auxiliary index
	// file, or the advisory lock file.
	ErrorCodeIO ErrorCode = "IO_ERROR"

	// ErrorCodeInvalidInput represents client-side errors where the provided
	// data doesn't meet the system's requirements or constraints.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrorCodeInternal represents unexpected system failures that don't fit
	// into other categories: bugs, assertion failures, or invariant violations
	// that should never occur during normal operation.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Store-specific error codes cover the lifecycle failures a file-backed
// bucketed hash store can hit while opening, growing, or closing its file.
// Names and meaning follow the error conditions a store implementation
// commits to surfacing to callers.
const (
	// ErrorCodeInvalidFlag indicates an open flag outside {r, w, c, n}.
	ErrorCodeInvalidFlag ErrorCode = "INVALID_FLAG"

	// ErrorCodeFileNotFound indicates flag "r" or "w" was used against a
	// path that does not exist.
	ErrorCodeFileNotFound ErrorCode = "FILE_NOT_FOUND"

	// ErrorCodeWrongFileType indicates the file's magic identifier does not
	// match the expected variable/fixed store type.
	ErrorCodeWrongFileType ErrorCode = "WRONG_FILE_TYPE"

	// ErrorCodeVersionTooOld indicates the file's on-disk format version
	// predates what this build can read.
	ErrorCodeVersionTooOld ErrorCode = "VERSION_TOO_OLD"

	// ErrorCodeCorruptIndex indicates the header's data_end_pos field is
	// smaller than the header itself, meaning the index region was never
	// finalized by a previous session.
	ErrorCodeCorruptIndex ErrorCode = "CORRUPT_INDEX"

	// ErrorCodeReadOnly indicates a mutating operation was attempted against
	// a store opened with flag "r".
	ErrorCodeReadOnly ErrorCode = "READ_ONLY"

	// ErrorCodeKeyNotFound indicates a lookup, delete, or update targeted a
	// key absent from the store.
	ErrorCodeKeyNotFound ErrorCode = "KEY_NOT_FOUND"

	// ErrorCodeSerializerMissing indicates a numeric serializer code on disk
	// has no corresponding registration in the running process.
	ErrorCodeSerializerMissing ErrorCode = "SERIALIZER_MISSING"

	// ErrorCodeSegmentCorrupted indicates a structural problem in the
	// append-only data log: a record whose length prefixes run past the
	// recorded data_end_pos, or a tombstone byte outside {0, 1}.
	ErrorCodeSegmentCorrupted ErrorCode = "SEGMENT_CORRUPTED"

	// ErrorCodeHeaderReadFailure occurs when the fixed-size header region
	// cannot be read in full.
	ErrorCodeHeaderReadFailure ErrorCode = "HEADER_READ_FAILURE"

	// ErrorCodePayloadReadFailure indicates the header was read successfully
	// but a key or value payload could not be read from the data log.
	ErrorCodePayloadReadFailure ErrorCode = "PAYLOAD_READ_FAILURE"

	// ErrorCodeRecoveryFailed indicates an attempt to prune or reindex a
	// store failed partway, leaving the store's in-memory state unreliable.
	ErrorCodeRecoveryFailed ErrorCode = "STORAGE_RECOVERY_FAILED"

	// ErrorCodePermissionDenied indicates insufficient permissions to open,
	// lock, or write the store file.
	ErrorCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// ErrorCodeDiskFull indicates the storage device has run out of space
	// while appending to the data log or growing the index region.
	ErrorCodeDiskFull ErrorCode = "DISK_FULL"

	// ErrorCodeFilesystemReadonly indicates the filesystem holding the store
	// file is mounted read-only.
	ErrorCodeFilesystemReadonly ErrorCode = "FILESYSTEM_READONLY"

	// ErrorCodeLocked indicates another process (or another open in this
	// process) already holds the advisory lock this open requires.
	ErrorCodeLocked ErrorCode = "LOCKED"
)

// Index-specific error codes address failures in the bucket index region:
// hash lookups, bucket table growth, and tombstone bookkeeping.
const (
	// ErrorCodeIndexKeyNotFound indicates a hash lookup walked its bucket's
	// probe chain without finding a matching, live entry.
	ErrorCodeIndexKeyNotFound ErrorCode = "INDEX_KEY_NOT_FOUND"

	// ErrorCodeIndexCorrupted indicates the bucket-offset table or a packed
	// entry region failed a structural invariant (misaligned entry, bucket
	// offset out of range).
	ErrorCodeIndexCorrupted ErrorCode = "INDEX_CORRUPTED"

	// ErrorCodeIndexBucketOverflow indicates a bucket's probe region could
	// not be extended in place during a batched index update.
	ErrorCodeIndexBucketOverflow ErrorCode = "INDEX_BUCKET_OVERFLOW"
)
