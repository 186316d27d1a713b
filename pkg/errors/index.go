package errors

// IndexError provides specialized error handling for bucket-index
// operations: hash lookups, bucket-offset table growth, and tombstone
// bookkeeping. It extends the base error system with index-specific
// context while properly supporting method chaining through all base
// error methods.
type IndexError struct {
	*baseError

	// Identifies which key was being processed when the error occurred.
	key string

	// Identifies which bucket of the hash table was involved.
	bucket uint32

	// Describes what index operation was being performed when the error
	// occurred (e.g. "Lookup", "Insert", "Reindex", "Prune").
	operation string

	// Captures the number of buckets the index had at the time of the
	// error, useful for diagnosing growth-related issues.
	bucketCount uint32
}

// NewIndexError creates a new index-specific error with the provided context.
func NewIndexError(err error, code ErrorCode, msg string) *IndexError {
	return &IndexError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message while maintaining the IndexError type.
func (ie *IndexError) WithMessage(msg string) *IndexError {
	ie.baseError.WithMessage(msg)
	return ie
}

// WithCode sets the error code while preserving the IndexError type.
func (ie *IndexError) WithCode(code ErrorCode) *IndexError {
	ie.baseError.WithCode(code)
	return ie
}

// WithDetail adds contextual information while maintaining the IndexError type.
func (ie *IndexError) WithDetail(key string, value any) *IndexError {
	ie.baseError.WithDetail(key, value)
	return ie
}

// WithKey records which key was being processed when the error occurred.
func (ie *IndexError) WithKey(key string) *IndexError {
	ie.key = key
	return ie
}

// WithBucket records which bucket was involved in the error.
func (ie *IndexError) WithBucket(bucket uint32) *IndexError {
	ie.bucket = bucket
	return ie
}

// WithOperation records what index operation was being performed.
func (ie *IndexError) WithOperation(operation string) *IndexError {
	ie.operation = operation
	return ie
}

// WithBucketCount captures how many buckets the index had when the error occurred.
func (ie *IndexError) WithBucketCount(count uint32) *IndexError {
	ie.bucketCount = count
	return ie
}

// Key returns the key that was being processed when the error occurred.
func (ie *IndexError) Key() string {
	return ie.key
}

// Bucket returns the bucket identifier associated with the error.
func (ie *IndexError) Bucket() uint32 {
	return ie.bucket
}

// Operation returns the name of the operation that was being performed.
func (ie *IndexError) Operation() string {
	return ie.operation
}

// BucketCount returns the number of buckets the index had at the time of the error.
func (ie *IndexError) BucketCount() uint32 {
	return ie.bucketCount
}

// NewKeyNotFoundError creates a specialized error for missing keys.
func NewKeyNotFoundError(key string, bucket uint32) *IndexError {
	return NewIndexError(nil, ErrorCodeIndexKeyNotFound, "key not found in index").
		WithKey(key).
		WithBucket(bucket).
		WithOperation("Lookup")
}

// NewIndexCorruptionError creates an error for structural index integrity issues.
func NewIndexCorruptionError(operation string, bucketCount uint32, cause error) *IndexError {
	return NewIndexError(cause, ErrorCodeIndexCorrupted, "bucket index structure corrupted").
		WithOperation(operation).
		WithBucketCount(bucketCount).
		WithDetail("recoveryRequired", true)
}

// NewBucketOverflowError creates an error for a bucket whose probe region
// could not be extended during a batched index update.
func NewBucketOverflowError(bucket uint32, operation string) *IndexError {
	return NewIndexError(nil, ErrorCodeIndexBucketOverflow, "bucket probe region could not be extended").
		WithBucket(bucket).
		WithOperation(operation)
}
