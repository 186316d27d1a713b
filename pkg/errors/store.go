package errors

// StoreError is a specialized error type for failures in the store's file
// lifecycle: opening, growing, syncing, and closing the backing file. It
// embeds baseError to inherit chaining and structured details, then adds
// the context needed to pin down exactly which file and open mode were
// involved.
type StoreError struct {
	*baseError
	path   string // Path of the store file involved.
	flag   string // Open flag in effect ("r", "w", "c", "n") when the error occurred.
	offset int64  // Byte offset within the file where the problem happened, if applicable.
}

// NewStoreError creates a new store-specific error.
func NewStoreError(err error, code ErrorCode, msg string) *StoreError {
	return &StoreError{baseError: NewBaseError(err, code, msg)}
}

// WithPath records which store file was being accessed.
func (se *StoreError) WithPath(path string) *StoreError {
	se.path = path
	return se
}

// WithFlag records the open flag in effect when the error occurred.
func (se *StoreError) WithFlag(flag string) *StoreError {
	se.flag = flag
	return se
}

// WithOffset records the byte position where the error occurred.
func (se *StoreError) WithOffset(offset int64) *StoreError {
	se.offset = offset
	return se
}

// WithMessage updates the error message while maintaining the StoreError type.
func (se *StoreError) WithMessage(msg string) *StoreError {
	se.baseError.WithMessage(msg)
	return se
}

// WithCode sets the error code while preserving the StoreError type.
func (se *StoreError) WithCode(code ErrorCode) *StoreError {
	se.baseError.WithCode(code)
	return se
}

// WithDetail adds contextual information while maintaining the StoreError type.
func (se *StoreError) WithDetail(key string, value any) *StoreError {
	se.baseError.WithDetail(key, value)
	return se
}

// Path returns the store file path involved in the error.
func (se *StoreError) Path() string {
	return se.path
}

// Flag returns the open flag that was in effect.
func (se *StoreError) Flag() string {
	return se.flag
}

// Offset returns the byte offset within the file where the error happened.
func (se *StoreError) Offset() int64 {
	return se.offset
}

// NewInvalidFlagError reports an open flag outside {r, w, c, n}.
func NewInvalidFlagError(path, flag string) *StoreError {
	return NewStoreError(nil, ErrorCodeInvalidFlag, "open flag must be one of r, w, c, n").
		WithPath(path).WithFlag(flag).WithDetail("allowed", []string{"r", "w", "c", "n"})
}

// NewFileNotFoundError reports flag "r" or "w" against a missing path.
func NewFileNotFoundError(path, flag string) *StoreError {
	return NewStoreError(nil, ErrorCodeFileNotFound, "store file does not exist").
		WithPath(path).WithFlag(flag)
}

// NewWrongFileTypeError reports a magic identifier mismatch.
func NewWrongFileTypeError(path string) *StoreError {
	return NewStoreError(nil, ErrorCodeWrongFileType, "file is not a recognized store of the requested value type").
		WithPath(path)
}

// NewVersionTooOldError reports an on-disk format version this build cannot read.
func NewVersionTooOldError(path string, onDisk, minSupported uint16) *StoreError {
	return NewStoreError(nil, ErrorCodeVersionTooOld, "store file format version is older than supported").
		WithPath(path).
		WithDetail("onDiskVersion", onDisk).
		WithDetail("minSupportedVersion", minSupported)
}

// NewCorruptIndexError reports a data_end_pos that precedes the header,
// meaning a previous session never finalized its index region.
func NewCorruptIndexError(path string, dataEndPos int64) *StoreError {
	return NewStoreError(nil, ErrorCodeCorruptIndex, "file has a corrupted index and will need to be rebuilt").
		WithPath(path).
		WithDetail("dataEndPos", dataEndPos)
}

// NewReadOnlyError reports a mutating call against a store opened with flag "r".
func NewReadOnlyError(operation string) *StoreError {
	return NewStoreError(nil, ErrorCodeReadOnly, "store is open read-only").
		WithDetail("operation", operation)
}

// NewSerializerMissingError reports a numeric serializer code on disk with
// no matching registration.
func NewSerializerMissingError(code uint16, kind string) *StoreError {
	return NewStoreError(nil, ErrorCodeSerializerMissing, "no serializer registered for code found in header").
		WithDetail("serializerCode", code).
		WithDetail("kind", kind)
}

// NewLockedError reports that the advisory lock for path is already held.
func NewLockedError(path string, exclusive bool) *StoreError {
	return NewStoreError(nil, ErrorCodeLocked, "store file is locked by another process").
		WithPath(path).
		WithDetail("exclusive", exclusive)
}
