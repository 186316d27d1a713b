// This package addresses the fundamental challenge that generic error handling presents in complex
// systems: when an error occurs, developers and operators need much more than just "something went wrong."
// They need to understand exactly what failed, why it failed, where it failed, and most importantly,
// what they can do about it.
//
// The error system is built around a hierarchical structure that starts with a foundational baseError
// and extends into domain-specific error types: ValidationError for bad input, StoreError for file
// lifecycle failures (open, grow, sync, close), and IndexError for bucket-index failures (lookups,
// growth, tombstones). Each captures the context relevant to its domain while sharing error codes,
// chaining, and structured details through the embedded baseError.
package errors

import (
	stdErrors "errors"
	"os"
	"syscall"
)

// IsValidationError checks if the given error is a ValidationError or contains one in its error chain.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return stdErrors.As(err, &ve)
}

// IsStoreError determines if an error is related to the store file's lifecycle: opening,
// growing, syncing, or closing it.
func IsStoreError(err error) bool {
	var se *StoreError
	return stdErrors.As(err, &se)
}

// IsIndexError identifies errors that occurred during bucket index operations such as
// hash lookups, bucket growth, or tombstone bookkeeping.
func IsIndexError(err error) bool {
	var ie *IndexError
	return stdErrors.As(err, &ie)
}

// AsValidationError safely extracts a ValidationError from an error chain.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stdErrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// AsStoreError extracts StoreError context from an error chain, providing access to
// the file path, open flag, and byte offset involved.
func AsStoreError(err error) (*StoreError, bool) {
	var se *StoreError
	if stdErrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// AsIndexError extracts IndexError context from an error chain, providing access to
// the key, bucket, and operation involved.
func AsIndexError(err error) (*IndexError, bool) {
	var ie *IndexError
	if stdErrors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from any error that supports it, or returns
// ErrorCodeInternal for errors that don't have specific codes.
func GetErrorCode(err error) ErrorCode {
	if ve, ok := AsValidationError(err); ok {
		return ve.Code()
	}
	if se, ok := AsStoreError(err); ok {
		return se.Code()
	}
	if ie, ok := AsIndexError(err); ok {
		return ie.Code()
	}
	return ErrorCodeInternal
}

// GetErrorDetails extracts structured details from any error that supports them,
// returning an empty map for errors without details.
func GetErrorDetails(err error) map[string]any {
	if ve, ok := AsValidationError(err); ok {
		if details := ve.Details(); details != nil {
			return details
		}
	}
	if se, ok := AsStoreError(err); ok {
		if details := se.Details(); details != nil {
			return details
		}
	}
	if ie, ok := AsIndexError(err); ok {
		if details := ie.Details(); details != nil {
			return details
		}
	}
	return make(map[string]any)
}

// ClassifyFileOpenError analyzes failures opening the store, auxiliary index,
// or lock file and returns an error code specific enough to act on.
func ClassifyFileOpenError(err error, path string) error {
	if os.IsPermission(err) {
		return NewStoreError(err, ErrorCodePermissionDenied, "insufficient permissions to open store file").
			WithPath(path).
			WithDetail("suggestion", "check file permissions or run with elevated privileges")
	}

	if pathErr, ok := err.(*os.PathError); ok {
		if errno, ok := pathErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ENOSPC:
				return NewStoreError(err, ErrorCodeDiskFull, "insufficient disk space to create store file").
					WithPath(path).WithDetail("suggestion", "free up disk space or choose a different location")
			case syscall.EROFS:
				return NewStoreError(err, ErrorCodeFilesystemReadonly, "cannot open store file on read-only filesystem").
					WithPath(path).WithDetail("suggestion", "remount filesystem with write permissions")
			}
		}
	}

	return NewStoreError(err, ErrorCodeIO, "failed to open store file").WithPath(path)
}

// ClassifySyncError analyzes failures flushing the store, auxiliary index, or
// mmap region to disk.
func ClassifySyncError(err error, path string, offset int64) error {
	if pathErr, ok := err.(*os.PathError); ok {
		if errno, ok := pathErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ENOSPC:
				return NewStoreError(err, ErrorCodeDiskFull, "cannot sync store file: insufficient disk space").
					WithPath(path).WithOffset(offset).
					WithDetail("suggestion", "free up disk space before continuing")
			case syscall.EROFS:
				return NewStoreError(err, ErrorCodeFilesystemReadonly, "cannot sync store file: filesystem is read-only").
					WithPath(path).WithOffset(offset).
					WithDetail("suggestion", "remount filesystem with write permissions")
			case syscall.EIO:
				return NewStoreError(err, ErrorCodeIO, "I/O error during store file sync - possible hardware or corruption issue").
					WithPath(path).WithOffset(offset).
					WithDetail("severity", "high").
					WithDetail("suggestion", "check filesystem integrity and hardware health")
			}
		}
	}

	return NewStoreError(err, ErrorCodeIO, "failed to sync store file to disk").
		WithPath(path).WithOffset(offset)
}
