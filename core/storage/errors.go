package storage

import "errors"

var (
	ErrFileNotFound       = errors.New("file not found")
	ErrInvalidPath        = errors.New("invalid path")
	ErrInvalidConfig      = errors.New("invalid storage configuration")
	ErrAccessDenied       = errors.New("access denied")
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrOperationTimeout   = errors.New("storage operation timed out")
	ErrOperationCanceled  = errors.New("storage operation canceled")
	ErrServiceUnavailable = errors.New("storage service unavailable")
	ErrInvalidObjectState = errors.New("object is not readable in its current state")
	ErrIsDirectory        = errors.New("path is a directory")
)
