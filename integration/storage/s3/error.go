package s3

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/smithy-go"

	"github.com/dmitrymomot/testportal/core/storage"
)

// errorCodes maps S3 API error codes onto storage errors. The typed SDK
// errors (NoSuchKey, NotFound, NoSuchBucket) report the same codes.
var errorCodes = map[string]error{
	"NoSuchKey":          storage.ErrFileNotFound,
	"NotFound":           storage.ErrFileNotFound,
	"NoSuchBucket":       storage.ErrBucketNotFound,
	"AccessDenied":       storage.ErrAccessDenied,
	"Forbidden":          storage.ErrAccessDenied,
	"RequestTimeout":     storage.ErrOperationTimeout,
	"SlowDown":           storage.ErrServiceUnavailable,
	"ServiceUnavailable": storage.ErrServiceUnavailable,
	"InvalidObjectState": storage.ErrInvalidObjectState,
}

// translate wraps an SDK error from op so callers can match it with
// errors.Is against the storage package.
func translate(op, key string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("s3 %s %q: %w", op, key, storage.ErrOperationTimeout)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("s3 %s %q: %w", op, key, storage.ErrOperationCanceled)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if target, ok := errorCodes[apiErr.ErrorCode()]; ok {
			return fmt.Errorf("s3 %s %q: %w", op, key, target)
		}
	}
	return fmt.Errorf("s3 %s %q: %w", op, key, err)
}
