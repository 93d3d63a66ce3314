package s3

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Domain errors. Use errors.Is to classify failures for retry decisions.
var (
	ErrInvalidConfig  = errors.New("s3: bucket and region are required")
	ErrInvalidKey     = errors.New("s3: invalid object key")
	ErrNotFound       = errors.New("s3: object not found")
	ErrBucketNotFound = errors.New("s3: bucket not found")
	ErrAccessDenied   = errors.New("s3: access denied")
	ErrTimeout        = errors.New("s3: operation timed out")
	ErrCanceled       = errors.New("s3: operation canceled")
	ErrUnavailable    = errors.New("s3: service unavailable")
	ErrTooLarge       = errors.New("s3: object exceeds size limit")
)

// classifyError converts SDK errors to the domain errors above.
func classifyError(err error, operation string) error {
	if err == nil {
		return nil
	}

	// Context errors first so cancellation is never reported as a remote failure.
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrTimeout, operation)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s", ErrCanceled, operation)
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return fmt.Errorf("%w: %s: %w", ErrNotFound, operation, err)
	}
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return fmt.Errorf("%w: %s", ErrBucketNotFound, operation)
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return fmt.Errorf("%w: %s", ErrNotFound, operation)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch code := apiErr.ErrorCode(); code {
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %s", ErrAccessDenied, operation)
		case "RequestTimeout":
			return fmt.Errorf("%w: %s", ErrTimeout, operation)
		case "SlowDown", "ServiceUnavailable", "InternalError":
			return fmt.Errorf("%w: %s", ErrUnavailable, operation)
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %s: %w", ErrNotFound, operation, err)
		case "NoSuchBucket":
			return fmt.Errorf("%w: %s", ErrBucketNotFound, operation)
		default:
			return fmt.Errorf("s3: %s failed (code: %s): %w", operation, code, err)
		}
	}

	return fmt.Errorf("s3: %s failed: %w", operation, err)
}
