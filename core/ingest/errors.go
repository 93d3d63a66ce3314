package ingest

import "errors"

var (
	// ErrListFailed wraps a failure to list the source; the cycle did not run.
	ErrListFailed = errors.New("ingest: list documents failed")
	// ErrFetchFailed wraps a failure to read one document.
	ErrFetchFailed = errors.New("ingest: fetch document failed")
	// ErrPublishFailed wraps a registry rejection.
	ErrPublishFailed = errors.New("ingest: publish failed")
)
