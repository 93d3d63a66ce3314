package redis

import "errors"

// Domain-specific Redis errors. Use errors.Is to classify failures.
var (
	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("redis did not become ready within the given time period")
	ErrEmptyConnectionURL           = errors.New("empty redis connection URL")
	ErrHealthcheckFailed            = errors.New("redis healthcheck failed")
	ErrDocumentNotFound             = errors.New("constraint document not found in redis")
	ErrEmptyDocumentName            = errors.New("constraint document name is empty")
)
