package mongo

import "errors"

var (
	ErrEmptyConnectionURL     = errors.New("empty mongodb connection URL")
	ErrFailedToConnectToMongo = errors.New("failed to connect to mongo")
	ErrHealthcheckFailed      = errors.New("mongo healthcheck failed")
	ErrDocumentNotFound       = errors.New("constraint document not found in mongo")
	ErrEmptyDocumentName      = errors.New("constraint document name is empty")
)
