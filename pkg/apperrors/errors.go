package apperrors

import "errors"

var (
	ErrLogNotFound     = errors.New("log file not found")
	ErrNoMatches       = errors.New("no slow query records found")
	ErrUnknownFormat   = errors.New("unknown log format")
	ErrMalformedRecord = errors.New("malformed log record")
	ErrCollaborator    = errors.New("collaborator failed")
)
