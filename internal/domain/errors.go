package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrNoResult      = errors.New("no result returned")
	ErrMissingResult = errors.New("job finished without a result")
	ErrUpstream      = errors.New("upstream failure")
	ErrFetch         = errors.New("media download failed")
	ErrRead          = errors.New("file read failed")
	ErrBusy          = errors.New("generation already in progress")
)
