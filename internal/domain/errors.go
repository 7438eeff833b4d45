package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation failed")
	ErrNotCompleted   = errors.New("generation not completed")
	ErrUploadRejected = errors.New("upload rejected")
	ErrStateViolation = errors.New("job already finalized")
)
