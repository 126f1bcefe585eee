package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrAlreadyExists       = errors.New("entity already exists")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrBanned              = errors.New("user is banned")
	ErrQuotaExceeded       = errors.New("upload quota exceeded")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileNotFound        = errors.New("stored file not found")
	ErrSelfReferral        = errors.New("referee equals referrer")
	ErrInvalidExecContext  = errors.New("invalid execution context")
)
