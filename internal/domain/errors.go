package domain

import "errors"

var (
	// ErrNotFound indicates resource not found
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidRequest indicates invalid request
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnsupportedFileType indicates an upload of a file type the system cannot extract
	ErrUnsupportedFileType = errors.New("unsupported file type")
)
