// Package apperr defines sentinel errors shared across packages.
package apperr

import "errors"

var (
	// ErrNotFound reports a lookup miss in the exported graph.
	ErrNotFound = errors.New("not found")
	// ErrFormat reports a dump record with the wrong number of fields.
	ErrFormat = errors.New("malformed record")
	// ErrConfig reports bad arguments or configuration, found before processing starts.
	ErrConfig = errors.New("invalid configuration")
)
