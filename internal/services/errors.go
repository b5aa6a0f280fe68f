package services

import "errors"

var (
	// ErrValidation marks a submission that is missing a required field.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when no record has the given id.
	ErrNotFound = errors.New("book not found")
	// ErrDeleteDisabled is returned by DeleteGroup under the archive-only policy.
	ErrDeleteDisabled = errors.New("group delete disabled by removal policy")
)
