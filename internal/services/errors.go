package services

import "errors"

var (
	// ErrNotFound covers the missing-product case. The engine also maps
	// "zero rows affected" on update to this error, so a no-op resubmission
	// of identical data reports not-found as well.
	ErrNotFound = errors.New("record not found")

	ErrInvalidCategory = errors.New("invalid category id")
)
