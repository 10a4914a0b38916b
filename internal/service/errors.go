package service

import "errors"

var (
	// ErrAdminRequired is returned when a non-admin invokes an admin operation.
	ErrAdminRequired = errors.New("administrator access required")
	// ErrPageNotFound is returned for a log page past the last one.
	ErrPageNotFound = errors.New("page not found")
)
