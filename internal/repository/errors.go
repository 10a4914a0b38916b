// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as the
// service and handler packages to tell a missing row or a uniqueness
// conflict apart from a failing database.
package repository

import "errors"

// ErrCustomerNotFound is returned when no customer has the requested id.
// Handlers translate it into an HTTP 404 response.
var ErrCustomerNotFound = errors.New("customer not found")

// ErrUserNotFound is returned when no user has the requested id.
var ErrUserNotFound = errors.New("user not found")

// ErrSetTopBoxExists is returned when a customer insert collides with the
// unique set_top_box_number constraint.
var ErrSetTopBoxExists = errors.New("set-top box number already exists")

// ErrUsernameExists is returned when a user insert collides with the
// unique username constraint.
var ErrUsernameExists = errors.New("username already exists")
