// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and the central error handler to distinguish between
// different failure scenarios without inspecting driver error strings.
package repository

import "errors"

// ErrNotFound is returned when a requested record does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("record not found")

// ErrPhoneExists is returned when registration collides with an
// existing phone number. Translates to HTTP 409.
var ErrPhoneExists = errors.New("phone number already registered")

// ErrAdminExists is returned when a user already holds an admin grant
// and a second grant is attempted. Translates to HTTP 409.
var ErrAdminExists = errors.New("admin grant already exists")
