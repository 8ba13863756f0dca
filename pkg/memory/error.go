package memory

import "errors"

// ErrNotConfigured is returned when memory operations are attempted
// before a backend has been configured.
var ErrNotConfigured = errors.New("memory backend not configured")

// ErrUserNotFound is returned by backends when a user lookup misses.
var ErrUserNotFound = errors.New("user not found")

// ErrSessionNotFound is returned when an operation names an unknown session.
var ErrSessionNotFound = errors.New("session not found")
