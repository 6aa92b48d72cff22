package domain

import "errors"

// ErrUnauthorized is returned by the API adapter when the backend responds with HTTP 401.
// Callers can check for it using errors.Is to trigger token refresh or re-login.
var ErrUnauthorized = errors.New("unauthorized")

// ErrTimeout is wrapped by any request that exceeded the fixed request timeout.
var ErrTimeout = errors.New("request timeout")

// ErrNotFound is returned when the backend responds with HTTP 404.
var ErrNotFound = errors.New("not found")
