package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrServerOffline indicates the book platform is unreachable
	ErrServerOffline = errors.New("book server is unreachable")

	// ErrAuthFailed indicates the bearer token or credentials were rejected
	ErrAuthFailed = errors.New("authentication token is invalid")

	// ErrUnexpectedStatus indicates a non-2xx response from the platform
	ErrUnexpectedStatus = errors.New("unexpected status code")

	// ErrUnknownStrategy indicates a strategy outside the fixed enumeration
	ErrUnknownStrategy = errors.New("unknown recommendation strategy")
)
