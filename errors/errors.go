// Package errors provides centralized error definitions for basicfit.
package errors

import "errors"

// Session errors.
var (
	// ErrInvalidCredentials indicates the credential gate rejected the input.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotAuthenticated indicates no session is currently stored.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Connectivity errors.
var (
	// ErrUnreachable indicates the request never produced an HTTP response
	// (DNS failure, refused connection, timeout, TLS error).
	ErrUnreachable = errors.New("server unreachable")

	// ErrUnexpectedStatus indicates the server answered with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// Store errors.
var (
	// ErrStoreNotRegistered indicates the requested store type is not registered.
	ErrStoreNotRegistered = errors.New("store type not registered")

	// ErrStoreConfigInvalid indicates the store configuration is invalid.
	ErrStoreConfigInvalid = errors.New("invalid store configuration")

	// ErrStoreClosed indicates the store was used after Close.
	ErrStoreClosed = errors.New("store closed")

	// ErrCorruptRecord indicates persisted data could not be decoded.
	ErrCorruptRecord = errors.New("corrupt record")
)
