// Package common defines shared constants, sentinel errors and small helpers
// used across client and server layers of moodjournal. Callers should use
// errors.Is to match the error values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrorValidation    = errors.New("validation error")
	ErrorNotConfigured = errors.New("not configured")
	ErrorRateLimited   = errors.New("rate limited")

	// Session credential errors. Kept distinct for logging only; the HTTP
	// layer never tells the caller which one happened.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Crypto errors.
	ErrKeyUnwrap          = errors.New("key unwrap failed")
	ErrAuthTagMismatch    = errors.New("authentication tag mismatch")
	ErrBadPadding         = errors.New("bad padding")
	ErrCiphertextTooShort = errors.New("ciphertext too short")
	ErrInvalidKeySize     = errors.New("invalid key size")
)

// ErrMalformedPlaintext is returned when decrypted bytes are not valid UTF-8
// text where text was expected (legacy mode cannot detect a wrong key any
// other way).
var ErrMalformedPlaintext = errors.New("malformed plaintext")
