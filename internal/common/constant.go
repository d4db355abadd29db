package common

const (
	// AuthorizationHeaderName carries the session credential as "Bearer <token>".
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix is the scheme prefix of AuthorizationHeaderName values.
	BearerPrefix = "Bearer "

	// SymmetricKeySize is the size of a user's journal key in bytes (AES-256).
	SymmetricKeySize = 32
)
