package models

import "time"

// Entry is one journal record. Both blobs are base64 ciphertext produced by
// the client and stored as received.
type Entry struct {
	ID              string
	UserID          string
	EncryptedText   string
	EncryptedVector string
	CreatedAt       time.Time
}
