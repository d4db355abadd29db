// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered account. WrappedKey is the user's journal key sealed
// under the server key-wrapping secret; it is never stored unwrapped.
type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
	WrappedKey   []byte
	CreatedAt    time.Time
}
