// Package services contains the server-side business logic behind the REST
// API: account registration and login, ciphertext journal storage and
// archive export. Services never see journal plaintext.
package services
