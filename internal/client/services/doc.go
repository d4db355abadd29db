// Package services holds the client's application logic: account and
// session handling (AuthService) and the encrypted journal (JournalService).
// Plaintext and keys never leave this process.
package services
