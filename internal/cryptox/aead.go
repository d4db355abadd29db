// Package cryptox holds the cryptographic primitives of moodjournal: the
// per-user symmetric key, its wrapping under the server secret, and the
// entry cipher the client uses for journal text and sentiment vectors.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/dmitrijs2005/moodjournal/internal/common"
)

// NonceSize is the AES-GCM nonce length used everywhere in this package.
const NonceSize = 12

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != common.SymmetricKeySize {
		return nil, fmt.Errorf("%w: got %d bytes", common.ErrInvalidKeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, NonceSize)
}

// seal encrypts plaintext with AES-256-GCM under a fresh random nonce and
// returns nonce||ciphertext||tag.
func seal(key, plaintext, additionalData []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize, NonceSize+len(plaintext)+aesgcm.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}

	return aesgcm.Seal(nonce, nonce, plaintext, additionalData), nil
}

// open reverses seal. Any authentication failure is reported as
// common.ErrAuthTagMismatch.
func open(key, data, additionalData []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(data) < NonceSize+aesgcm.Overhead() {
		return nil, common.ErrCiphertextTooShort
	}

	nonce, ciphertext := data[:NonceSize], data[NonceSize:]
	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, common.ErrAuthTagMismatch
	}
	return plaintext, nil
}
