package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/moodjournal/internal/common"
	"golang.org/x/crypto/hkdf"
)

// wrapVersion prefixes every wrapped key. It is also bound into the GCM
// additional data, so a blob cannot be replayed under a different version.
const wrapVersion byte = 1

var wrapInfo = []byte("moodjournal/user-key-wrap/v1")

// ErrEmptySecret is returned when the server wrapping secret is not set.
var ErrEmptySecret = errors.New("empty wrapping secret")

// GenerateKey returns a fresh 256-bit key read from crypto/rand.
func GenerateKey() ([]byte, error) {
	key := make([]byte, common.SymmetricKeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return key, nil
}

// deriveKEK stretches the server secret into a 256-bit key-encryption key
// with HKDF-SHA256.
func deriveKEK(secret []byte) ([]byte, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	kek := make([]byte, common.SymmetricKeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, wrapInfo), kek); err != nil {
		return nil, err
	}
	return kek, nil
}

// WrapKey encrypts a user key under the server secret for storage.
//
// Layout: version(1) || nonce(12) || ciphertext || tag(16). The nonce is
// random per call; the same secret protects every user's key.
func WrapKey(key, secret []byte) ([]byte, error) {
	if len(key) != common.SymmetricKeySize {
		return nil, fmt.Errorf("wrap key: %w", common.ErrInvalidKeySize)
	}

	kek, err := deriveKEK(secret)
	if err != nil {
		return nil, fmt.Errorf("wrap key: %w", err)
	}
	defer common.WipeByteArray(kek)

	sealed, err := seal(kek, key, []byte{wrapVersion})
	if err != nil {
		return nil, fmt.Errorf("wrap key: %w", err)
	}

	return append([]byte{wrapVersion}, sealed...), nil
}

// UnwrapKey reverses WrapKey. A changed secret, a corrupted or truncated blob
// and an unknown version all yield an error matching common.ErrKeyUnwrap.
func UnwrapKey(wrapped, secret []byte) ([]byte, error) {
	if len(wrapped) == 0 {
		return nil, fmt.Errorf("%w: empty blob", common.ErrKeyUnwrap)
	}
	if wrapped[0] != wrapVersion {
		return nil, fmt.Errorf("%w: unknown version %d", common.ErrKeyUnwrap, wrapped[0])
	}

	kek, err := deriveKEK(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrKeyUnwrap, err)
	}
	defer common.WipeByteArray(kek)

	key, err := open(kek, wrapped[1:], []byte{wrapVersion})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrKeyUnwrap, err)
	}
	if len(key) != common.SymmetricKeySize {
		common.WipeByteArray(key)
		return nil, fmt.Errorf("%w: unexpected key length", common.ErrKeyUnwrap)
	}

	return key, nil
}
