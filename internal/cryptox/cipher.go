package cryptox

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/dmitrijs2005/moodjournal/internal/common"
)

// Mode selects how EntryCipher encrypts.
type Mode int

const (
	// ModeGCM is AES-256-GCM with a random 12-byte nonce prefixed to the
	// ciphertext. Equal plaintexts produce different ciphertexts.
	ModeGCM Mode = iota

	// ModeLegacyECB reproduces the old browser client format: AES-256-ECB with
	// PKCS#7 padding and no IV. It is deterministic and leaks equality of
	// entries (a sentiment vector has only 16 possible shapes), and it does
	// not detect tampering. Only for reading or writing data that older
	// clients must still understand.
	ModeLegacyECB
)

func (m Mode) String() string {
	switch m {
	case ModeGCM:
		return "aes-256-gcm"
	case ModeLegacyECB:
		return "aes-256-ecb (legacy)"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// EntryCipher encrypts and decrypts journal blobs under a user's key.
// It keeps no key material; the key is passed to every call.
type EntryCipher struct {
	mode Mode
}

// NewEntryCipher returns a cipher working in the given mode.
func NewEntryCipher(mode Mode) *EntryCipher {
	return &EntryCipher{mode: mode}
}

// Mode reports the cipher's mode.
func (c *EntryCipher) Mode() Mode {
	return c.mode
}

// Encrypt encrypts plaintext under key. In ModeGCM the output is
// nonce||ciphertext||tag.
func (c *EntryCipher) Encrypt(plaintext, key []byte) ([]byte, error) {
	switch c.mode {
	case ModeGCM:
		return seal(key, plaintext, nil)
	case ModeLegacyECB:
		return encryptECB(key, plaintext)
	default:
		return nil, fmt.Errorf("encrypt: unsupported %s", c.mode)
	}
}

// Decrypt reverses Encrypt. A wrong key or a modified ciphertext yields
// common.ErrAuthTagMismatch in ModeGCM; in ModeLegacyECB it yields
// common.ErrBadPadding when the padding happens to be invalid, and garbage
// plaintext otherwise.
func (c *EntryCipher) Decrypt(ciphertext, key []byte) ([]byte, error) {
	switch c.mode {
	case ModeGCM:
		return open(key, ciphertext, nil)
	case ModeLegacyECB:
		return decryptECB(key, ciphertext)
	default:
		return nil, fmt.Errorf("decrypt: unsupported %s", c.mode)
	}
}

// EncryptString encrypts a UTF-8 string and returns the ciphertext in
// standard base64, the form sent over the wire and stored by the server.
func (c *EntryCipher) EncryptString(plaintext string, key []byte) (string, error) {
	ct, err := c.Encrypt([]byte(plaintext), key)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ct), nil
}

// DecryptString decodes a base64 ciphertext and decrypts it to a string.
func (c *EntryCipher) DecryptString(ciphertext string, key []byte) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}

	pt, err := c.Decrypt(raw, key)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(pt) {
		return "", common.ErrMalformedPlaintext
	}
	return string(pt), nil
}

// EncryptJSON serialises v to JSON and encrypts it with EncryptString.
func (c *EntryCipher) EncryptJSON(v any, key []byte) (string, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return c.EncryptString(string(plaintext), key)
}

// DecryptJSON decrypts ciphertext and unmarshals the JSON into v.
func (c *EntryCipher) DecryptJSON(ciphertext string, key []byte, v any) error {
	plaintext, err := c.DecryptString(ciphertext, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(plaintext), v)
}
