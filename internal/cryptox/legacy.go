package cryptox

import (
	"crypto/aes"
	"fmt"

	"github.com/dmitrijs2005/moodjournal/internal/common"
)

// encryptECB encrypts each 16-byte block independently after PKCS#7 padding.
// The standard library has no ECB mode on purpose; it is built here from the
// raw block cipher only for compatibility with existing ciphertexts.
func encryptECB(key, plaintext []byte) ([]byte, error) {
	if len(key) != common.SymmetricKeySize {
		return nil, fmt.Errorf("%w: got %d bytes", common.ErrInvalidKeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	out := make([]byte, len(padded))
	for i := 0; i < len(padded); i += aes.BlockSize {
		block.Encrypt(out[i:i+aes.BlockSize], padded[i:i+aes.BlockSize])
	}
	return out, nil
}

func decryptECB(key, ciphertext []byte) ([]byte, error) {
	if len(key) != common.SymmetricKeySize {
		return nil, fmt.Errorf("%w: got %d bytes", common.ErrInvalidKeySize, len(key))
	}
	if len(ciphertext) < aes.BlockSize {
		return nil, common.ErrCiphertextTooShort
	}
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, common.ErrBadPadding
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(ciphertext))
	for i := 0; i < len(ciphertext); i += aes.BlockSize {
		block.Decrypt(out[i:i+aes.BlockSize], ciphertext[i:i+aes.BlockSize])
	}
	return pkcs7Unpad(out, aes.BlockSize)
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	out := make([]byte, len(b)+n)
	copy(out, b)
	for i := len(b); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, common.ErrBadPadding
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, common.ErrBadPadding
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, common.ErrBadPadding
		}
	}
	return b[:len(b)-n], nil
}
