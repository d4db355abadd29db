package common

import "crypto/rand"

// GenerateRandByteArray returns n bytes read from crypto/rand.
// crypto/rand.Read never fails on supported platforms, so the error is not
// propagated.
func GenerateRandByteArray(n int) []byte {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return b
}

// WipeByteArray overwrites b with zeros. Used for passwords and key material.
// A nil slice is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
