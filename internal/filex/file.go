// Package filex has small filesystem helpers for the client.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureParentDir creates the directory that will hold file (mode 0700, the
// client keeps its session key there) and returns the absolute file path.
func EnsureParentDir(file string) (string, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", file, err)
	}

	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return abs, nil
}

// WritePrivateFile writes data readable by the owner only.
func WritePrivateFile(path string, data []byte) error {
	if _, err := EnsureParentDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
