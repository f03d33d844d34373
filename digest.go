// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package refrontier

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

// DigestFile returns the BLAKE2b-256 hex digest of the file at path.
func DigestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for digest: %w", err)
	}
	defer func() { _ = f.Close() }()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("init digest: %w", err)
	}

	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// DigestBytes returns the BLAKE2b-256 hex digest of data.
func DigestBytes(data []byte) string {
	sum := blake2b.Sum256(data)
	return fmt.Sprintf("%x", sum[:])
}
