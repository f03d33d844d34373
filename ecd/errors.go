// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package ecd

import (
	"errors"

	"github.com/woozymasta/refrontier/internal/format"
)

// Sentinel errors for stream crypto. Use errors.Is in callers.
var (
	// ErrMalformedHeader means the stream does not start with an ECD or EXF tag.
	ErrMalformedHeader = format.ErrMalformedHeader
	// ErrTruncatedStream means the header or declared payload is cut short.
	ErrTruncatedStream = format.ErrTruncatedStream
	// ErrCorruptBlock means the decrypted payload fails its checksum.
	ErrCorruptBlock = format.ErrCorruptBlock
	// ErrUnsupportedAlgorithm means the key index is outside the key table.
	ErrUnsupportedAlgorithm = format.ErrUnsupportedAlgorithm
	// ErrSizeOverflow means plaintext exceeds the uint32 size field.
	ErrSizeOverflow = errors.New("size exceeds uint32 stream limit")
)
