// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package jpk

import (
	"errors"

	"github.com/woozymasta/refrontier/internal/format"
)

// Sentinel errors for block coding. Use errors.Is in callers.
var (
	// ErrMalformedHeader means the file does not start with the JKR tag.
	ErrMalformedHeader = format.ErrMalformedHeader
	// ErrTruncatedStream means the block header or payload is cut short.
	ErrTruncatedStream = format.ErrTruncatedStream
	// ErrCorruptBlock means decoded size or consumed payload does not match declared sizes.
	ErrCorruptBlock = format.ErrCorruptBlock
	// ErrUnsupportedAlgorithm means unknown algorithm tag or name.
	ErrUnsupportedAlgorithm = format.ErrUnsupportedAlgorithm
	// ErrSizeOverflow means input exceeds the uint32 block size limit.
	ErrSizeOverflow = errors.New("size exceeds uint32 block limit")
)
