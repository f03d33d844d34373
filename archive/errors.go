// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package archive

import (
	"errors"

	"github.com/woozymasta/refrontier/internal/format"
)

// Sentinel errors for archive operations. Use errors.Is in callers.
var (
	// ErrMalformedHeader means bad magic, short header, or overlapping entries.
	ErrMalformedHeader = format.ErrMalformedHeader
	// ErrTruncatedStream means an entry payload ends past the stream end.
	ErrTruncatedStream = format.ErrTruncatedStream
	// ErrEntryCountMismatch means the declared entry table does not fit the stream.
	ErrEntryCountMismatch = format.ErrEntryCountMismatch
	// ErrRecursionLimitExceeded means nested containers exceed the depth bound.
	ErrRecursionLimitExceeded = format.ErrRecursionLimitExceeded
	// ErrNilReader means the reader is nil.
	ErrNilReader = errors.New("reader is nil")
	// ErrNilWriter means the writer is nil.
	ErrNilWriter = errors.New("writer is nil")
	// ErrClosed means the reader is already closed.
	ErrClosed = errors.New("reader already closed")
	// ErrEntryNotFound means the entry index is out of range.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrSizeOverflow means offsets or sizes exceed the uint32 archive limit.
	ErrSizeOverflow = errors.New("size exceeds uint32 archive limit")
	// ErrInvalidLayout means recorded offsets cannot hold the members.
	ErrInvalidLayout = errors.New("invalid archive layout")
	// ErrInvalidAlignment means alignment is not a power of two within limits.
	ErrInvalidAlignment = errors.New("invalid alignment")
)
