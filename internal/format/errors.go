// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package format

import "errors"

// Error taxonomy shared by all codecs and the pipeline. Use errors.Is in callers.
var (
	// ErrMalformedHeader means bad magic or inconsistent header structure.
	ErrMalformedHeader = errors.New("malformed header")
	// ErrTruncatedStream means declared bounds exceed available bytes.
	ErrTruncatedStream = errors.New("truncated stream")
	// ErrEntryCountMismatch means the declared entry count cannot be read in full.
	ErrEntryCountMismatch = errors.New("entry count mismatch")
	// ErrCorruptBlock means compressed or encrypted payload does not match its declared sizes.
	ErrCorruptBlock = errors.New("corrupt block")
	// ErrUnsupportedAlgorithm means unknown compression tag or encryption key index.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	// ErrRecursionLimitExceeded means nested containers exceed the depth bound.
	ErrRecursionLimitExceeded = errors.New("recursion limit exceeded")
	// ErrIOFailure means an underlying read or write fault.
	ErrIOFailure = errors.New("io failure")
	// ErrNoHandler means no registered handler accepts the input.
	ErrNoHandler = errors.New("no handler")
)
