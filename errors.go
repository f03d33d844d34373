// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package refrontier

import (
	"errors"

	"github.com/woozymasta/refrontier/internal/format"
)

// Sentinel errors for routing and pipeline operations. Use errors.Is in callers.
var (
	// ErrMalformedHeader means bad magic or inconsistent header structure.
	ErrMalformedHeader = format.ErrMalformedHeader
	// ErrTruncatedStream means declared bounds exceed available bytes.
	ErrTruncatedStream = format.ErrTruncatedStream
	// ErrEntryCountMismatch means the declared entry table cannot be read in full.
	ErrEntryCountMismatch = format.ErrEntryCountMismatch
	// ErrCorruptBlock means compressed or encrypted payload does not match its declared sizes.
	ErrCorruptBlock = format.ErrCorruptBlock
	// ErrUnsupportedAlgorithm means unknown compression tag or encryption key index.
	ErrUnsupportedAlgorithm = format.ErrUnsupportedAlgorithm
	// ErrRecursionLimitExceeded means nested containers exceed the depth bound.
	ErrRecursionLimitExceeded = format.ErrRecursionLimitExceeded
	// ErrIOFailure means an input could not be read or an output could not be written.
	ErrIOFailure = format.ErrIOFailure
	// ErrNoHandler means no registered handler accepts the input; routed files report it as a skip.
	ErrNoHandler = format.ErrNoHandler
	// ErrDuplicatePriority means a handler with the same priority is already registered.
	ErrDuplicatePriority = errors.New("duplicate handler priority")
	// ErrInvalidHandler means a handler lacks a name, Match or Handle.
	ErrInvalidHandler = errors.New("invalid handler")
	// ErrInvalidConfig means run configuration failed validation.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrOutputClaimed means an output path is already claimed in this run or is an input.
	ErrOutputClaimed = errors.New("output path already claimed")
	// ErrInvalidOutputName means a manifest names a member outside its directory.
	ErrInvalidOutputName = errors.New("invalid output name")
)
