// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package refrontier

import (
	"fmt"
	"io"
	"sync"

	"github.com/woozymasta/refrontier/internal/format"
)

// trackingReaderAt records the furthest byte read through it.
type trackingReaderAt struct {
	ra   io.ReaderAt
	high int64
	mu   sync.Mutex
}

// ReadAt reads from the wrapped reader and updates the high-water mark.
func (t *trackingReaderAt) ReadAt(p []byte, off int64) (int, error) {
	n, err := t.ra.ReadAt(p, off)

	t.mu.Lock()
	if end := off + int64(n); end > t.high {
		t.high = end
	}
	t.mu.Unlock()

	return n, err
}

// High returns the furthest offset read so far.
func (t *trackingReaderAt) High() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.high
}

// readMagic reads the format tag; inputs shorter than the tag get MagicNone.
func readMagic(ra io.ReaderAt, size int64) (format.Magic, error) {
	if size < format.MagicSize {
		return format.MagicNone, nil
	}

	var buf [format.MagicSize]byte
	if _, err := ra.ReadAt(buf[:], 0); err != nil {
		return format.MagicNone, fmt.Errorf("%w: read magic: %w", ErrIOFailure, err)
	}

	return format.DetectMagic(buf[:]), nil
}

// readAll loads the whole input.
func readAll(in Input) ([]byte, error) {
	if in.Data == nil {
		return nil, fmt.Errorf("%w: %s has no data source", ErrIOFailure, in.Path)
	}

	data := make([]byte, in.Size)
	if _, err := io.ReadFull(io.NewSectionReader(in.Data, 0, in.Size), data); err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrIOFailure, in.Path, err)
	}

	return data, nil
}
