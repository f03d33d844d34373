// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package archive

import (
	"bytes"
	"fmt"
	"io"

	"github.com/woozymasta/refrontier/internal/format"
)

// nopCloser wraps a reader and provides a no-op close.
type nopCloser struct {
	io.Reader
}

// Close closes nopCloser (no-op).
func (nopCloser) Close() error {
	return nil
}

// checkOpen validates reader state before payload access.
func (r *Reader) checkOpen() error {
	if r == nil || r.ra == nil {
		return ErrNilReader
	}

	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return ErrClosed
	}

	return nil
}

// OpenEntry opens the payload of entry index for reading.
func (r *Reader) OpenEntry(index int) (io.ReadCloser, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	if index < 0 || index >= len(r.entries) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrEntryNotFound, index, len(r.entries))
	}

	e := r.entries[index]
	return nopCloser{Reader: io.NewSectionReader(r.ra, int64(e.Offset), int64(e.Size))}, nil
}

// ReadEntry reads a full independent copy of entry index.
func (r *Reader) ReadEntry(index int) ([]byte, error) {
	rc, err := r.OpenEntry(index)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	out := make([]byte, r.entries[index].Size)
	if _, err := io.ReadFull(rc, out); err != nil {
		return nil, fmt.Errorf("%w: read entry %d: %w", ErrTruncatedStream, index, err)
	}

	return out, nil
}

// Unpack parses data as an archive and returns the header plus a copy of every member.
func Unpack(data []byte) (Header, []Entry, []Member, error) {
	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Header{}, nil, nil, err
	}

	entries := r.Entries()
	members := make([]Member, len(entries))
	for i, e := range entries {
		payload := make([]byte, e.Size)
		copy(payload, data[e.Offset:e.End()])
		members[i] = Member{Name: e.Name, Data: payload}
	}

	return r.Header(), entries, members, nil
}

// IsArchive reports whether data starts with the archive tag.
func IsArchive(data []byte) bool {
	return format.DetectMagic(data) == format.MagicArchive
}

// entryName builds a stable output name for an entry from its index and payload tag.
func entryName(index int, magic format.Magic) string {
	return fmt.Sprintf("%04d.%s", index+1, magic.Extension())
}

// EntryName builds the output name for the member at index with payload data.
func EntryName(index int, data []byte) string {
	return entryName(index, format.DetectMagic(data))
}

// DetectAlignment returns the largest power-of-two alignment that every non-empty
// entry offset and the stream size satisfy, capped at MaxAlignment.
func DetectAlignment(header Header, entries []Entry) uint32 {
	for a := uint32(MaxAlignment); a > 1; a >>= 1 {
		mask := int64(a) - 1
		if header.Size&mask != 0 {
			continue
		}

		ok := true
		for _, e := range entries {
			if e.Size > 0 && int64(e.Offset)&mask != 0 {
				ok = false
				break
			}
		}
		if ok {
			return a
		}
	}

	return 1
}
