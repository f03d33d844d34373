// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package archive

import (
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/woozymasta/refrontier/internal/format"
)

// rawEntry is one hand-built table row.
type rawEntry struct {
	offset uint32
	size   uint32
}

// buildRaw writes an archive header with count and rows, then grows the buffer to total bytes.
func buildRaw(t *testing.T, count uint32, rows []rawEntry, total int) []byte {
	t.Helper()

	size := headerSize + len(rows)*entrySize
	if total < size {
		total = size
	}

	b := make([]byte, total)
	binary.LittleEndian.PutUint32(b[0:4], uint32(format.MagicArchive))
	binary.LittleEndian.PutUint32(b[4:8], count)
	for i, r := range rows {
		off := headerSize + i*entrySize
		binary.LittleEndian.PutUint32(b[off:off+4], r.offset)
		binary.LittleEndian.PutUint32(b[off+4:off+8], r.size)
	}

	return b
}

// randomBytes returns deterministic pseudo-random payload bytes.
func randomBytes(seed int64, n int) []byte {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic test payloads
	b := make([]byte, n)
	_, _ = rng.Read(b)
	return b
}
