// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package archive

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/woozymasta/refrontier/internal/format"
)

var (
	// defaultPackWriterPool reuses default-sized bufio writers between Pack calls.
	defaultPackWriterPool = sync.Pool{
		New: func() any {
			return bufio.NewWriterSize(io.Discard, DefaultWriteBuffer)
		},
	}
)

// zeroPad is a shared source of padding bytes.
var zeroPad [MaxAlignment]byte

// Pack writes an archive containing members in order to out.
// Payload offsets are contiguous and aligned to opts.Alignment; the tail is padded likewise.
func Pack(ctx context.Context, out io.Writer, members []Member, opts PackOptions) (*PackResult, error) {
	if out == nil {
		return nil, ErrNilWriter
	}

	if ctx == nil {
		ctx = context.Background()
	}

	opts.applyDefaults()
	if !validAlignment(opts.Alignment) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAlignment, opts.Alignment)
	}

	entries, total, err := layoutEntries(members, opts.Alignment)
	if err != nil {
		return nil, err
	}

	w, releaseWriter := acquirePackWriter(out, opts.WriterBufferSize)
	defer releaseWriter()

	res := &PackResult{
		Entries:   entries,
		IndexSize: int64(headerSize) + int64(len(entries))*entrySize,
		Size:      total,
	}

	var raw [headerSize]byte
	binary.LittleEndian.PutUint32(raw[0:4], uint32(format.MagicArchive))
	binary.LittleEndian.PutUint32(raw[4:8], uint32(len(entries))) //nolint:gosec // bounded by layoutEntries
	if _, err := w.Write(raw[:]); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for _, e := range entries {
		binary.LittleEndian.PutUint32(raw[0:4], e.Offset)
		binary.LittleEndian.PutUint32(raw[4:8], e.Size)
		if _, err := w.Write(raw[:]); err != nil {
			return nil, fmt.Errorf("write entry table: %w", err)
		}
	}

	pos := res.IndexSize
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pad := int64(e.Offset) - pos
		if e.Size == 0 {
			pad = 0
		}
		if err := writePadding(w, pad); err != nil {
			return nil, err
		}
		res.PaddingSize += pad
		pos += pad

		if _, err := w.Write(members[i].Data); err != nil {
			return nil, fmt.Errorf("write entry %d: %w", i, err)
		}
		pos += int64(e.Size)
		res.DataSize += int64(e.Size)
		res.WrittenEntries++

		if opts.OnEntryDone != nil {
			opts.OnEntryDone(e)
		}
	}

	tail := total - pos
	if err := writePadding(w, tail); err != nil {
		return nil, err
	}
	res.PaddingSize += tail

	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("flush archive: %w", err)
	}

	return res, nil
}

// PackBytes packs members into a new in-memory archive.
func PackBytes(members []Member, opts PackOptions) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := Pack(context.Background(), &buf, members, opts); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// PackFile writes an archive to outPath.
func PackFile(ctx context.Context, outPath string, members []Member, opts PackOptions) (*PackResult, error) {
	f, err := os.OpenFile(outPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create archive file: %w", err)
	}
	defer func() {
		if f != nil {
			_ = f.Close()
		}
	}()

	res, err := Pack(ctx, f, members, opts)
	if err != nil {
		return nil, err
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close archive file: %w", err)
	}
	f = nil

	return res, nil
}

// PackExact builds an archive of size bytes with each member placed at the matching offset.
// Bytes not covered by the header, table, or members are zero.
func PackExact(members []Member, offsets []uint32, size int64) ([]byte, error) {
	if len(offsets) != len(members) {
		return nil, fmt.Errorf("%w: %d offsets for %d members", ErrInvalidLayout, len(offsets), len(members))
	}

	if size > maxData {
		return nil, fmt.Errorf("%w: archive size %d", ErrSizeOverflow, size)
	}

	tableEnd := int64(headerSize) + int64(len(members))*entrySize
	if tableEnd > size {
		return nil, fmt.Errorf("%w: entry table ends at %d, archive has %d", ErrInvalidLayout, tableEnd, size)
	}

	entries := make([]Entry, len(members))
	for i, m := range members {
		if int64(len(m.Data)) > maxData-1 {
			return nil, fmt.Errorf("%w: entry %d has %d bytes", ErrSizeOverflow, i, len(m.Data))
		}
		entries[i] = Entry{Index: i, Offset: offsets[i], Size: uint32(len(m.Data))} //nolint:gosec // checked above
	}

	if err := validateEntries(entries, tableEnd, size); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLayout, err)
	}

	out := make([]byte, size)
	binary.LittleEndian.PutUint32(out[0:4], uint32(format.MagicArchive))
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(entries))) //nolint:gosec // bounded by tableEnd
	pos := headerSize
	for i, e := range entries {
		binary.LittleEndian.PutUint32(out[pos:pos+4], e.Offset)
		binary.LittleEndian.PutUint32(out[pos+4:pos+8], e.Size)
		pos += entrySize
		copy(out[e.Offset:], members[i].Data)
	}

	return out, nil
}

// layoutEntries assigns aligned offsets to members and returns the total stream size.
// Empty members take the current offset and occupy no bytes.
func layoutEntries(members []Member, alignment uint32) ([]Entry, int64, error) {
	tableEnd := int64(headerSize) + int64(len(members))*entrySize
	if tableEnd > maxData {
		return nil, 0, fmt.Errorf("%w: %d entries", ErrSizeOverflow, len(members))
	}

	entries := make([]Entry, len(members))
	pos := tableEnd
	for i := range members {
		size := int64(len(members[i].Data))
		offset := pos
		if size > 0 {
			offset = alignUp(pos, alignment)
		}

		if offset+size > maxData-1 {
			return nil, 0, fmt.Errorf("%w: entry %d ends at %d", ErrSizeOverflow, i, offset+size)
		}

		entries[i] = Entry{
			Index:  i,
			Offset: uint32(offset), //nolint:gosec // checked above
			Size:   uint32(size),   //nolint:gosec // checked above
			Magic:  format.DetectMagic(members[i].Data),
		}
		entries[i].Name = entryName(i, entries[i].Magic)
		pos = offset + size
	}

	total := alignUp(pos, alignment)
	if total > maxData {
		return nil, 0, fmt.Errorf("%w: archive size %d", ErrSizeOverflow, total)
	}

	return entries, total, nil
}

// writePadding writes n zero bytes.
func writePadding(w io.Writer, n int64) error {
	for n > 0 {
		chunk := min(n, int64(len(zeroPad)))
		if _, err := w.Write(zeroPad[:chunk]); err != nil {
			return fmt.Errorf("write padding: %w", err)
		}
		n -= chunk
	}

	return nil
}

// acquirePackWriter returns a buffered writer and release callback for Pack.
func acquirePackWriter(out io.Writer, size int) (*bufio.Writer, func()) {
	if size == DefaultWriteBuffer {
		w := defaultPackWriterPool.Get().(*bufio.Writer) //nolint:forcetypeassert // pool contains only *bufio.Writer
		w.Reset(out)

		return w, func() {
			w.Reset(io.Discard)
			defaultPackWriterPool.Put(w)
		}
	}

	return bufio.NewWriterSize(out, size), func() {}
}
