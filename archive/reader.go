// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package archive

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/woozymasta/refrontier/internal/format"
)

// readerTableBufferSize is a sequential read buffer for entry table parsing.
const readerTableBufferSize = 64 * 1024

var (
	// entryTableReaderPool reuses buffered readers for sequential table parsing.
	entryTableReaderPool = sync.Pool{
		New: func() any {
			return bufio.NewReaderSize(bytes.NewReader(nil), readerTableBufferSize)
		},
	}
)

// Reader provides read-only access to a parsed archive.
type Reader struct {
	// ra is the underlying random-access reader used for payload reads.
	ra io.ReaderAt
	// file is set when Reader owns an *os.File opened via Open.
	file *os.File
	// entries stores parsed immutable entry metadata.
	entries []Entry
	// header stores parsed fixed header fields.
	header Header
	// mu guards closed state and close operation.
	mu sync.Mutex
	// closed reports whether Close was already called.
	closed bool
}

// Open opens an archive file by path and parses its entry table.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat: %w", err)
	}

	r, err := NewReader(f, fi.Size())
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	r.file = f
	return r, nil
}

// NewReader parses an archive from a ReaderAt of known size.
func NewReader(ra io.ReaderAt, size int64) (*Reader, error) {
	if ra == nil {
		return nil, ErrNilReader
	}

	r := &Reader{ra: ra}
	if err := r.parse(size); err != nil {
		return nil, err
	}

	return r, nil
}

// Header returns parsed header fields.
func (r *Reader) Header() Header {
	return r.header
}

// Entries returns a copy of parsed entries.
func (r *Reader) Entries() []Entry {
	if r == nil {
		return nil
	}

	entries := make([]Entry, len(r.entries))
	copy(entries, r.entries)
	return entries
}

// Close closes the underlying file if reader owns one.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true
	if r.file != nil {
		return r.file.Close()
	}

	return nil
}

// parse reads and validates archive structure from ReaderAt.
func (r *Reader) parse(size int64) error {
	header, err := parseHeader(r.ra, size)
	if err != nil {
		return err
	}
	r.header = header

	entries, err := parseEntryTable(r.ra, header)
	if err != nil {
		return err
	}

	if err := validateEntries(entries, header.TableEnd, size); err != nil {
		return err
	}

	if err := sniffEntries(r.ra, entries); err != nil {
		return err
	}

	r.entries = entries
	return nil
}

// parseHeader reads magic and entry count and checks that the table fits the stream.
func parseHeader(ra io.ReaderAt, size int64) (Header, error) {
	if size < headerSize {
		return Header{}, fmt.Errorf("%w: short header (%d bytes)", ErrMalformedHeader, size)
	}
	if size > maxData {
		return Header{}, fmt.Errorf("%w: stream size %d", ErrSizeOverflow, size)
	}

	var raw [headerSize]byte
	if _, err := ra.ReadAt(raw[:], 0); err != nil {
		return Header{}, fmt.Errorf("read header: %w", err)
	}

	magic := format.DetectMagic(raw[:])
	if magic != format.MagicArchive {
		return Header{}, fmt.Errorf("%w: magic %s", ErrMalformedHeader, magic)
	}

	count := binary.LittleEndian.Uint32(raw[4:8])
	tableEnd := int64(headerSize) + int64(count)*entrySize
	if tableEnd > size {
		return Header{}, fmt.Errorf("%w: %d entries need %d bytes, stream has %d", ErrEntryCountMismatch, count, tableEnd, size)
	}

	return Header{
		Magic:    magic,
		Count:    count,
		TableEnd: tableEnd,
		Size:     size,
	}, nil
}

// parseEntryTable reads the offset/size table with sequential buffered reads.
func parseEntryTable(ra io.ReaderAt, header Header) ([]Entry, error) {
	if header.Count == 0 {
		return []Entry{}, nil
	}

	sr := io.NewSectionReader(ra, headerSize, header.TableEnd-headerSize)
	br := entryTableReaderPool.Get().(*bufio.Reader) //nolint:forcetypeassert // pool contains only *bufio.Reader
	br.Reset(sr)
	defer entryTableReaderPool.Put(br)

	entries := make([]Entry, 0, header.Count)
	var fields [entrySize]byte
	for i := 0; i < int(header.Count); i++ {
		if _, err := io.ReadFull(br, fields[:]); err != nil {
			return nil, fmt.Errorf("%w: read entry %d: %w", ErrEntryCountMismatch, i, err)
		}

		entries = append(entries, Entry{
			Index:  i,
			Offset: binary.LittleEndian.Uint32(fields[0:4]),
			Size:   binary.LittleEndian.Uint32(fields[4:8]),
		})
	}

	return entries, nil
}

// validateEntries checks payload bounds and rejects entries overlapping the table or each other.
func validateEntries(entries []Entry, tableEnd int64, totalSize int64) error {
	for i := range entries {
		if entries[i].End() > totalSize {
			return fmt.Errorf("%w: entry %d ends at %d, stream has %d", ErrTruncatedStream, i, entries[i].End(), totalSize)
		}
		if entries[i].Size > 0 && int64(entries[i].Offset) < tableEnd {
			return fmt.Errorf("%w: entry %d payload overlaps entry table", ErrMalformedHeader, i)
		}
	}

	order := make([]int, 0, len(entries))
	for i := range entries {
		if entries[i].Size > 0 {
			order = append(order, i)
		}
	}

	sort.Slice(order, func(a, b int) bool {
		return entries[order[a]].Offset < entries[order[b]].Offset
	})

	for k := 1; k < len(order); k++ {
		prev := entries[order[k-1]]
		cur := entries[order[k]]
		if prev.End() > int64(cur.Offset) {
			return fmt.Errorf("%w: entry %d overlaps entry %d", ErrMalformedHeader, cur.Index, prev.Index)
		}
	}

	return nil
}

// sniffEntries reads the leading tag of each payload and assigns output names.
func sniffEntries(ra io.ReaderAt, entries []Entry) error {
	var buf [format.MagicSize]byte
	for i := range entries {
		if entries[i].Size >= format.MagicSize {
			if _, err := ra.ReadAt(buf[:], int64(entries[i].Offset)); err != nil {
				return fmt.Errorf("read entry %d magic: %w", i, err)
			}

			entries[i].Magic = format.DetectMagic(buf[:])
		}

		entries[i].Name = entryName(entries[i].Index, entries[i].Magic)
	}

	return nil
}
