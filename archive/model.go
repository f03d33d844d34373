// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package archive

import "github.com/woozymasta/refrontier/internal/format"

// Internal binary layout and format limits.
const (
	headerSize  = 8       // magic + entry count
	entrySize   = 8       // offset + size
	maxData     = 1 << 32 // max addressable stream size (4 GiB)
	minAlignLog = 0
	maxAlignLog = 12
)

// Default packer tuning values.
const (
	DefaultAlignment   = 16
	MaxAlignment       = 1 << maxAlignLog
	DefaultWriteBuffer = 1024 * 1024
)

// Header describes the fixed part of a parsed archive.
type Header struct {
	// Magic is the container tag read from stream start.
	Magic format.Magic `json:"magic" yaml:"magic"`
	// Count is the declared number of entries.
	Count uint32 `json:"count" yaml:"count"`
	// TableEnd is the first byte after the entry table.
	TableEnd int64 `json:"table_end" yaml:"table_end"`
	// Size is total stream size in bytes.
	Size int64 `json:"size" yaml:"size"`
}

// Entry describes a single parsed archive entry.
type Entry struct {
	// Name is the generated output name ("0001.jkr").
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Index is zero-based position in the entry table.
	Index int `json:"index" yaml:"index"`
	// Offset is absolute byte offset of the payload.
	Offset uint32 `json:"offset" yaml:"offset"`
	// Size is payload size in bytes.
	Size uint32 `json:"size" yaml:"size"`
	// Magic is the tag found at the start of the payload.
	Magic format.Magic `json:"magic,omitempty" yaml:"magic,omitempty"`
}

// End returns the first byte after the entry payload.
func (e Entry) End() int64 {
	return int64(e.Offset) + int64(e.Size)
}

// Member is one payload to be packed, in table order.
type Member struct {
	// Name is used only for progress reporting and manifests.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Data is the raw payload.
	Data []byte `json:"-" yaml:"-"`
}

// PackOptions configures pack behavior.
type PackOptions struct {
	// OnEntryDone is called after one entry payload is written.
	OnEntryDone func(entry Entry) `json:"-" yaml:"-"`
	// Alignment is payload and tail alignment in bytes; zero means DefaultAlignment.
	Alignment uint32 `json:"alignment,omitempty" yaml:"alignment,omitempty"`
	// WriterBufferSize is buffered writer size in bytes.
	WriterBufferSize int `json:"writer_buffer_size,omitempty" yaml:"writer_buffer_size,omitempty"`
}

// PackResult contains pack output statistics.
type PackResult struct {
	// Entries is the written entry table.
	Entries []Entry `json:"entries" yaml:"entries"`
	// WrittenEntries is number of entries written.
	WrittenEntries int `json:"written_entries" yaml:"written_entries"`
	// IndexSize is header plus table bytes.
	IndexSize int64 `json:"index_size" yaml:"index_size"`
	// DataSize is total payload bytes written.
	DataSize int64 `json:"data_size" yaml:"data_size"`
	// PaddingSize is total zero padding written.
	PaddingSize int64 `json:"padding_size" yaml:"padding_size"`
	// Size is total stream size.
	Size int64 `json:"size" yaml:"size"`
}

// applyDefaults fills zero-valued pack options with defaults.
func (opts *PackOptions) applyDefaults() {
	if opts.Alignment == 0 {
		opts.Alignment = DefaultAlignment
	}

	if opts.WriterBufferSize < 4096 {
		opts.WriterBufferSize = DefaultWriteBuffer
	}
}

// validAlignment reports whether a is a power of two in [1, MaxAlignment].
func validAlignment(a uint32) bool {
	if a < 1<<minAlignLog || a > MaxAlignment {
		return false
	}

	return a&(a-1) == 0
}

// alignUp rounds n up to a multiple of a (a must be a power of two).
func alignUp(n int64, a uint32) int64 {
	mask := int64(a) - 1
	return (n + mask) &^ mask
}
