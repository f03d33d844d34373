// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package jpk

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Tag selects the compression algorithm of a block.
type Tag uint8

// Known algorithm tags.
const (
	// TagRW stores data as-is.
	TagRW Tag = 0
	// TagHFIRW is Huffman coding over raw bytes.
	TagHFIRW Tag = 2
	// TagLZ is flag-bit LZ77 with an 8 KiB window.
	TagLZ Tag = 3
	// TagHFI is Huffman coding over the LZ token stream.
	TagHFI Tag = 4
	// TagLZSS is LZSS as produced by github.com/woozymasta/lzss.
	TagLZSS Tag = 0x10
	// TagLZ4 is an LZ4 frame.
	TagLZ4 Tag = 0x11
)

const (
	// blockHeaderSize is tag + decompressed size + compressed size.
	blockHeaderSize = 9
	// maxPrealloc caps output buffer preallocation from untrusted sizes.
	maxPrealloc = 64 << 20
)

// algorithmNames maps CLI names to tags.
var algorithmNames = map[string]Tag{
	"rw":    TagRW,
	"hfirw": TagHFIRW,
	"lz":    TagLZ,
	"hfi":   TagHFI,
	"lzss":  TagLZSS,
	"lz4":   TagLZ4,
}

// ParseAlgorithm resolves an algorithm name such as "lz" or "hfi".
func ParseAlgorithm(name string) (Tag, error) {
	tag, ok := algorithmNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
	}

	return tag, nil
}

// Known reports whether t is a supported tag.
func (t Tag) Known() bool {
	switch t {
	case TagRW, TagHFIRW, TagLZ, TagHFI, TagLZSS, TagLZ4:
		return true
	default:
		return false
	}
}

// huffman reports whether blocks with t carry a Huffman table.
func (t Tag) huffman() bool {
	return t == TagHFIRW || t == TagHFI
}

// String returns the algorithm name.
func (t Tag) String() string {
	for name, tag := range algorithmNames {
		if tag == t {
			return name
		}
	}

	return fmt.Sprintf("tag(0x%02X)", uint8(t))
}

// Block is one compressed block.
type Block struct {
	// Header is algorithm specific data between sizes and payload.
	Header []byte
	// Payload is exactly CompressedSize bytes.
	Payload []byte
	// DecompressedSize is the exact decoded length.
	DecompressedSize uint32
	// CompressedSize is the payload length.
	CompressedSize uint32
	// Tag selects the algorithm.
	Tag Tag
}

// EncodedLen returns the wire size of b.
func (b Block) EncodedLen() int {
	return blockHeaderSize + len(b.Header) + len(b.Payload)
}

// MarshalBinary encodes b in wire order.
func (b Block) MarshalBinary() ([]byte, error) {
	if uint64(len(b.Payload)) != uint64(b.CompressedSize) {
		return nil, fmt.Errorf("%w: payload %d bytes, declared %d", ErrCorruptBlock, len(b.Payload), b.CompressedSize)
	}

	out := make([]byte, blockHeaderSize, b.EncodedLen())
	out[0] = byte(b.Tag)
	binary.LittleEndian.PutUint32(out[1:5], b.DecompressedSize)
	binary.LittleEndian.PutUint32(out[5:9], b.CompressedSize)
	out = append(out, b.Header...)
	out = append(out, b.Payload...)
	return out, nil
}

// ParseBlock reads one block from the start of data. Header and Payload alias data.
// Bytes after the block are left for the caller; see Block.EncodedLen.
func ParseBlock(data []byte) (Block, error) {
	if len(data) < blockHeaderSize {
		return Block{}, fmt.Errorf("%w: block header needs %d bytes, have %d", ErrTruncatedStream, blockHeaderSize, len(data))
	}

	b := Block{
		Tag:              Tag(data[0]),
		DecompressedSize: binary.LittleEndian.Uint32(data[1:5]),
		CompressedSize:   binary.LittleEndian.Uint32(data[5:9]),
	}
	if !b.Tag.Known() {
		return Block{}, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, b.Tag)
	}

	rest := data[blockHeaderSize:]
	if b.Tag.huffman() {
		_, n, err := parseHuffmanTable(rest)
		if err != nil {
			return Block{}, err
		}
		b.Header = rest[:n]
		rest = rest[n:]
	}

	if uint64(len(rest)) < uint64(b.CompressedSize) {
		return Block{}, fmt.Errorf("%w: payload declares %d bytes, have %d", ErrTruncatedStream, b.CompressedSize, len(rest))
	}
	b.Payload = rest[:b.CompressedSize]

	return b, nil
}

// checkedSize converts n to a uint32 block size.
func checkedSize(n int) (uint32, error) {
	if uint64(n) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d bytes", ErrSizeOverflow, n)
	}

	return uint32(n), nil
}
