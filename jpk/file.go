// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package jpk

import (
	"fmt"

	"github.com/woozymasta/refrontier/internal/format"
)

// ParseFile reads a JKR file: the 4-byte tag followed by exactly one block.
func ParseFile(data []byte) (Block, error) {
	if format.DetectMagic(data) != format.MagicJKR {
		return Block{}, fmt.Errorf("%w: missing %s tag", ErrMalformedHeader, format.MagicJKR)
	}

	b, err := ParseBlock(data[format.MagicSize:])
	if err != nil {
		return Block{}, err
	}

	if extra := len(data) - format.MagicSize - b.EncodedLen(); extra != 0 {
		return Block{}, fmt.Errorf("%w: %d bytes after block", ErrCorruptBlock, extra)
	}

	return b, nil
}

// Decode parses and decompresses a JKR file.
func Decode(data []byte) ([]byte, error) {
	b, err := ParseFile(data)
	if err != nil {
		return nil, err
	}

	return Decompress(b)
}

// Encode compresses data with tag and prepends the JKR tag.
func Encode(data []byte, tag Tag) ([]byte, error) {
	b, err := Compress(data, tag)
	if err != nil {
		return nil, err
	}

	raw, err := b.MarshalBinary()
	if err != nil {
		return nil, err
	}

	magic := format.MagicJKR.Bytes()
	out := make([]byte, 0, format.MagicSize+len(raw))
	out = append(out, magic[:]...)
	return append(out, raw...), nil
}
