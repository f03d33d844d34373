// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package ecd

import (
	"encoding/binary"
	"fmt"

	"github.com/woozymasta/refrontier/internal/format"
)

// HeaderSize is the fixed header length of ECD and EXF streams.
const HeaderSize = 16

// DefaultKeyIndex is the key table slot used by stock game files.
const DefaultKeyIndex = 4

// Header is the fixed prefix of an encrypted stream.
type Header struct {
	// Format is format.MagicECD or format.MagicEXF.
	Format format.Magic `json:"format" yaml:"format"`
	// Size is the plaintext length.
	Size uint32 `json:"size" yaml:"size"`
	// Seed is the plaintext CRC-32 for ECD, key buffer seed for EXF.
	Seed uint32 `json:"seed" yaml:"seed"`
	// KeyIndex selects the keystream constants.
	KeyIndex uint16 `json:"key_index" yaml:"key_index"`
	// Reserved is carried through unchanged.
	Reserved uint16 `json:"reserved" yaml:"reserved"`
}

// ParseHeader reads the 16-byte header at the start of b.
func ParseHeader(b []byte) (Header, error) {
	magic := format.DetectMagic(b)
	if !magic.IsEncrypted() {
		return Header{}, fmt.Errorf("%w: magic %s", ErrMalformedHeader, magic)
	}

	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header needs %d bytes, have %d", ErrTruncatedStream, HeaderSize, len(b))
	}

	return Header{
		Format:   magic,
		KeyIndex: binary.LittleEndian.Uint16(b[4:6]),
		Reserved: binary.LittleEndian.Uint16(b[6:8]),
		Size:     binary.LittleEndian.Uint32(b[8:12]),
		Seed:     binary.LittleEndian.Uint32(b[12:16]),
	}, nil
}

// MarshalBinary encodes h in wire order.
func (h Header) MarshalBinary() ([]byte, error) {
	if !h.Format.IsEncrypted() {
		return nil, fmt.Errorf("%w: magic %s", ErrMalformedHeader, h.Format)
	}

	out := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(out[0:4], uint32(h.Format))
	binary.LittleEndian.PutUint16(out[4:6], h.KeyIndex)
	binary.LittleEndian.PutUint16(out[6:8], h.Reserved)
	binary.LittleEndian.PutUint32(out[8:12], h.Size)
	binary.LittleEndian.PutUint32(out[12:16], h.Seed)
	return out, nil
}
