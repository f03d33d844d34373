// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

// Package format holds wire-level definitions shared by codec packages.
package format

import (
	"encoding/binary"
	"fmt"
)

// MagicSize is the width of every format tag in bytes.
const MagicSize = 4

// Magic is the 4-byte format tag read little-endian from stream start.
type Magic uint32

// Known format families.
const (
	// MagicNone marks streams shorter than MagicSize.
	MagicNone Magic = 0
	// MagicArchive is the "MOMO" container tag.
	MagicArchive Magic = 0x4F4D4F4D
	// MagicJKR is the "JKR\x1A" compressed block tag.
	MagicJKR Magic = 0x1A524B4A
	// MagicECD is the "ecd\x1A" encrypted stream tag.
	MagicECD Magic = 0x1A646365
	// MagicEXF is the "exf\x1A" encrypted stream tag.
	MagicEXF Magic = 0x1A667865
	// MagicManifest is the "RFMF" unpack manifest tag.
	MagicManifest Magic = 0x464D4652
)

// DetectMagic returns the tag stored in the first 4 bytes of b.
func DetectMagic(b []byte) Magic {
	if len(b) < MagicSize {
		return MagicNone
	}

	return Magic(binary.LittleEndian.Uint32(b[:MagicSize]))
}

// Bytes returns the on-disk representation of m.
func (m Magic) Bytes() [MagicSize]byte {
	var out [MagicSize]byte
	binary.LittleEndian.PutUint32(out[:], uint32(m))
	return out
}

// IsEncrypted reports whether m belongs to the ECD/EXF family.
func (m Magic) IsEncrypted() bool {
	return m == MagicECD || m == MagicEXF
}

// Extension returns the file extension used when naming a member with this tag.
func (m Magic) Extension() string {
	switch m {
	case MagicArchive:
		return "momo"
	case MagicJKR:
		return "jkr"
	case MagicECD:
		return "ecd"
	case MagicEXF:
		return "exf"
	case MagicManifest:
		return "rfmf"
	default:
		return "bin"
	}
}

// String renders printable tags as text and others as hex.
func (m Magic) String() string {
	b := m.Bytes()
	for _, c := range b[:3] {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("0x%08X", uint32(m))
		}
	}
	if b[3] == 0x1A {
		return string(b[:3]) + `\x1A`
	}
	if b[3] < 0x20 || b[3] > 0x7e {
		return fmt.Sprintf("0x%08X", uint32(m))
	}

	return string(b[:])
}
