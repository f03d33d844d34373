// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package ecd

import (
	"fmt"
	"hash/crc32"
	"math"

	"github.com/woozymasta/refrontier/internal/format"
)

// feistelRounds is the number of nibble rounds per byte.
const feistelRounds = 8

// Options configures Encrypt.
type Options struct {
	// Format is format.MagicECD or format.MagicEXF; zero means ECD.
	Format format.Magic `json:"format,omitempty" yaml:"format,omitempty"`
	// KeyIndex selects the keystream constants.
	KeyIndex uint16 `json:"key_index" yaml:"key_index"`
	// Reserved is written to the header as-is.
	Reserved uint16 `json:"reserved,omitempty" yaml:"reserved,omitempty"`
}

// applyDefaults fills zero-valued options with defaults.
func (opts *Options) applyDefaults() {
	if opts.Format == format.MagicNone {
		opts.Format = format.MagicECD
	}
}

// Encrypt encodes plain as an ECD or EXF stream. Output is deterministic for equal inputs.
func Encrypt(plain []byte, opts Options) ([]byte, error) {
	opts.applyDefaults()

	if uint64(len(plain)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrSizeOverflow, len(plain))
	}

	h := Header{
		Format:   opts.Format,
		KeyIndex: opts.KeyIndex,
		Reserved: opts.Reserved,
		Size:     uint32(len(plain)), //nolint:gosec // checked above
		Seed:     crc32.ChecksumIEEE(plain),
	}

	raw, err := h.MarshalBinary()
	if err != nil {
		return nil, err
	}

	out := make([]byte, HeaderSize+len(plain))
	copy(out, raw)

	switch h.Format {
	case format.MagicECD:
		err = encryptECD(out[HeaderSize:], plain, h)
	case format.MagicEXF:
		err = xorEXF(out[HeaderSize:], plain, h)
	}
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Decrypt decodes an ECD or EXF stream. Bytes after the declared payload are ignored.
func Decrypt(stream []byte) ([]byte, Header, error) {
	h, err := ParseHeader(stream)
	if err != nil {
		return nil, Header{}, err
	}

	body := stream[HeaderSize:]
	if uint64(h.Size) > uint64(len(body)) {
		return nil, h, fmt.Errorf("%w: payload declares %d bytes, have %d", ErrTruncatedStream, h.Size, len(body))
	}
	body = body[:h.Size]

	plain := make([]byte, len(body))
	switch h.Format {
	case format.MagicECD:
		if err := decryptECD(plain, body, h); err != nil {
			return nil, h, err
		}
		if sum := crc32.ChecksumIEEE(plain); sum != h.Seed {
			return nil, h, fmt.Errorf("%w: crc32 %08X, header %08X", ErrCorruptBlock, sum, h.Seed)
		}
	case format.MagicEXF:
		if err := xorEXF(plain, body, h); err != nil {
			return nil, h, err
		}
	}

	return plain, h, nil
}

// decryptECD runs the nibble Feistel network with plaintext chaining.
func decryptECD(dst, src []byte, h Header) error {
	ks, err := newKeystream(h.KeyIndex, h.Seed)
	if err != nil {
		return err
	}

	chain := ks.next() & 0xFF
	for i, c := range src {
		pad := ks.next()
		lo := (uint32(c) ^ chain) & 0xF
		hi := (uint32(c) ^ chain) >> 4 & 0xF
		for range feistelRounds {
			lo, hi = hi, (hi^lo^pad)&0xF
			pad >>= 4
		}

		p := hi | lo<<4
		dst[i] = byte(p)
		chain = p
	}

	return nil
}

// encryptECD inverts decryptECD byte by byte.
func encryptECD(dst, src []byte, h Header) error {
	ks, err := newKeystream(h.KeyIndex, h.Seed)
	if err != nil {
		return err
	}

	chain := ks.next() & 0xFF
	for i, p := range src {
		pad := ks.next()
		hi := uint32(p) & 0xF
		lo := uint32(p) >> 4
		for j := feistelRounds - 1; j >= 0; j-- {
			k := pad >> (4 * uint(j)) & 0xF
			lo, hi = hi^lo^k, lo
		}

		dst[i] = byte((lo | hi<<4) ^ chain)
		chain = uint32(p)
	}

	return nil
}

// xorEXF applies the position-dependent EXF keystream; it is its own inverse.
func xorEXF(dst, src []byte, h Header) error {
	ks, err := newKeystream(h.KeyIndex, h.Seed)
	if err != nil {
		return err
	}

	var keybuf [16]uint32
	for i := range keybuf {
		keybuf[i] = ks.next()
	}

	for i, b := range src {
		k := keybuf[i&0xF] ^ uint32(i) //nolint:gosec // stream length fits uint32
		shift := uint(i>>4&3) * 8
		dst[i] = b ^ byte(k>>shift)
	}

	return nil
}
