// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package refrontier

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/woozymasta/refrontier/ecd"
	"github.com/woozymasta/refrontier/internal/format"
	"gopkg.in/yaml.v3"
)

// Meta is the encryption sidecar written next to decrypted output.
// The encrypt handler reads it back to restore the original header fields.
type Meta struct {
	// Format is "ecd" or "exf".
	Format string `yaml:"format" json:"format"`
	// KeyIndex is the original key slot.
	KeyIndex uint16 `yaml:"key_index" json:"key_index"`
	// Reserved is the original reserved header field.
	Reserved uint16 `yaml:"reserved" json:"reserved"`
	// Size is the original plaintext size.
	Size uint32 `yaml:"size" json:"size"`
	// Seed is the original header seed.
	Seed uint32 `yaml:"seed" json:"seed"`
}

// metaFromHeader converts a parsed encryption header.
func metaFromHeader(h ecd.Header) Meta {
	return Meta{
		Format:   h.Format.Extension(),
		KeyIndex: h.KeyIndex,
		Reserved: h.Reserved,
		Size:     h.Size,
		Seed:     h.Seed,
	}
}

// Options returns the encryption options that reproduce the recorded header.
func (m Meta) Options() (ecd.Options, error) {
	var f format.Magic
	switch strings.ToLower(strings.TrimSpace(m.Format)) {
	case "", "ecd":
		f = format.MagicECD
	case "exf":
		f = format.MagicEXF
	default:
		return ecd.Options{}, fmt.Errorf("%w: meta format %q", ErrUnsupportedAlgorithm, m.Format)
	}

	if int(m.KeyIndex) >= ecd.KeyCount {
		return ecd.Options{}, fmt.Errorf("%w: meta key index %d", ErrUnsupportedAlgorithm, m.KeyIndex)
	}

	return ecd.Options{Format: f, KeyIndex: m.KeyIndex, Reserved: m.Reserved}, nil
}

// MarshalMeta encodes m as YAML.
func MarshalMeta(m Meta) ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode meta: %w", err)
	}

	return data, nil
}

// ReadMeta loads a meta sidecar. A missing file returns found=false without error.
func ReadMeta(path string) (Meta, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Meta{}, false, nil
	}
	if err != nil {
		return Meta{}, false, fmt.Errorf("%w: read meta: %w", ErrIOFailure, err)
	}

	var m Meta
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Meta{}, false, fmt.Errorf("%w: parse meta %s: %w", ErrMalformedHeader, path, err)
	}

	return m, true, nil
}

// metaPath returns the sidecar path for an encrypted file or its decrypted output.
func metaPath(path string) string {
	if base, ok := strings.CutSuffix(path, SuffixDecrypted); ok {
		return base + SuffixMeta
	}

	return path + SuffixMeta
}
