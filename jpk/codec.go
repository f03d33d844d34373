// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package jpk

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
	"github.com/woozymasta/lzss"
)

// Compress encodes data into a block using the algorithm selected by tag.
func Compress(data []byte, tag Tag) (Block, error) {
	dsize, err := checkedSize(len(data))
	if err != nil {
		return Block{}, err
	}

	b := Block{Tag: tag, DecompressedSize: dsize}
	switch tag {
	case TagRW:
		b.Payload = append([]byte(nil), data...)
	case TagLZ:
		b.Payload = lzEncode(data)
	case TagHFIRW:
		nodes, stream := huffmanEncode(data)
		b.Header = marshalHuffmanTable(nodes)
		b.Payload = stream
	case TagHFI:
		nodes, stream := huffmanEncode(lzEncode(data))
		b.Header = marshalHuffmanTable(nodes)
		b.Payload = stream
	case TagLZSS:
		if b.Payload, err = compressLZSS(data); err != nil {
			return Block{}, err
		}
	case TagLZ4:
		if b.Payload, err = compressLZ4(data); err != nil {
			return Block{}, err
		}
	default:
		return Block{}, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, tag)
	}

	if b.CompressedSize, err = checkedSize(len(b.Payload)); err != nil {
		return Block{}, err
	}

	return b, nil
}

// Decompress decodes b and checks both declared sizes.
func Decompress(b Block) ([]byte, error) {
	if uint64(len(b.Payload)) != uint64(b.CompressedSize) {
		return nil, fmt.Errorf("%w: payload %d bytes, declared %d", ErrCorruptBlock, len(b.Payload), b.CompressedSize)
	}

	n := int(b.DecompressedSize)
	var (
		out []byte
		err error
	)

	switch b.Tag {
	case TagRW:
		if len(b.Payload) != n {
			return nil, fmt.Errorf("%w: stored block %d bytes, declared %d", ErrCorruptBlock, len(b.Payload), n)
		}
		out = append([]byte(nil), b.Payload...)
	case TagLZ:
		src := bytes.NewReader(b.Payload)
		if out, err = lzDecode(src, n); err != nil {
			return nil, err
		}
		if src.Len() != 0 {
			return nil, fmt.Errorf("%w: %d payload bytes left after decode", ErrCorruptBlock, src.Len())
		}
	case TagHFIRW:
		nodes, _, err := parseHuffmanTable(b.Header)
		if err != nil {
			return nil, err
		}
		if out, err = huffmanDecode(nodes, b.Payload, n); err != nil {
			return nil, err
		}
	case TagHFI:
		nodes, _, err := parseHuffmanTable(b.Header)
		if err != nil {
			return nil, err
		}
		d := newHuffmanDecoder(nodes, b.Payload)
		if out, err = lzDecode(d, n); err != nil {
			return nil, err
		}
		if d.consumed() != len(b.Payload) {
			return nil, fmt.Errorf("%w: huffman used %d of %d payload bytes", ErrCorruptBlock, d.consumed(), len(b.Payload))
		}
	case TagLZSS:
		if out, err = decompressLZSS(b.Payload, n); err != nil {
			return nil, err
		}
	case TagLZ4:
		if out, err = decompressLZ4(b.Payload, n); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, b.Tag)
	}

	if len(out) != n {
		return nil, fmt.Errorf("%w: decoded %d bytes, declared %d", ErrCorruptBlock, len(out), n)
	}

	return out, nil
}

// compressLZSS compresses data with the default LZSS options.
func compressLZSS(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}

	out, err := lzss.Compress(data, lzss.DefaultCompressOptions())
	if err != nil {
		return nil, fmt.Errorf("lzss compress: %w", err)
	}

	return out, nil
}

// decompressLZSS expands an LZSS payload into exactly n bytes.
func decompressLZSS(payload []byte, n int) ([]byte, error) {
	if n == 0 {
		if len(payload) != 0 {
			return nil, fmt.Errorf("%w: empty lzss block carries %d bytes", ErrCorruptBlock, len(payload))
		}
		return []byte{}, nil
	}

	var buf bytes.Buffer
	buf.Grow(min(n, maxPrealloc))
	consumed, err := lzss.DecompressToWriter(&buf, bytes.NewReader(payload), n, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: lzss: %w", ErrCorruptBlock, err)
	}
	if consumed != int64(len(payload)) {
		return nil, fmt.Errorf("%w: lzss stream ends after %d of %d bytes", ErrCorruptBlock, consumed, len(payload))
	}

	return buf.Bytes(), nil
}

// compressLZ4 writes data as one LZ4 frame.
func compressLZ4(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("lz4 close: %w", err)
	}

	return buf.Bytes(), nil
}

// decompressLZ4 reads exactly n bytes from an LZ4 frame and requires the frame to end there.
func decompressLZ4(payload []byte, n int) ([]byte, error) {
	src := bytes.NewReader(payload)
	zr := lz4.NewReader(src)

	var buf bytes.Buffer
	buf.Grow(min(n, maxPrealloc))
	if _, err := io.CopyN(&buf, zr, int64(n)); err != nil {
		return nil, fmt.Errorf("%w: lz4: %w", ErrCorruptBlock, err)
	}

	var extra [1]byte
	_, err := io.ReadFull(zr, extra[:])
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: lz4 frame longer than %d bytes", ErrCorruptBlock, n)
	case !errors.Is(err, io.EOF):
		return nil, fmt.Errorf("%w: lz4: %w", ErrCorruptBlock, err)
	}

	if src.Len() != 0 {
		return nil, fmt.Errorf("%w: %d bytes after lz4 frame", ErrCorruptBlock, src.Len())
	}

	return buf.Bytes(), nil
}
