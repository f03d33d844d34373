// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package jpk

import (
	"fmt"
	"io"
)

// LZ token limits.
const (
	lzMinMatch     = 3
	lzMaxMatch     = 280
	lzWindow       = 8192 // max back distance
	lzShortMaxLen  = 6
	lzShortMaxDist = 256
	lzMidMaxLen    = 9
	lzNibbleMaxLen = 25
	lzRunMin       = 0x1B   // shortest raw literal run
	lzRunMax       = 0x201A // longest raw literal run (13-bit count + 0x1B)
	lzRunMarker    = 0xFF
	lzHashBits     = 14
	lzChainLimit   = 64
)

// lzDecode expands an LZ token stream from src into exactly n bytes.
func lzDecode(src io.ByteReader, n int) ([]byte, error) {
	out := make([]byte, 0, min(n, maxPrealloc))
	d := lzBitReader{src: src, shift: -1}

	for len(out) < n {
		bit, err := d.bit()
		if err != nil {
			return nil, err
		}

		if bit == 0 {
			b, err := d.byte()
			if err != nil {
				return nil, err
			}
			out = append(out, b)
			continue
		}

		if bit, err = d.bit(); err != nil {
			return nil, err
		}

		if bit == 0 {
			l, err := d.bits(2)
			if err != nil {
				return nil, err
			}
			off, err := d.byte()
			if err != nil {
				return nil, err
			}
			if out, err = lzCopy(out, int(off)+1, l+lzMinMatch, n); err != nil {
				return nil, err
			}
			continue
		}

		hi, err := d.byte()
		if err != nil {
			return nil, err
		}
		lo, err := d.byte()
		if err != nil {
			return nil, err
		}

		off := int(hi&0x1F)<<8 | int(lo)
		if l := int(hi >> 5); l != 0 {
			if out, err = lzCopy(out, off+1, l+2, n); err != nil {
				return nil, err
			}
			continue
		}

		if bit, err = d.bit(); err != nil {
			return nil, err
		}

		if bit == 0 {
			l, err := d.bits(4)
			if err != nil {
				return nil, err
			}
			if out, err = lzCopy(out, off+1, l+10, n); err != nil {
				return nil, err
			}
			continue
		}

		t, err := d.byte()
		if err != nil {
			return nil, err
		}

		if t != lzRunMarker {
			if out, err = lzCopy(out, off+1, int(t)+0x1A, n); err != nil {
				return nil, err
			}
			continue
		}

		run := off + lzRunMin
		if len(out)+run > n {
			return nil, fmt.Errorf("%w: literal run of %d overflows %d", ErrCorruptBlock, run, n)
		}
		for range run {
			b, err := d.byte()
			if err != nil {
				return nil, err
			}
			out = append(out, b)
		}
	}

	return out, nil
}

// lzCopy appends length bytes copied from dist bytes back, allowing overlap.
func lzCopy(out []byte, dist int, length int, n int) ([]byte, error) {
	if dist > len(out) {
		return nil, fmt.Errorf("%w: back reference %d before start at %d", ErrCorruptBlock, dist, len(out))
	}
	if len(out)+length > n {
		return nil, fmt.Errorf("%w: match of %d overflows %d", ErrCorruptBlock, length, n)
	}

	start := len(out) - dist
	for i := range length {
		out = append(out, out[start+i])
	}

	return out, nil
}

// lzBitReader pulls MSB-first flag bits from lazily loaded flag bytes.
type lzBitReader struct {
	src   io.ByteReader
	flag  byte
	shift int
}

// bit returns the next flag bit, loading a flag byte when the previous one is spent.
func (r *lzBitReader) bit() (int, error) {
	if r.shift < 0 {
		b, err := r.byte()
		if err != nil {
			return 0, err
		}
		r.flag = b
		r.shift = 7
	}

	v := int(r.flag>>r.shift) & 1
	r.shift--
	return v, nil
}

// bits returns n flag bits as an MSB-first integer.
func (r *lzBitReader) bits(n int) (int, error) {
	v := 0
	for range n {
		b, err := r.bit()
		if err != nil {
			return 0, err
		}
		v = v<<1 | b
	}

	return v, nil
}

// byte reads one data byte.
func (r *lzBitReader) byte() (byte, error) {
	b, err := r.src.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("%w: token stream ended early: %w", ErrCorruptBlock, err)
	}

	return b, nil
}

// lzBitWriter emits flag bits and data bytes in decoder order.
type lzBitWriter struct {
	out     []byte
	flagPos int
	shift   int
}

// bit appends one flag bit, reserving a new flag byte at the start of each group of 8.
func (w *lzBitWriter) bit(v int) {
	if w.shift < 0 {
		w.flagPos = len(w.out)
		w.out = append(w.out, 0)
		w.shift = 7
	}

	if v != 0 {
		w.out[w.flagPos] |= 1 << w.shift
	}
	w.shift--
}

// bits appends the low n bits of v MSB-first.
func (w *lzBitWriter) bits(v int, n int) {
	for i := n - 1; i >= 0; i-- {
		w.bit((v >> i) & 1)
	}
}

// byte appends one data byte.
func (w *lzBitWriter) byte(b byte) {
	w.out = append(w.out, b)
}

// literal emits one literal token.
func (w *lzBitWriter) literal(b byte) {
	w.bit(0)
	w.byte(b)
}

// literals emits pending literals, folding long stretches into raw runs.
func (w *lzBitWriter) literals(p []byte) {
	for len(p) >= lzRunMin {
		run := min(len(p), lzRunMax)
		off := run - lzRunMin
		w.bit(1)
		w.bit(1)
		w.byte(byte(off >> 8 & 0x1F))
		w.byte(byte(off))
		w.bit(1)
		w.byte(lzRunMarker)
		w.out = append(w.out, p[:run]...)
		p = p[run:]
	}

	for _, b := range p {
		w.literal(b)
	}
}

// match emits a back reference of length bytes from dist bytes back.
func (w *lzBitWriter) match(dist int, length int) {
	w.bit(1)
	if length <= lzShortMaxLen && dist <= lzShortMaxDist {
		w.bit(0)
		w.bits(length-lzMinMatch, 2)
		w.byte(byte(dist - 1))
		return
	}

	off := dist - 1
	w.bit(1)
	if length <= lzMidMaxLen {
		w.byte(byte((length-2)<<5 | off>>8&0x1F))
		w.byte(byte(off))
		return
	}

	w.byte(byte(off >> 8 & 0x1F))
	w.byte(byte(off))
	if length <= lzNibbleMaxLen {
		w.bit(0)
		w.bits(length-10, 4)
		return
	}

	w.bit(1)
	w.byte(byte(length - 0x1A))
}

// lzEncode compresses data into an LZ token stream with a greedy hash-chain matcher.
func lzEncode(data []byte) []byte {
	w := lzBitWriter{out: make([]byte, 0, len(data)/2+16), shift: -1}
	if len(data) == 0 {
		return w.out
	}

	head := make([]int, 1<<lzHashBits)
	for i := range head {
		head[i] = -1
	}
	prev := make([]int, len(data))

	insert := func(i int) {
		if i+lzMinMatch > len(data) {
			return
		}
		h := lzHash(data[i:])
		prev[i] = head[h]
		head[h] = i
	}

	litStart := 0
	i := 0
	for i < len(data) {
		bestLen, bestDist := 0, 0
		if i+lzMinMatch <= len(data) {
			maxLen := min(lzMaxMatch, len(data)-i)
			cand := head[lzHash(data[i:])]
			for steps := 0; cand >= 0 && steps < lzChainLimit; steps++ {
				dist := i - cand
				if dist > lzWindow {
					break
				}

				l := matchLen(data[cand:], data[i:], maxLen)
				if l > bestLen {
					bestLen, bestDist = l, dist
					if l == maxLen {
						break
					}
				}
				cand = prev[cand]
			}
		}

		if bestLen < lzMinMatch {
			insert(i)
			i++
			continue
		}

		w.literals(data[litStart:i])
		w.match(bestDist, bestLen)
		for j := i; j < i+bestLen; j++ {
			insert(j)
		}
		i += bestLen
		litStart = i
	}

	w.literals(data[litStart:])
	return w.out
}

// lzHash hashes the 3-byte prefix of b.
func lzHash(b []byte) uint32 {
	v := uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	return (v * 2654435761) >> (32 - lzHashBits)
}

// matchLen returns the common prefix length of a and b, capped at limit.
func matchLen(a, b []byte, limit int) int {
	n := 0
	for n < limit && a[n] == b[n] {
		n++
	}

	return n
}
