// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package jpk

import (
	"container/heap"
	"encoding/binary"
	"fmt"
)

// Huffman table layout.
const (
	hfLeafLimit = 0x100 // values below are leaf symbols, others are 0x100+node
	hfNodeSize  = 4     // left u16 + right u16
	hfCountSize = 2     // node count u16
	hfMaxNodes  = 0xFF  // 256 leaves need 255 internal nodes
)

// hfNode is one internal tree node; each child is a leaf symbol or 0x100+node index.
type hfNode struct {
	left  uint16
	right uint16
}

// parseHuffmanTable reads the node table and returns the nodes plus consumed size.
func parseHuffmanTable(b []byte) ([]hfNode, int, error) {
	if len(b) < hfCountSize {
		return nil, 0, fmt.Errorf("%w: huffman node count", ErrTruncatedStream)
	}

	count := int(binary.LittleEndian.Uint16(b))
	if count > hfMaxNodes {
		return nil, 0, fmt.Errorf("%w: %d huffman nodes", ErrCorruptBlock, count)
	}

	size := hfCountSize + count*hfNodeSize
	if len(b) < size {
		return nil, 0, fmt.Errorf("%w: huffman table needs %d bytes, have %d", ErrTruncatedStream, size, len(b))
	}

	nodes := make([]hfNode, count)
	for i := range nodes {
		off := hfCountSize + i*hfNodeSize
		nodes[i] = hfNode{
			left:  binary.LittleEndian.Uint16(b[off:]),
			right: binary.LittleEndian.Uint16(b[off+2:]),
		}

		for _, child := range [2]uint16{nodes[i].left, nodes[i].right} {
			if child >= hfLeafLimit && int(child-hfLeafLimit) >= i {
				return nil, 0, fmt.Errorf("%w: huffman node %d references node %d", ErrCorruptBlock, i, child-hfLeafLimit)
			}
		}
	}

	return nodes, size, nil
}

// marshalHuffmanTable encodes nodes in wire order.
func marshalHuffmanTable(nodes []hfNode) []byte {
	out := make([]byte, hfCountSize+len(nodes)*hfNodeSize)
	binary.LittleEndian.PutUint16(out, uint16(len(nodes))) //nolint:gosec // at most hfMaxNodes
	for i, n := range nodes {
		off := hfCountSize + i*hfNodeSize
		binary.LittleEndian.PutUint16(out[off:], n.left)
		binary.LittleEndian.PutUint16(out[off+2:], n.right)
	}

	return out
}

// hfDecoder yields symbols from an MSB-first bitstream; it implements io.ByteReader.
type hfDecoder struct {
	nodes []hfNode
	src   []byte
	pos   int // next unread byte
	cur   byte
	shift int
}

// newHuffmanDecoder prepares symbol decoding of src with nodes.
func newHuffmanDecoder(nodes []hfNode, src []byte) *hfDecoder {
	return &hfDecoder{nodes: nodes, src: src, shift: -1}
}

// ReadByte decodes one symbol.
func (d *hfDecoder) ReadByte() (byte, error) {
	if len(d.nodes) == 0 {
		return 0, fmt.Errorf("%w: empty huffman tree", ErrCorruptBlock)
	}

	node := len(d.nodes) - 1
	for {
		if d.shift < 0 {
			if d.pos >= len(d.src) {
				return 0, fmt.Errorf("%w: huffman bitstream ended early", ErrCorruptBlock)
			}
			d.cur = d.src[d.pos]
			d.pos++
			d.shift = 7
		}

		bit := (d.cur >> d.shift) & 1
		d.shift--

		child := d.nodes[node].left
		if bit != 0 {
			child = d.nodes[node].right
		}

		if child < hfLeafLimit {
			return byte(child), nil
		}
		node = int(child - hfLeafLimit)
	}
}

// consumed returns the number of bitstream bytes touched so far.
func (d *hfDecoder) consumed() int {
	return d.pos
}

// huffmanDecode decodes exactly n symbols and checks the whole bitstream was used.
func huffmanDecode(nodes []hfNode, src []byte, n int) ([]byte, error) {
	d := newHuffmanDecoder(nodes, src)
	out := make([]byte, 0, min(n, maxPrealloc))
	for len(out) < n {
		b, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}

	if d.consumed() != len(src) {
		return nil, fmt.Errorf("%w: huffman used %d of %d payload bytes", ErrCorruptBlock, d.consumed(), len(src))
	}

	return out, nil
}

// hfItem is a heap entry; seq breaks weight ties deterministically.
type hfItem struct {
	weight uint64
	seq    int
	ref    uint16
}

// hfHeap is a min-heap over (weight, seq).
type hfHeap []hfItem

func (h hfHeap) Len() int {
	return len(h)
}

func (h hfHeap) Less(i, j int) bool {
	if h[i].weight != h[j].weight {
		return h[i].weight < h[j].weight
	}

	return h[i].seq < h[j].seq
}

func (h hfHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *hfHeap) Push(x any) {
	*h = append(*h, x.(hfItem)) //nolint:forcetypeassert // heap holds only hfItem
}

func (h *hfHeap) Pop() any {
	old := *h
	it := old[len(old)-1]
	*h = old[:len(old)-1]
	return it
}

// buildHuffmanTree builds a tree for data; empty input yields no nodes.
func buildHuffmanTree(data []byte) []hfNode {
	if len(data) == 0 {
		return nil
	}

	var freq [256]uint64
	for _, b := range data {
		freq[b]++
	}

	h := make(hfHeap, 0, 256)
	for sym, f := range freq {
		if f > 0 {
			h = append(h, hfItem{weight: f, seq: sym, ref: uint16(sym)}) //nolint:gosec // sym < 256
		}
	}

	// a single symbol still needs a two-leaf root
	if len(h) == 1 {
		other := (int(h[0].ref) + 1) & 0xFF
		h = append(h, hfItem{weight: 0, seq: other, ref: uint16(other)}) //nolint:gosec // other < 256
	}

	heap.Init(&h)
	nodes := make([]hfNode, 0, len(h)-1)
	for h.Len() > 1 {
		a := heap.Pop(&h).(hfItem) //nolint:forcetypeassert // heap holds only hfItem
		b := heap.Pop(&h).(hfItem) //nolint:forcetypeassert // heap holds only hfItem
		idx := len(nodes)
		nodes = append(nodes, hfNode{left: a.ref, right: b.ref})
		heap.Push(&h, hfItem{
			weight: a.weight + b.weight,
			seq:    hfLeafLimit + idx,
			ref:    uint16(hfLeafLimit + idx), //nolint:gosec // idx < hfMaxNodes
		})
	}

	return nodes
}

// hfCode is a symbol code of length bits, MSB-first in the low bits of value.
type hfCode struct {
	value uint64
	bits  uint8
}

// huffmanCodes walks the tree from the root and returns codes per symbol.
func huffmanCodes(nodes []hfNode) [256]hfCode {
	var codes [256]hfCode
	if len(nodes) == 0 {
		return codes
	}

	var walk func(ref uint16, code hfCode)
	walk = func(ref uint16, code hfCode) {
		if ref < hfLeafLimit {
			codes[ref] = code
			return
		}

		n := nodes[ref-hfLeafLimit]
		walk(n.left, hfCode{value: code.value << 1, bits: code.bits + 1})
		walk(n.right, hfCode{value: code.value<<1 | 1, bits: code.bits + 1})
	}
	walk(uint16(hfLeafLimit+len(nodes)-1), hfCode{}) //nolint:gosec // len(nodes) <= hfMaxNodes

	return codes
}

// huffmanEncode returns the node table and MSB-first bitstream for data.
func huffmanEncode(data []byte) ([]hfNode, []byte) {
	nodes := buildHuffmanTree(data)
	codes := huffmanCodes(nodes)

	out := make([]byte, 0, len(data)/2+1)
	var acc byte
	var fill uint8
	for _, b := range data {
		c := codes[b]
		for i := int(c.bits) - 1; i >= 0; i-- {
			acc = acc<<1 | byte(c.value>>uint(i)&1)
			fill++
			if fill == 8 {
				out = append(out, acc)
				acc, fill = 0, 0
			}
		}
	}

	if fill > 0 {
		out = append(out, acc<<(8-fill))
	}

	return nodes, out
}
