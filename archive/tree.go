// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package archive

import (
	"errors"
	"fmt"
)

// DefaultMaxDepth bounds nested container recursion.
const DefaultMaxDepth = 8

// Node is one member of a recursively unpacked stage container.
// Exactly one of Data or Children is meaningful: IsLeaf reports which.
type Node struct {
	// Name is the generated member name ("0001.momo").
	Name string `json:"name" yaml:"name"`
	// Data is the raw payload for leaves.
	Data []byte `json:"-" yaml:"-"`
	// Children are nested members when the payload is itself an archive.
	Children []*Node `json:"children,omitempty" yaml:"children,omitempty"`
	// Alignment is detected payload alignment of a nested archive.
	Alignment uint32 `json:"alignment,omitempty" yaml:"alignment,omitempty"`
	// Depth is nesting level, root is 0.
	Depth int `json:"depth" yaml:"depth"`
	// Size is the member length at unpack time; for containers, the archive stream size.
	Size int64 `json:"size,omitempty" yaml:"size,omitempty"`
	// Offset is the payload offset inside the parent archive.
	Offset uint32 `json:"offset,omitempty" yaml:"offset,omitempty"`
	// container marks nodes parsed from a nested archive.
	container bool
}

// IsLeaf reports whether n carries raw data rather than nested members.
func (n *Node) IsLeaf() bool {
	return !n.container
}

// NewContainerNode builds a container node from already loaded members.
func NewContainerNode(name string, alignment uint32, depth int, children []*Node) *Node {
	return &Node{
		Name:      name,
		Alignment: alignment,
		Depth:     depth,
		Children:  children,
		container: true,
	}
}

// Leaves returns leaf count of the subtree.
func (n *Node) Leaves() int {
	if n.IsLeaf() {
		return 1
	}

	total := 0
	for _, c := range n.Children {
		total += c.Leaves()
	}

	return total
}

// UnpackTree parses data as an archive and descends into members that are archives themselves.
// Nested members that fail to parse as archives are kept as leaves.
// Nesting deeper than maxDepth fails with ErrRecursionLimitExceeded; maxDepth <= 0 means DefaultMaxDepth.
func UnpackTree(data []byte, maxDepth int) (*Node, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	return unpackNode("", data, 0, maxDepth, true)
}

// unpackNode parses one level; strict controls whether parse failures are returned or demoted to leaves.
func unpackNode(name string, data []byte, depth int, maxDepth int, strict bool) (*Node, error) {
	header, entries, members, err := Unpack(data)
	if err != nil {
		if strict {
			return nil, err
		}

		return &Node{Name: name, Data: data, Depth: depth, Size: int64(len(data))}, nil
	}

	if depth > maxDepth {
		return nil, fmt.Errorf("%w: depth %d exceeds %d", ErrRecursionLimitExceeded, depth, maxDepth)
	}

	node := &Node{
		Name:      name,
		Alignment: DetectAlignment(header, entries),
		Depth:     depth,
		Size:      int64(len(data)),
		container: true,
		Children:  make([]*Node, 0, len(members)),
	}

	for i, m := range members {
		if !IsArchive(m.Data) {
			node.Children = append(node.Children, &Node{
				Name:   m.Name,
				Data:   m.Data,
				Depth:  depth + 1,
				Size:   int64(len(m.Data)),
				Offset: entries[i].Offset,
			})
			continue
		}

		child, err := unpackNode(m.Name, m.Data, depth+1, maxDepth, false)
		if err != nil {
			return nil, err
		}
		child.Offset = entries[i].Offset

		node.Children = append(node.Children, child)
	}

	return node, nil
}

// PackTree rebuilds the archive bytes of n bottom-up.
// A level whose members all kept their recorded size is rebuilt at the recorded offsets;
// otherwise members are laid out contiguously at the level's alignment.
func PackTree(n *Node) ([]byte, error) {
	if n == nil {
		return nil, errors.New("nil node")
	}

	if n.IsLeaf() {
		return n.Data, nil
	}

	members := make([]Member, len(n.Children))
	for i, c := range n.Children {
		data, err := PackTree(c)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}

		members[i] = Member{Name: c.Name, Data: data}
	}

	if offsets, ok := recordedLayout(n, members); ok {
		if data, err := PackExact(members, offsets, n.Size); err == nil {
			return data, nil
		}
	}

	alignment := n.Alignment
	if alignment == 0 {
		alignment = DefaultAlignment
	}

	return PackBytes(members, PackOptions{Alignment: alignment})
}

// recordedLayout returns the member offsets of n when no member changed size since unpack.
func recordedLayout(n *Node, members []Member) ([]uint32, bool) {
	if n.Size <= 0 {
		return nil, false
	}

	offsets := make([]uint32, len(members))
	for i, c := range n.Children {
		if int64(len(members[i].Data)) != c.Size {
			return nil, false
		}
		offsets[i] = c.Offset
	}

	return offsets, true
}
