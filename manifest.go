// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package refrontier

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/woozymasta/refrontier/archive"
	"github.com/woozymasta/refrontier/internal/format"
)

// Manifest records how an archive was unpacked so it can be rebuilt byte-identically.
// Unedited members are placed back at their recorded offsets.
type Manifest struct {
	// Source is the unpacked file name.
	Source string `msgpack:"source" json:"source" yaml:"source"`
	// Entries lists members in table order.
	Entries []ManifestEntry `msgpack:"entries" json:"entries" yaml:"entries"`
	// Size is the original archive size.
	Size int64 `msgpack:"size" json:"size" yaml:"size"`
	// Alignment is the detected payload alignment.
	Alignment uint32 `msgpack:"alignment" json:"alignment" yaml:"alignment"`
	// Magic is the container tag.
	Magic uint32 `msgpack:"magic" json:"magic" yaml:"magic"`
}

// ManifestEntry is one member; Nested is set when the member was unpacked as a stage container.
type ManifestEntry struct {
	// Nested describes the member directory for nested containers.
	Nested *Manifest `msgpack:"nested,omitempty" json:"nested,omitempty" yaml:"nested,omitempty"`
	// Name is the member file name, or the nested directory name without SuffixUnpacked.
	Name string `msgpack:"name" json:"name" yaml:"name"`
	// Size is the member size at unpack time.
	Size uint32 `msgpack:"size" json:"size" yaml:"size"`
	// Offset is the payload offset in the source archive.
	Offset uint32 `msgpack:"offset" json:"offset" yaml:"offset"`
}

// manifestBody drops the Manifest methods so msgpack encodes the fields
// instead of calling back into MarshalBinary.
type manifestBody Manifest

// MarshalBinary encodes m as RFMF tag plus MessagePack body.
func (m *Manifest) MarshalBinary() ([]byte, error) {
	body, err := msgpack.Marshal((*manifestBody)(m))
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	magic := format.MagicManifest.Bytes()
	out := make([]byte, 0, format.MagicSize+len(body))
	out = append(out, magic[:]...)
	return append(out, body...), nil
}

// UnmarshalBinary decodes an RFMF manifest.
func (m *Manifest) UnmarshalBinary(data []byte) error {
	if format.DetectMagic(data) != format.MagicManifest {
		return fmt.Errorf("%w: not a manifest", ErrMalformedHeader)
	}

	if err := msgpack.Unmarshal(data[format.MagicSize:], (*manifestBody)(m)); err != nil {
		return fmt.Errorf("%w: decode manifest: %w", ErrMalformedHeader, err)
	}

	return nil
}

// ReadManifest loads a manifest file.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read manifest: %w", ErrIOFailure, err)
	}

	m := &Manifest{}
	if err := m.UnmarshalBinary(data); err != nil {
		return nil, err
	}

	return m, nil
}

// manifestFromTree describes an unpacked tree node.
func manifestFromTree(source string, n *archive.Node, size int64) *Manifest {
	m := &Manifest{
		Source:    source,
		Alignment: n.Alignment,
		Size:      size,
		Magic:     uint32(format.MagicArchive),
		Entries:   make([]ManifestEntry, 0, len(n.Children)),
	}

	for _, c := range n.Children {
		e := ManifestEntry{Name: c.Name, Offset: c.Offset}
		if c.IsLeaf() {
			e.Size = uint32(len(c.Data)) //nolint:gosec // members come from a uint32 table
		} else {
			e.Size = uint32(c.Size) //nolint:gosec // members come from a uint32 table
			e.Nested = manifestFromTree(c.Name, c, c.Size)
		}
		m.Entries = append(m.Entries, e)
	}

	return m
}

// writeTree writes n's members into dir; nested containers get their own SuffixUnpacked directory.
func writeTree(sink OutputSink, dir string, n *archive.Node) ([]string, error) {
	if err := sink.MkdirAll(dir); err != nil {
		return nil, err
	}

	var outputs []string
	for _, c := range n.Children {
		if !c.IsLeaf() {
			nested, err := writeTree(sink, filepath.Join(dir, c.Name+SuffixUnpacked), c)
			if err != nil {
				return nil, err
			}
			outputs = append(outputs, nested...)
			continue
		}

		path := filepath.Join(dir, c.Name)
		if err := sink.WriteFile(path, c.Data); err != nil {
			return nil, err
		}
		outputs = append(outputs, path)
	}

	return outputs, nil
}

// treeFromManifest loads member files listed by m from dir.
func treeFromManifest(dir string, m *Manifest, depth int, maxDepth int) (*archive.Node, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: manifest depth %d exceeds %d", ErrRecursionLimitExceeded, depth, maxDepth)
	}

	members := make([]*archive.Node, 0, len(m.Entries))
	for _, e := range m.Entries {
		if err := checkMemberName(e.Name); err != nil {
			return nil, err
		}

		if e.Nested != nil {
			child, err := treeFromManifest(filepath.Join(dir, e.Name+SuffixUnpacked), e.Nested, depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			child.Name = e.Name
			child.Offset = e.Offset
			members = append(members, child)
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, e.Name))
		if err != nil {
			return nil, fmt.Errorf("%w: read member %s: %w", ErrIOFailure, e.Name, err)
		}
		members = append(members, &archive.Node{
			Name:   e.Name,
			Data:   data,
			Depth:  depth + 1,
			Size:   int64(e.Size),
			Offset: e.Offset,
		})
	}

	node := archive.NewContainerNode("", m.Alignment, depth, members)
	node.Size = m.Size
	return node, nil
}
