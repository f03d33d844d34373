// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

/*
Package archive reads and writes MOMO containers: a 4-byte tag, a little-endian
entry count and a table of absolute {offset, size} pairs followed by payloads.

# Reading

	r, err := archive.Open("stage.bin")
	if err != nil {
	    return err
	}
	defer r.Close()
	for _, e := range r.Entries() {
	    data, _ := r.ReadEntry(e.Index)
	    _ = data
	}

Entries must lie after the table, inside the stream and must not overlap;
zero-size entries are exempt from overlap checks.

# Packing

Pack writes payloads contiguously, each aligned to PackOptions.Alignment
(default 16) with zero padding, and pads the tail to the same alignment.
DetectAlignment recovers that convention from a parsed archive so

	hdr, entries, members, _ := archive.Unpack(data)
	out, _ := archive.PackBytes(members, archive.PackOptions{
	    Alignment: archive.DetectAlignment(hdr, entries),
	})

reproduces data byte-for-byte for archives written that way.

# Stage containers

UnpackTree descends into members that are archives themselves, carrying an
explicit depth counter. Members that carry the tag but fail to parse are kept
as leaves. PackTree rebuilds the whole tree bottom-up.
*/
package archive
