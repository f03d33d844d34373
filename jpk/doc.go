// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

/*
Package jpk implements the JKR compressed block format.

A block is

	tag u8 | decompressed_size u32 | compressed_size u32 | algorithm header | payload

and a JKR file is the "JKR\x1A" tag followed by exactly one block.

Algorithms:
  - rw (0): stored bytes;
  - hfirw (2): Huffman over raw bytes;
  - lz (3): flag-bit LZ77, 8 KiB window, matches of 3..280 bytes, raw literal runs;
  - hfi (4): Huffman over the lz token stream;
  - lzss (0x10): github.com/woozymasta/lzss stream;
  - lz4 (0x11): one LZ4 frame.

Huffman blocks carry a node table (count u16, then left/right u16 pairs) where
values below 0x100 are leaves, 0x100+k names node k and the last node is the
root. Decoding fails with ErrCorruptBlock unless it yields exactly the declared
size and consumes exactly the declared payload.

	raw, err := jpk.Encode(data, jpk.TagHFI)
	if err != nil {
	    return err
	}
	plain, err := jpk.Decode(raw)
*/
package jpk
