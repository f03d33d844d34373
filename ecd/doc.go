// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

/*
Package ecd encrypts and decrypts ECD and EXF obfuscated streams.

Both share a 16-byte header:

	magic u32 | key_index u16 | reserved u16 | payload_size u32 | seed u32

ECD seeds a 32-bit LCG with the plaintext CRC-32 and runs an 8-round nibble
Feistel network per byte, chained on the previous plaintext byte; Decrypt
verifies the CRC. EXF expands the seed into a 16-word key buffer and XORs
each byte with a position-dependent key byte.

	stream, err := ecd.Encrypt(data, ecd.Options{KeyIndex: ecd.DefaultKeyIndex})
	if err != nil {
	    return err
	}
	plain, hdr, err := ecd.Decrypt(stream)
*/
package ecd
