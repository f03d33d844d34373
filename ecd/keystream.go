// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package ecd

import "fmt"

// lcgParams is one multiplier/increment pair of the keystream generator.
type lcgParams struct {
	mul uint32
	add uint32
}

// keyTable holds the generator constants selected by Header.KeyIndex.
var keyTable = [...]lcgParams{
	{mul: 0x4A4B522E, add: 0x00000001},
	{mul: 0x00010DCD, add: 0x00000001},
	{mul: 0x00010DCD, add: 0x00000001},
	{mul: 0x00010DCD, add: 0x00000001},
	{mul: 0x0019660D, add: 0x00000003},
	{mul: 0x7D2B89DD, add: 0x00000001},
}

// KeyCount is the number of key table slots.
const KeyCount = len(keyTable)

// keystream is a 32-bit linear congruential generator.
type keystream struct {
	state uint32
	p     lcgParams
}

// newKeystream seeds the generator for key index idx.
func newKeystream(idx uint16, seed uint32) (*keystream, error) {
	if int(idx) >= len(keyTable) {
		return nil, fmt.Errorf("%w: key index %d (max %d)", ErrUnsupportedAlgorithm, idx, len(keyTable)-1)
	}

	return &keystream{
		state: seed<<16 | seed>>16 | 1,
		p:     keyTable[idx],
	}, nil
}

// next advances the generator and returns the new state.
func (k *keystream) next() uint32 {
	k.state = k.state*k.p.mul + k.p.add
	return k.state
}
