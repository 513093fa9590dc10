// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package mpt implements a Merkle Patricia Trie with content-addressed node
// persistence: a purely functional, hash-addressed tree in which every
// mutation produces a new root while leaving all previously reachable nodes
// intact in the backing store.
package mpt

// Nibble is a 4-bit value in the range [0,16). It is the unit of navigation
// in the trie: every key is split into a sequence of nibbles, high half of
// each byte first.
type Nibble byte

// Rune converts a Nibble into its hexadecimal rune (0-9a-f).
func (n Nibble) Rune() rune {
	if n < 10 {
		return rune('0' + n)
	}
	if n < 16 {
		return rune('a' + n - 10)
	}
	return '?'
}

// String converts a Nibble into its hexadecimal string (0-9a-f).
func (n Nibble) String() string {
	return string(n.Rune())
}
