// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"sync"

	"golang.org/x/crypto/sha3"
)

// Keccak256 computes the Keccak256 digest of the given byte slice. This is
// the hash function used throughout the trie for both key hashing and node
// addressing.
func Keccak256(data []byte) Hash {
	hasher := keccakHasherPool.Get().(keccakHasher)
	hasher.Reset()
	hasher.Write(data)
	var res Hash
	hasher.Read(res[:])
	keccakHasherPool.Put(hasher)
	return res
}

// Keccak256ForAddress computes the Keccak256 digest of a 20-byte address.
func Keccak256ForAddress(addr Address) Hash {
	return Keccak256(addr[:])
}

// Keccak256ForKey computes the Keccak256 digest of a 32-byte storage key.
func Keccak256ForKey(key Key) Hash {
	return Keccak256(key[:])
}

var keccakHasherPool = sync.Pool{New: func() any { return sha3.NewLegacyKeccak256() }}

type keccakHasher interface {
	Reset()
	Write(in []byte) (int, error)
	Read(out []byte) (int, error)
}

// EmptyKeccak256Hash is the digest of the empty byte string, precomputed
// since it is used as the code hash of an account with no code. It is not
// the empty-trie root, which is the digest of the RLP empty string (0x80).
var EmptyKeccak256Hash = Keccak256(nil)
