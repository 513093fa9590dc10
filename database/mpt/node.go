// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package mpt

import (
	"bytes"
	"fmt"

	"github.com/triechain/statedb/common"
	"github.com/triechain/statedb/rlp"
)

// Node is the tagged union of the three node variants a trie may contain:
// LeafNode, ExtensionNode, and BranchNode. There is no "empty node" variant;
// the absence of a node is represented by the distinguished EmptyNodeHash
// value wherever a reference to a node would otherwise appear.
type Node interface {
	isNode()
}

// LeafNode represents a terminal key whose remaining path below its parent
// is Partial. Value is always non-empty; a Leaf with an empty value is not a
// legal trie state (Law: the trie never holds a node with no information).
type LeafNode struct {
	Partial Path
	Value   []byte
}

func (*LeafNode) isNode() {}

// ExtensionNode shortcuts a run of nodes with a single child by holding the
// shared Prefix explicitly; it always wraps exactly one Branch, never
// another Extension or a Leaf.
type ExtensionNode struct {
	Prefix Path
	Child  NodeHash
}

func (*ExtensionNode) isNode() {}

// BranchNode dispatches on the next nibble of the path into one of sixteen
// children. Value holds the value of a key that terminates exactly at this
// node; it is empty when no such key exists.
type BranchNode struct {
	Choices [16]NodeHash
	Value   []byte
}

func (*BranchNode) isNode() {}

// NodeHash is the content address of an encoded node: either the 32-byte
// Keccak256 digest of the encoding (when the encoding is 32 bytes or
// longer), or the encoding itself (when shorter). The struct holds a slice
// and so cannot be compared with ==; Equal compares two references by
// content. It forms the unit of persistence:
// only Hashed references are ever written to the backing key-value store,
// since Inline references already carry their full content.
type NodeHash struct {
	hashed bool
	hash   common.Hash
	inline []byte
}

// HashedNodeHash constructs a NodeHash referring to a node by its 32-byte
// digest.
func HashedNodeHash(h common.Hash) NodeHash {
	return NodeHash{hashed: true, hash: h}
}

// InlineNodeHash constructs a NodeHash carrying the node's own encoding,
// for encodings shorter than 32 bytes.
func InlineNodeHash(encoding []byte) NodeHash {
	cp := make([]byte, len(encoding))
	copy(cp, encoding)
	return NodeHash{inline: cp}
}

// NodeHashOf applies the node-hash rule of §4.C to an already-computed node
// encoding: identity (inline) if shorter than 32 bytes, else the Keccak256
// digest.
func NodeHashOf(encoding []byte) NodeHash {
	if len(encoding) < common.HashSize {
		return InlineNodeHash(encoding)
	}
	return HashedNodeHash(common.Keccak256(encoding))
}

// EmptyNodeHash is the distinguished reference used for unused Branch
// slots and for the root of an empty trie. It equals the RLP encoding of
// the empty string (0x80), which is one byte long and therefore always
// inline, so it is never persisted.
var EmptyNodeHash = NodeHashOf(rlp.Encode(rlp.String{}))

// IsHashed reports whether this reference addresses a node by its digest
// rather than carrying the encoding inline.
func (h NodeHash) IsHashed() bool {
	return h.hashed
}

// IsEmpty reports whether this reference is the distinguished empty marker.
func (h NodeHash) IsEmpty() bool {
	return h.Equal(EmptyNodeHash)
}

// Hash returns the 32-byte digest and true if this reference is hashed;
// otherwise it returns the zero hash and false.
func (h NodeHash) Hash() (common.Hash, bool) {
	return h.hash, h.hashed
}

// Inline returns the raw encoding carried by this reference and true if it
// is inline; otherwise it returns nil and false.
func (h NodeHash) Inline() ([]byte, bool) {
	if h.hashed {
		return nil, false
	}
	return h.inline, true
}

// Bytes returns the canonical byte representation used when this reference
// is itself written out as an RLP string (only meaningful for hashed
// references; inline references must be spliced as raw RLP, see
// nodeHashRLPItem).
func (h NodeHash) Bytes() []byte {
	if h.hashed {
		return h.hash[:]
	}
	return h.inline
}

// Equal reports whether h and other address the same node.
func (h NodeHash) Equal(other NodeHash) bool {
	if h.hashed != other.hashed {
		return false
	}
	if h.hashed {
		return h.hash == other.hash
	}
	return bytes.Equal(h.inline, other.inline)
}

func (h NodeHash) String() string {
	if h.hashed {
		return h.hash.String()
	}
	return fmt.Sprintf("inline:%x", h.inline)
}
