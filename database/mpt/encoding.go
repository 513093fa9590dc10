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
	"fmt"

	"github.com/triechain/statedb/common"
	"github.com/triechain/statedb/rlp"
)

// hexPrefix produces the compact hex-prefix encoding of a nibble path
// defined by the Ethereum yellow paper: a single flag byte
// (is_leaf<<5)|(odd<<4)|(first_nibble if odd else 0) followed by the
// remaining nibbles packed two per byte.
func hexPrefix(p Path, isLeaf bool) []byte {
	nibbles := p.ToNibbles()
	odd := len(nibbles)%2 == 1

	flag := byte(0)
	if isLeaf {
		flag |= 1 << 5
	}
	if odd {
		flag |= 1 << 4
		flag |= byte(nibbles[0]) & 0xF
		nibbles = nibbles[1:]
	}

	res := make([]byte, 1+len(nibbles)/2)
	res[0] = flag
	for i := 0; i < len(nibbles); i += 2 {
		res[1+i/2] = byte(nibbles[i])<<4 | byte(nibbles[i+1])
	}
	return res
}

// decodeHexPrefix parses the compact encoding produced by hexPrefix, and
// reports whether the flag byte marked the path as belonging to a Leaf
// (true) or an Extension (false).
func decodeHexPrefix(b []byte) (Path, bool, error) {
	if len(b) == 0 {
		return Path{}, false, newCorruptionError("hex-prefix encoding is empty")
	}
	flag := b[0]
	isLeaf := flag&(1<<5) != 0
	odd := flag&(1<<4) != 0

	nibbles := make([]Nibble, 0, 2*len(b))
	if odd {
		nibbles = append(nibbles, Nibble(flag&0xF))
	}
	for _, c := range b[1:] {
		nibbles = append(nibbles, Nibble(c>>4), Nibble(c&0xF))
	}
	return PathFromNibbles(nibbles), isLeaf, nil
}

// nodeHashRLPItem renders a NodeHash as the RLP item that belongs in a
// parent's Branch/Extension slot: a 32-byte string when hashed, or the raw
// already-encoded bytes spliced directly into the list when inline (per
// §4.D.1, "raw RLP if inline").
func nodeHashRLPItem(h NodeHash) rlp.Item {
	if h.hashed {
		hash := h.hash
		return rlp.Hash{Hash: &hash}
	}
	return rlp.Encoded{Data: h.inline}
}

// Encode produces the canonical RLP encoding of a node as defined in
// §4.D.1. This is the encoding hashed (or embedded, if short) to produce
// the node's NodeHash, and the exact byte-for-byte form persisted to the
// backing store.
func Encode(n Node) []byte {
	switch t := n.(type) {
	case *LeafNode:
		return rlp.Encode(rlp.List{Items: []rlp.Item{
			rlp.String{Str: hexPrefix(t.Partial, true)},
			rlp.String{Str: t.Value},
		}})
	case *ExtensionNode:
		return rlp.Encode(rlp.List{Items: []rlp.Item{
			rlp.String{Str: hexPrefix(t.Prefix, false)},
			nodeHashRLPItem(t.Child),
		}})
	case *BranchNode:
		items := make([]rlp.Item, 17)
		for i := 0; i < 16; i++ {
			items[i] = nodeHashRLPItem(t.Choices[i])
		}
		items[16] = rlp.String{Str: t.Value}
		return rlp.Encode(rlp.List{Items: items})
	default:
		panic(fmt.Sprintf("unsupported node type %T", n))
	}
}

// Hash computes the NodeHash of a node by applying the node-hash rule to
// its canonical encoding.
func Hash(n Node) NodeHash {
	return NodeHashOf(Encode(n))
}

// DecodeNode parses the canonical encoding of a single node, dispatching on
// its element count: two elements are a Leaf or an Extension (disambiguated
// by the hex-prefix flag byte), seventeen elements are a Branch.
func DecodeNode(encoding []byte) (Node, error) {
	item, err := rlp.DecodeExact(encoding)
	if err != nil {
		return nil, newCorruptionError("node encoding is not valid RLP: %v", err)
	}
	list, ok := item.(rlp.List)
	if !ok {
		return nil, newCorruptionError("node encoding is not an RLP list")
	}
	switch len(list.Items) {
	case 2:
		return decodeShortNode(list.Items)
	case 17:
		return decodeBranchNode(list.Items)
	default:
		return nil, newCorruptionError("node encoding has %d elements, want 2 or 17", len(list.Items))
	}
}

func decodeShortNode(items []rlp.Item) (Node, error) {
	keyItem, ok := items[0].(rlp.String)
	if !ok {
		return nil, newCorruptionError("node path is not an RLP string")
	}
	path, isLeaf, err := decodeHexPrefix(keyItem.Str)
	if err != nil {
		return nil, err
	}
	if isLeaf {
		valItem, ok := items[1].(rlp.String)
		if !ok {
			return nil, newCorruptionError("leaf value is not an RLP string")
		}
		value := make([]byte, len(valItem.Str))
		copy(value, valItem.Str)
		return &LeafNode{Partial: path, Value: value}, nil
	}
	child, err := decodeNodeHashItem(items[1])
	if err != nil {
		return nil, err
	}
	return &ExtensionNode{Prefix: path, Child: child}, nil
}

func decodeBranchNode(items []rlp.Item) (Node, error) {
	var branch BranchNode
	for i := 0; i < 16; i++ {
		h, err := decodeNodeHashItem(items[i])
		if err != nil {
			return nil, err
		}
		branch.Choices[i] = h
	}
	valItem, ok := items[16].(rlp.String)
	if !ok {
		return nil, newCorruptionError("branch value is not an RLP string")
	}
	if len(valItem.Str) > 0 {
		branch.Value = make([]byte, len(valItem.Str))
		copy(branch.Value, valItem.Str)
	}
	return &branch, nil
}

func decodeNodeHashItem(item rlp.Item) (NodeHash, error) {
	switch t := item.(type) {
	case rlp.String:
		if len(t.Str) == 0 {
			return EmptyNodeHash, nil
		}
		if len(t.Str) != common.HashSize {
			return NodeHash{}, newCorruptionError("node reference is neither empty nor a %d-byte hash", common.HashSize)
		}
		var h common.Hash
		copy(h[:], t.Str)
		return HashedNodeHash(h), nil
	case rlp.List:
		return NodeHashOf(rlp.Encode(t)), nil
	default:
		return NodeHash{}, newCorruptionError("unsupported node reference encoding")
	}
}
