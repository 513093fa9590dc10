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
	"testing"
)

func TestTrieState_GetNodeOfEmptyReferenceIsNilNil(t *testing.T) {
	s := NewTrieState(NewMemStore())
	n, err := s.GetNode(EmptyNodeHash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != nil {
		t.Errorf("got %v, want nil", n)
	}
}

func TestTrieState_GetNodeDecodesInlineWithoutStoreLookup(t *testing.T) {
	s := NewTrieState(NewMemStore())
	leaf := &LeafNode{Partial: PathFromNibbles([]Nibble{1}), Value: []byte("v")}
	hash := Hash(leaf)
	if hash.IsHashed() {
		t.Fatalf("test fixture expected an inline hash")
	}

	got, err := s.GetNode(hash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gotLeaf, ok := got.(*LeafNode)
	if !ok || !bytes.Equal(gotLeaf.Value, leaf.Value) {
		t.Errorf("got %+v, want %+v", got, leaf)
	}
}

func TestTrieState_InsertThenGetNodeHitsCacheBeforeCommit(t *testing.T) {
	store := NewMemStore()
	s := NewTrieState(store)
	leaf := &LeafNode{Partial: PathFromNibbles([]Nibble{1, 2, 3, 4, 5, 6, 7, 8}), Value: bytes.Repeat([]byte("x"), 40)}
	hash := Hash(leaf)
	if !hash.IsHashed() {
		t.Fatalf("test fixture expected a hashed reference")
	}
	s.InsertNode(leaf, hash)

	if store.Len() != 0 {
		t.Errorf("insert should not write through to the store before commit")
	}
	got, err := s.GetNode(hash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != Node(leaf) {
		t.Errorf("expected the cached node instance to be returned as-is")
	}
}

func TestTrieState_CommitWritesDirtyNodesReachableFromRoot(t *testing.T) {
	store := NewMemStore()
	s := NewTrieState(store)

	childLeaf := &LeafNode{Partial: PathFromNibbles([]Nibble{5, 6, 7, 8, 9, 0, 1, 2}), Value: bytes.Repeat([]byte("y"), 40)}
	childHash := Hash(childLeaf)
	s.InsertNode(childLeaf, childHash)

	ext := &ExtensionNode{Prefix: PathFromNibbles([]Nibble{0xa}), Child: childHash}
	rootHash := Hash(ext)
	s.InsertNode(ext, rootHash)

	if err := s.Commit(rootHash); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if store.Len() != 2 {
		t.Errorf("expected both root and child written, got %d entries", store.Len())
	}

	h, _ := childHash.Hash()
	encoding, err := store.Get(h[:])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(encoding, Encode(childLeaf)) {
		t.Errorf("child encoding mismatch")
	}
}

func TestTrieState_CommitIsIdempotent(t *testing.T) {
	store := NewMemStore()
	s := NewTrieState(store)
	leaf := &LeafNode{Partial: PathFromNibbles([]Nibble{1, 2, 3, 4, 5, 6, 7, 8}), Value: bytes.Repeat([]byte("z"), 40)}
	hash := Hash(leaf)
	s.InsertNode(leaf, hash)

	if err := s.Commit(hash); err != nil {
		t.Fatalf("first commit failed: %v", err)
	}
	if err := s.Commit(hash); err != nil {
		t.Fatalf("second commit failed: %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("got %d entries, want 1", store.Len())
	}
}

func TestTrieState_GetNodeOfDanglingHashIsCorruptionError(t *testing.T) {
	s := NewTrieState(NewMemStore())
	var missing [32]byte
	missing[0] = 0xee
	_, err := s.GetNode(HashedNodeHash(missing))
	if err == nil {
		t.Fatalf("expected an error for a dangling reference")
	}
	if _, ok := err.(*CorruptionError); !ok {
		t.Errorf("got %T, want *CorruptionError", err)
	}
}
