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

func TestTrie_EmptyTrieHashMatchesCanonicalConstant(t *testing.T) {
	trie := New(NewMemStore())
	got, err := trie.Hash()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != EmptyTrieRootHash {
		t.Errorf("got %x, want %x", got, EmptyTrieRootHash)
	}
}

func TestTrie_GetOnEmptyTrieIsNil(t *testing.T) {
	trie := New(NewMemStore())
	got, err := trie.Get([]byte("anything"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestTrie_InsertThenGetRoundTrips(t *testing.T) {
	trie := New(NewMemStore())
	if err := trie.Insert([]byte("key"), []byte("value")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	got, err := trie.Get([]byte("key"))
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !bytes.Equal(got, []byte("value")) {
		t.Errorf("got %q, want %q", got, "value")
	}
}

func TestTrie_InsertOverwritesExistingKey(t *testing.T) {
	trie := New(NewMemStore())
	_ = trie.Insert([]byte("key"), []byte("v1"))
	_ = trie.Insert([]byte("key"), []byte("v2"))
	got, _ := trie.Get([]byte("key"))
	if !bytes.Equal(got, []byte("v2")) {
		t.Errorf("got %q, want %q", got, "v2")
	}
}

func TestTrie_InsertEmptyValueIsUsageError(t *testing.T) {
	trie := New(NewMemStore())
	err := trie.Insert([]byte("key"), nil)
	if _, ok := err.(*UsageError); !ok {
		t.Fatalf("got %T (%v), want *UsageError", err, err)
	}
}

func TestTrie_FourShortKeysAllReadBackCorrectly(t *testing.T) {
	trie := New(NewMemStore())
	entries := map[string]string{
		"do":    "verb",
		"dog":   "puppy",
		"dodge": "viper",
		"horse": "stallion",
	}
	for k, v := range entries {
		if err := trie.Insert([]byte(k), []byte(v)); err != nil {
			t.Fatalf("insert(%q) failed: %v", k, err)
		}
	}
	for k, v := range entries {
		got, err := trie.Get([]byte(k))
		if err != nil {
			t.Fatalf("get(%q) failed: %v", k, err)
		}
		if !bytes.Equal(got, []byte(v)) {
			t.Errorf("get(%q) = %q, want %q", k, got, v)
		}
	}
	if _, err := trie.Hash(); err != nil {
		t.Fatalf("hash failed: %v", err)
	}
}

func TestTrie_RemoveDeletesKeyAndReturnsOldValue(t *testing.T) {
	trie := New(NewMemStore())
	_ = trie.Insert([]byte("dog"), []byte("puppy"))
	_ = trie.Insert([]byte("dodge"), []byte("viper"))

	removed, err := trie.Remove([]byte("dog"))
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if !bytes.Equal(removed, []byte("puppy")) {
		t.Errorf("removed = %q, want %q", removed, "puppy")
	}
	if got, _ := trie.Get([]byte("dog")); got != nil {
		t.Errorf("dog should be gone, got %q", got)
	}
	if got, _ := trie.Get([]byte("dodge")); !bytes.Equal(got, []byte("viper")) {
		t.Errorf("dodge = %q, want %q", got, "viper")
	}
}

func TestTrie_RemoveOfAbsentKeyReturnsNil(t *testing.T) {
	trie := New(NewMemStore())
	_ = trie.Insert([]byte("dog"), []byte("puppy"))
	removed, err := trie.Remove([]byte("cat"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != nil {
		t.Errorf("got %v, want nil", removed)
	}
}

func TestTrie_RemovingEveryKeyRestoresEmptyRoot(t *testing.T) {
	trie := New(NewMemStore())
	keys := []string{"do", "dog", "dodge", "horse"}
	for _, k := range keys {
		_ = trie.Insert([]byte(k), []byte("v-"+k))
	}
	for _, k := range keys {
		if _, err := trie.Remove([]byte(k)); err != nil {
			t.Fatalf("remove(%q) failed: %v", k, err)
		}
	}
	got, err := trie.Hash()
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if got != EmptyTrieRootHash {
		t.Errorf("got %x, want empty root %x", got, EmptyTrieRootHash)
	}
}

func TestTrie_HashIsIdempotentAcrossRepeatedCalls(t *testing.T) {
	trie := New(NewMemStore())
	_ = trie.Insert([]byte("dog"), []byte("puppy"))
	first, err := trie.Hash()
	if err != nil {
		t.Fatalf("first hash failed: %v", err)
	}
	second, err := trie.Hash()
	if err != nil {
		t.Fatalf("second hash failed: %v", err)
	}
	if first != second {
		t.Errorf("hash changed across idempotent calls: %x vs %x", first, second)
	}
}

func TestTrie_OpenAtCommittedRootSeesSameData(t *testing.T) {
	store := NewMemStore()
	trie := New(store)
	_ = trie.Insert([]byte("dog"), []byte("puppy"))
	_ = trie.Insert([]byte("dodge"), []byte("viper"))
	root, err := trie.Hash()
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	reopened, err := Open(store, root)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	got, err := reopened.Get([]byte("dog"))
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !bytes.Equal(got, []byte("puppy")) {
		t.Errorf("got %q, want %q", got, "puppy")
	}
}

func TestTrie_OpenAtEmptyRootBehavesLikeNew(t *testing.T) {
	trie, err := Open(NewMemStore(), EmptyTrieRootHash)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	got, err := trie.Get([]byte("anything"))
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestTrie_OpenAtUnknownRootIsCorruptionError(t *testing.T) {
	var bogus [32]byte
	bogus[0] = 0xab
	_, err := Open(NewMemStore(), bogus)
	if _, ok := err.(*CorruptionError); !ok {
		t.Fatalf("got %T (%v), want *CorruptionError", err, err)
	}
}

func TestTrie_GetProofOfExistingKeyIncludesBranchingRoot(t *testing.T) {
	trie := New(NewMemStore())
	_ = trie.Insert([]byte("do"), []byte("verb"))
	_ = trie.Insert([]byte("dog"), []byte("puppy"))
	_ = trie.Insert([]byte("dodge"), []byte("viper"))
	_ = trie.Insert([]byte("horse"), []byte("stallion"))
	root, err := trie.Hash()
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	proof, err := trie.GetProof([]byte("dog"))
	if err != nil {
		t.Fatalf("proof failed: %v", err)
	}
	if len(proof) == 0 {
		t.Fatalf("expected a non-empty proof")
	}

	// Re-indexed by hash, the proof nodes must include the committed root,
	// and that root must not be a Leaf.
	index := make(map[NodeHash][]byte)
	for _, encoding := range proof {
		index[NodeHashOf(encoding)] = encoding
	}
	rootEncoding, ok := index[HashedNodeHash(root)]
	if !ok {
		t.Fatalf("proof does not include the root node")
	}
	rootNode, err := DecodeNode(rootEncoding)
	if err != nil {
		t.Fatalf("decode root failed: %v", err)
	}
	if _, ok := rootNode.(*LeafNode); ok {
		t.Errorf("expected a branching root for four divergent keys")
	}
}

func TestTrie_GetProofOfAbsentKeyIsNonEmpty(t *testing.T) {
	trie := New(NewMemStore())
	_ = trie.Insert([]byte("dog"), []byte("puppy"))
	proof, err := trie.GetProof([]byte("cat"))
	if err != nil {
		t.Fatalf("proof failed: %v", err)
	}
	if len(proof) == 0 {
		t.Fatalf("expected a non-empty proof of absence")
	}
}

func TestComputeHashFromUnsortedIter_OrderIndependent(t *testing.T) {
	a := [][2][]byte{
		{[]byte{0x80}, []byte("tx0")},
		{[]byte{0x01}, []byte("tx1")},
		{[]byte{0x02}, []byte("tx2")},
	}
	b := [][2][]byte{a[2], a[0], a[1]}

	hashA, err := ComputeHashFromUnsortedIter(a)
	if err != nil {
		t.Fatalf("hash a failed: %v", err)
	}
	hashB, err := ComputeHashFromUnsortedIter(b)
	if err != nil {
		t.Fatalf("hash b failed: %v", err)
	}
	if hashA != hashB {
		t.Errorf("hash depends on insertion order: %x vs %x", hashA, hashB)
	}
}
