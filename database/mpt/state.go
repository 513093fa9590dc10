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
	"sync"

	"github.com/triechain/statedb/common"
)

// TrieState is §4.E: the mutable working set backing one trie. It holds a
// reference to the backing Store (F) and an in-memory cache mapping a
// node's 32-byte digest to its decoded Node, tracking which cached entries
// are dirty (created or modified since the last commit and not yet written
// through). Only hashed references are ever cached or persisted: an inline
// reference already carries its own encoding and is decoded directly, with
// no store presence of its own.
//
// A dirty node is uniquely owned by the state that created it; once
// committed it is shared and addressed only by its hash, mirroring the
// ownership discipline of Carmen's node forest.
type TrieState struct {
	store Store

	mu              sync.Mutex
	cache           map[common.Hash]Node
	dirty           map[common.Hash]bool
	inlineOverrides map[string]Node
}

// NewTrieState wraps store with a fresh, empty cache.
func NewTrieState(store Store) *TrieState {
	return &TrieState{
		store:           store,
		cache:           make(map[common.Hash]Node),
		dirty:           make(map[common.Hash]bool),
		inlineOverrides: make(map[string]Node),
	}
}

// GetNode resolves hash to its decoded Node. An inline hash first checks
// for a registered override (see registerOverride) and otherwise decodes
// directly from its own bytes, with no store lookup; a hashed reference
// first checks the cache, then falls through to the backing store. The
// empty reference resolves to (nil, nil); any other unresolved hash is
// store corruption.
func (s *TrieState) GetNode(hash NodeHash) (Node, error) {
	if hash.IsEmpty() {
		return nil, nil
	}

	if inline, ok := hash.Inline(); ok {
		s.mu.Lock()
		n, ok := s.inlineOverrides[string(inline)]
		s.mu.Unlock()
		if ok {
			return n, nil
		}
		return DecodeNode(inline)
	}

	h, _ := hash.Hash()
	s.mu.Lock()
	if n, ok := s.cache[h]; ok {
		s.mu.Unlock()
		return n, nil
	}
	s.mu.Unlock()

	encoding, err := s.store.Get(h[:])
	if err != nil {
		return nil, newIOError("loading node "+hash.String(), err)
	}
	if encoding == nil {
		return nil, newCorruptionError("dangling node reference %s", hash)
	}
	n, err := DecodeNode(encoding)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[h] = n
	s.mu.Unlock()
	return n, nil
}

// InsertNode stores node in the cache under hash and marks it dirty, making
// it visible to subsequent GetNode calls on this state before it is
// persisted. The empty reference and inline hashes are never inserted: an
// inline node's encoding already carries its full content and needs no
// separate storage.
func (s *TrieState) InsertNode(node Node, hash NodeHash) {
	if hash.IsEmpty() || !hash.IsHashed() {
		return
	}
	h, _ := hash.Hash()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[h] = node
	s.dirty[h] = true
}

// peek reports the cached or overridden node for hash, if any, without
// touching the backing store.
func (s *TrieState) peek(hash NodeHash) (Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inline, ok := hash.Inline(); ok {
		n, ok := s.inlineOverrides[string(inline)]
		return n, ok
	}
	h, hashed := hash.Hash()
	if !hashed {
		return nil, false
	}
	n, ok := s.cache[h]
	return n, ok
}

// registerOverride forces the resolved node for ref to node, including for
// an inline ref, which InsertNode otherwise leaves untouched (the empty ref
// is still ignored: there is nothing to alias an absent node to). Proof
// verification (proof.go) uses this to alias a stripped or patched node
// under the reference its unmodified original held: a purely bookkeeping
// device local to one verification call, never written through to the
// backing store. A hashed ref is overridden in the same cache GetNode/
// InsertNode/Commit share, without marking it dirty, since its content no
// longer matches the digest that names it and must never be persisted
// under that name. An inline ref is overridden in a side table keyed by its
// own bytes, since an inline NodeHash cannot be used as a map key.
func (s *TrieState) registerOverride(ref NodeHash, node Node) {
	if ref.IsEmpty() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if inline, ok := ref.Inline(); ok {
		s.inlineOverrides[string(inline)] = node
		return
	}
	h, _ := ref.Hash()
	s.cache[h] = node
}

// Commit writes the encoding of every dirty node transitively reachable
// from root to the backing store, then clears their dirty marks. Nodes
// reachable only through an inline reference are skipped: their bytes
// already live inside their parent's own encoding and are never written
// under a key of their own.
func (s *TrieState) Commit(root NodeHash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(root, make(map[common.Hash]bool))
}

func (s *TrieState) commitLocked(hash NodeHash, visited map[common.Hash]bool) error {
	if hash.IsEmpty() || !hash.IsHashed() {
		return nil
	}
	h, _ := hash.Hash()
	if visited[h] {
		return nil
	}
	visited[h] = true

	node, ok := s.cache[h]
	if !ok {
		// Not dirty and not cached: either never loaded in this state or
		// already committed in a prior call; either way there is nothing
		// new to write.
		return nil
	}

	if s.dirty[h] {
		if err := s.store.Put(h[:], Encode(node)); err != nil {
			return newIOError("committing node "+hash.String(), err)
		}
		delete(s.dirty, h)
	}

	for _, child := range childHashes(node) {
		if err := s.commitLocked(child, visited); err != nil {
			return err
		}
	}
	return nil
}

// CommitRoot commits the subtree at ref like Commit, but additionally
// persists ref's own node under the full keccak256 digest of its encoding,
// bypassing the inline-below-32-bytes optimization that applies to every
// other reference. The root has no parent to embed it, so it must always
// be independently addressable by the hash an external caller would pass
// to Open, regardless of how small its encoding happens to be.
//
// Returns the root hash (for an empty trie, the 32-byte digest of the RLP
// encoding of the empty string, 0x80, since an empty trie has no node of
// its own to store).
func (s *TrieState) CommitRoot(ref NodeHash) (common.Hash, error) {
	node, err := s.GetNode(ref)
	if err != nil {
		return common.Hash{}, err
	}
	if node == nil {
		return common.Keccak256(EmptyNodeHash.Bytes()), nil
	}

	encoding := Encode(node)
	digest := common.Keccak256(encoding)
	if err := s.store.Put(digest[:], encoding); err != nil {
		return common.Hash{}, newIOError("committing root", err)
	}

	if h, hashed := ref.Hash(); hashed {
		s.mu.Lock()
		delete(s.dirty, h)
		s.mu.Unlock()
	}

	for _, child := range childHashes(node) {
		if err := s.Commit(child); err != nil {
			return common.Hash{}, err
		}
	}
	return digest, nil
}

// childHashes returns the NodeHash references a node directly holds, for
// commit traversal.
func childHashes(n Node) []NodeHash {
	switch t := n.(type) {
	case *LeafNode:
		return nil
	case *ExtensionNode:
		return []NodeHash{t.Child}
	case *BranchNode:
		res := make([]NodeHash, 0, 16)
		for _, c := range t.Choices {
			res = append(res, c)
		}
		return res
	default:
		return nil
	}
}
