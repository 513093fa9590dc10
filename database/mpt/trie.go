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
)

// Trie is §4.G: a single root reference over a TrieState, supporting
// lookup, incremental mutation, root hashing, and proof extraction. Every
// mutation replaces the root reference with that of a freshly built
// subtree; previously reachable nodes are left untouched, so any hash held
// before a mutation remains a valid view of the trie as it stood at that
// point (Open can reopen it later).
type Trie struct {
	state *TrieState
	root  NodeHash
}

// New returns an empty trie over store.
func New(store Store) *Trie {
	return &Trie{state: NewTrieState(store), root: EmptyNodeHash}
}

// Open reopens a trie at a previously committed root hash. If root equals
// the canonical empty-trie hash, the result behaves exactly like New.
func Open(store Store, root common.Hash) (*Trie, error) {
	state := NewTrieState(store)
	if root == EmptyTrieRootHash {
		return &Trie{state: state, root: EmptyNodeHash}, nil
	}
	ref := HashedNodeHash(root)
	// Eagerly resolve the root so a bad root hash is reported at Open time
	// rather than on the first unrelated lookup.
	if _, err := state.GetNode(ref); err != nil {
		return nil, err
	}
	return &Trie{state: state, root: ref}, nil
}

// EmptyTrieRootHash is the root hash of a trie holding no entries:
// keccak256 of the RLP encoding of the empty string.
var EmptyTrieRootHash = common.Keccak256(EmptyNodeHash.Bytes())

// Get returns the value stored under key, or nil if key is absent.
func (t *Trie) Get(key []byte) ([]byte, error) {
	return nodeGet(t.state, t.root, PathFromBytes(key))
}

// Insert sets key to value, creating it if absent. value must be
// non-empty; inserting an empty value is a usage error, since the trie has
// no way to distinguish "absent" from "present with an empty value" (the
// empty byte string is also the encoding of an empty Branch value/absent
// child, per §4.C).
func (t *Trie) Insert(key []byte, value []byte) error {
	if len(value) == 0 {
		return newUsageError("insert requires a non-empty value; use Remove to delete a key")
	}
	newRoot, err := nodeInsert(t.state, t.root, PathFromBytes(key), value)
	if err != nil {
		return err
	}
	t.root = newRoot
	return nil
}

// Remove deletes key, returning the removed value (nil if key was absent).
func (t *Trie) Remove(key []byte) ([]byte, error) {
	newRoot, removed, err := nodeRemove(t.state, t.root, PathFromBytes(key))
	if err != nil {
		return nil, err
	}
	t.root = newRoot
	return removed, nil
}

// Hash commits every dirty node reachable from the current root and
// returns the root hash. It is idempotent: calling it again with no
// intervening mutation returns the same value. Such a repeat call writes
// the root node again under the same key with the same bytes; every other
// node is written only while it is still marked dirty.
func (t *Trie) Hash() (common.Hash, error) {
	return t.state.CommitRoot(t.root)
}

// GetProof returns the canonical encoding of every node visited from the
// root down to the node proving key's presence or absence, in traversal
// order. Inline nodes are omitted: their bytes are already embedded in
// their parent's own encoding, so a verifier reconstructs them for free.
func (t *Trie) GetProof(key []byte) ([][]byte, error) {
	var out [][]byte
	if err := collectProofNodes(t.state, t.root, PathFromBytes(key), &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// ComputeHashFromUnsortedIter builds an ephemeral, non-persisted trie from
// an arbitrary-order sequence of (path, value) pairs and returns its root
// hash, for hashing transaction, receipt, and withdrawal lists where the
// path is RLP(index) rather than keccak256(key).
func ComputeHashFromUnsortedIter(pairs [][2][]byte) (common.Hash, error) {
	trie := New(NewMemStore())
	for _, pair := range pairs {
		if err := trie.Insert(pair[0], pair[1]); err != nil {
			return common.Hash{}, err
		}
	}
	return trie.Hash()
}

// ----------------------------------------------------------------------------
//                                   get
// ----------------------------------------------------------------------------

func nodeGet(s *TrieState, ref NodeHash, path Path) ([]byte, error) {
	node, err := s.GetNode(ref)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, nil
	}
	switch t := node.(type) {
	case *LeafNode:
		if path.Equal(t.Partial) {
			return cloneBytes(t.Value), nil
		}
		return nil, nil
	case *ExtensionNode:
		rest, ok := path.SkipPrefix(t.Prefix)
		if !ok {
			return nil, nil
		}
		return nodeGet(s, t.Child, rest)
	case *BranchNode:
		if path.IsEmpty() {
			if len(t.Value) == 0 {
				return nil, nil
			}
			return cloneBytes(t.Value), nil
		}
		nib, rest, _ := path.NextChoice()
		child := t.Choices[nib]
		if child.IsEmpty() {
			return nil, nil
		}
		return nodeGet(s, child, rest)
	default:
		panic(fmt.Sprintf("unsupported node type %T", node))
	}
}

// ----------------------------------------------------------------------------
//                                  insert
// ----------------------------------------------------------------------------

func put(s *TrieState, n Node) NodeHash {
	h := Hash(n)
	s.InsertNode(n, h)
	return h
}

func nodeInsert(s *TrieState, ref NodeHash, path Path, value []byte) (NodeHash, error) {
	node, err := s.GetNode(ref)
	if err != nil {
		return NodeHash{}, err
	}
	if node == nil {
		return put(s, &LeafNode{Partial: path, Value: cloneBytes(value)}), nil
	}

	switch t := node.(type) {
	case *LeafNode:
		if path.Equal(t.Partial) {
			return put(s, &LeafNode{Partial: t.Partial, Value: cloneBytes(value)}), nil
		}
		return splitLeaf(s, t.Partial, t.Value, path, value)

	case *ExtensionNode:
		cp := CommonPrefixLength(t.Prefix, path)
		if cp == t.Prefix.Len() {
			newChild, err := nodeInsert(s, t.Child, path.Offset(cp), value)
			if err != nil {
				return NodeHash{}, err
			}
			return put(s, &ExtensionNode{Prefix: t.Prefix, Child: newChild}), nil
		}
		return splitExtension(s, t.Prefix, t.Child, path, value)

	case *BranchNode:
		newBranch := *t
		if path.IsEmpty() {
			newBranch.Value = cloneBytes(value)
			return put(s, &newBranch), nil
		}
		nib, rest, _ := path.NextChoice()
		newChild, err := nodeInsert(s, t.Choices[nib], rest, value)
		if err != nil {
			return NodeHash{}, err
		}
		newBranch.Choices[nib] = newChild
		return put(s, &newBranch), nil

	default:
		panic(fmt.Sprintf("unsupported node type %T", node))
	}
}

// splitLeaf handles inserting (path, value) into a Leaf whose own partial
// path p (with value v) is not an exact match. It builds the Branch (and,
// if the two paths share a non-empty prefix, the wrapping Extension) that
// the insertion rules of §4.D.3 describe.
func splitLeaf(s *TrieState, p Path, v []byte, path Path, value []byte) (NodeHash, error) {
	cp := CommonPrefixLength(p, path)
	var branch BranchNode

	switch {
	case cp == p.Len():
		// p is a strict prefix of path: p's value terminates exactly at
		// this depth and has no diverging nibble of its own.
		branch.Value = cloneBytes(v)
		b := path.Get(cp)
		branch.Choices[b] = put(s, &LeafNode{Partial: path.Offset(cp + 1), Value: cloneBytes(value)})
	case cp == path.Len():
		branch.Value = cloneBytes(value)
		a := p.Get(cp)
		branch.Choices[a] = put(s, &LeafNode{Partial: p.Offset(cp + 1), Value: cloneBytes(v)})
	default:
		a, b := p.Get(cp), path.Get(cp)
		branch.Choices[a] = put(s, &LeafNode{Partial: p.Offset(cp + 1), Value: cloneBytes(v)})
		branch.Choices[b] = put(s, &LeafNode{Partial: path.Offset(cp + 1), Value: cloneBytes(value)})
	}

	branchRef := put(s, &branch)
	if cp == 0 {
		return branchRef, nil
	}
	return put(s, &ExtensionNode{Prefix: p.Slice(0, cp), Child: branchRef}), nil
}

// splitExtension handles inserting (path, value) into an Extension whose
// prefix pref only partially matches path (cp < |pref|).
func splitExtension(s *TrieState, pref Path, child NodeHash, path Path, value []byte) (NodeHash, error) {
	cp := CommonPrefixLength(pref, path)

	a := pref.Get(cp)
	remainingPrefix := pref.Offset(cp + 1)
	var aRef NodeHash
	if remainingPrefix.IsEmpty() {
		aRef = child
	} else {
		aRef = put(s, &ExtensionNode{Prefix: remainingPrefix, Child: child})
	}

	var branch BranchNode
	branch.Choices[a] = aRef
	if cp == path.Len() {
		branch.Value = cloneBytes(value)
	} else {
		b := path.Get(cp)
		branch.Choices[b] = put(s, &LeafNode{Partial: path.Offset(cp + 1), Value: cloneBytes(value)})
	}

	branchRef := put(s, &branch)
	if cp == 0 {
		return branchRef, nil
	}
	return put(s, &ExtensionNode{Prefix: pref.Slice(0, cp), Child: branchRef}), nil
}

// ----------------------------------------------------------------------------
//                                  remove
// ----------------------------------------------------------------------------

// nodeRemove returns the new subtree reference (EmptyNodeHash if the
// subtree vanished) and the removed value (nil if path was absent).
func nodeRemove(s *TrieState, ref NodeHash, path Path) (NodeHash, []byte, error) {
	node, err := s.GetNode(ref)
	if err != nil {
		return NodeHash{}, nil, err
	}
	if node == nil {
		return ref, nil, nil
	}

	switch t := node.(type) {
	case *LeafNode:
		if path.Equal(t.Partial) {
			return EmptyNodeHash, t.Value, nil
		}
		return ref, nil, nil

	case *ExtensionNode:
		rest, ok := path.SkipPrefix(t.Prefix)
		if !ok {
			return ref, nil, nil
		}
		newChild, removed, err := nodeRemove(s, t.Child, rest)
		if err != nil {
			return NodeHash{}, nil, err
		}
		if removed == nil {
			return ref, nil, nil
		}
		if newChild.IsEmpty() {
			return EmptyNodeHash, removed, nil
		}
		childNode, err := s.GetNode(newChild)
		if err != nil {
			return NodeHash{}, nil, err
		}
		switch c := childNode.(type) {
		case *BranchNode:
			return put(s, &ExtensionNode{Prefix: t.Prefix, Child: newChild}), removed, nil
		case *LeafNode:
			return put(s, &LeafNode{Partial: t.Prefix.Concat(c.Partial), Value: c.Value}), removed, nil
		case *ExtensionNode:
			return put(s, &ExtensionNode{Prefix: t.Prefix.Concat(c.Prefix), Child: c.Child}), removed, nil
		default:
			panic(fmt.Sprintf("unsupported node type %T", childNode))
		}

	case *BranchNode:
		newBranch := *t
		var removed []byte
		if path.IsEmpty() {
			if len(t.Value) == 0 {
				return ref, nil, nil
			}
			removed = t.Value
			newBranch.Value = nil
		} else {
			nib, rest, _ := path.NextChoice()
			newChild, r, err := nodeRemove(s, t.Choices[nib], rest)
			if err != nil {
				return NodeHash{}, nil, err
			}
			if r == nil {
				return ref, nil, nil
			}
			removed = r
			newBranch.Choices[nib] = newChild
		}
		return collapseBranch(s, &newBranch, removed)

	default:
		panic(fmt.Sprintf("unsupported node type %T", node))
	}
}

// collapseBranch restores canonical form after a Branch loses a value or a
// child, per the collapse rules of §4.D.4.
func collapseBranch(s *TrieState, b *BranchNode, removed []byte) (NodeHash, []byte, error) {
	count, only := 0, -1
	for i, c := range b.Choices {
		if !c.IsEmpty() {
			count++
			only = i
		}
	}
	hasValue := len(b.Value) > 0

	switch {
	case count == 0 && !hasValue:
		return EmptyNodeHash, removed, nil
	case count == 0 && hasValue:
		return put(s, &LeafNode{Partial: Path{}, Value: b.Value}), removed, nil
	case count == 1 && !hasValue:
		childRef := b.Choices[only]
		childNode, err := s.GetNode(childRef)
		if err != nil {
			return NodeHash{}, nil, err
		}
		nib := PathFromNibbles([]Nibble{Nibble(only)})
		switch c := childNode.(type) {
		case *LeafNode:
			return put(s, &LeafNode{Partial: nib.Concat(c.Partial), Value: c.Value}), removed, nil
		case *ExtensionNode:
			return put(s, &ExtensionNode{Prefix: nib.Concat(c.Prefix), Child: c.Child}), removed, nil
		case *BranchNode:
			return put(s, &ExtensionNode{Prefix: nib, Child: childRef}), removed, nil
		default:
			panic(fmt.Sprintf("unsupported node type %T", childNode))
		}
	default:
		return put(s, b), removed, nil
	}
}

// ----------------------------------------------------------------------------
//                                   proof
// ----------------------------------------------------------------------------

// collectProofNodes appends the canonical encoding of the node at ref
// (unless it is an inline child, which is already embedded in its
// parent's own encoding) and recurses toward path's terminal node. root is
// true only for the initial call: the root has no parent to embed it, so
// its encoding is always recorded regardless of whether it happens to be
// small enough to have been treated as inline elsewhere.
func collectProofNodes(s *TrieState, ref NodeHash, path Path, out *[][]byte, root bool) error {
	node, err := s.GetNode(ref)
	if err != nil {
		return err
	}
	if node == nil {
		return nil
	}
	if root || ref.IsHashed() {
		*out = append(*out, Encode(node))
	}

	switch t := node.(type) {
	case *LeafNode:
		return nil
	case *ExtensionNode:
		rest, ok := path.SkipPrefix(t.Prefix)
		if !ok {
			return nil
		}
		return collectProofNodes(s, t.Child, rest, out, false)
	case *BranchNode:
		if path.IsEmpty() {
			return nil
		}
		nib, rest, _ := path.NextChoice()
		child := t.Choices[nib]
		if child.IsEmpty() {
			return nil
		}
		return collectProofNodes(s, child, rest, out, false)
	default:
		panic(fmt.Sprintf("unsupported node type %T", node))
	}
}

func cloneBytes(b []byte) []byte {
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}
