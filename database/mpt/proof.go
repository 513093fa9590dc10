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

	"github.com/triechain/statedb/common"
)

// VerificationErrorKind classifies why VerifyRange rejected a range proof.
type VerificationErrorKind int

const (
	_ VerificationErrorKind = iota
	// InconsistentRangeLengths: len(keys) != len(values).
	InconsistentRangeLengths
	// NonMonotonicKeys: keys is not in strictly increasing order.
	NonMonotonicKeys
	// EmptyValueInRange: some value in the claimed range is empty.
	EmptyValueInRange
	// MissingProofNode: a node hash referenced while walking the proof has
	// no corresponding entry among the supplied proof nodes.
	MissingProofNode
	// MalformedProofNode: a supplied proof node's bytes do not decode as a
	// node.
	MalformedProofNode
	// InvalidEdgeKeys: firstKey is not strictly less than the last key, or
	// the empty-keys case claims an empty range that the proof disproves.
	InvalidEdgeKeys
	// RangeEmptyUnderExtension: both edge keys fall on the same side of an
	// Extension's prefix, leaving no room in its subtree for the claimed
	// range.
	RangeEmptyUnderExtension
	// KeyValueMismatch: the single-key case's proof resolves to a key or
	// value different from the one claimed.
	KeyValueMismatch
	// RootMismatch: the range, once reinserted, hashes to something other
	// than the expected root.
	RootMismatch
)

func (k VerificationErrorKind) String() string {
	switch k {
	case InconsistentRangeLengths:
		return "inconsistent range lengths"
	case NonMonotonicKeys:
		return "non-monotonic keys"
	case EmptyValueInRange:
		return "empty value in range"
	case MissingProofNode:
		return "missing proof node"
	case MalformedProofNode:
		return "malformed proof node"
	case InvalidEdgeKeys:
		return "invalid edge keys"
	case RangeEmptyUnderExtension:
		return "range empty under extension"
	case KeyValueMismatch:
		return "key/value mismatch"
	case RootMismatch:
		return "root mismatch"
	default:
		return "unknown verification error"
	}
}

// VerificationError reports why a range proof failed verification, per
// §4.H. It is always terminal: the caller has no way to repair a rejected
// proof, only to request a fresh one.
type VerificationError struct {
	Kind VerificationErrorKind
	msg  string
}

func (e *VerificationError) Error() string { return "mpt: verify range: " + e.msg }

func newVerificationError(kind VerificationErrorKind, msg string) *VerificationError {
	return &VerificationError{Kind: kind, msg: msg}
}

// VerifyRange checks that keys/values is exactly the set of entries a trie
// rooted at root holds between firstKey and keys[len(keys)-1] inclusive,
// given the node encodings in proof (the union of the Merkle proofs of the
// range's two edge keys, or empty when the range already covers every entry
// the trie holds, or a single proof of absence when the range is empty). It
// reports whether the trie holds further entries past the end of the range.
//
// keys must already be sorted in strictly increasing order; values must all
// be non-empty (an empty value has no meaningful encoding to verify against,
// since it is indistinguishable from "absent").
func VerifyRange(root common.Hash, firstKey []byte, keys [][]byte, values [][]byte, proof [][]byte) (hasMore bool, err error) {
	if len(keys) != len(values) {
		return false, newVerificationError(InconsistentRangeLengths,
			"got mismatched key and value counts")
	}
	for i := 1; i < len(keys); i++ {
		if bytes.Compare(keys[i-1], keys[i]) >= 0 {
			return false, newVerificationError(NonMonotonicKeys,
				"key range is not strictly increasing")
		}
	}
	for _, v := range values {
		if len(v) == 0 {
			return false, newVerificationError(EmptyValueInRange, "value range contains an empty value")
		}
	}

	proofByHash := make(map[common.Hash][]byte, len(proof))
	for _, encoding := range proof {
		proofByHash[common.Keccak256(encoding)] = encoding
	}

	// No proof: the range must be the trie's entire leaf set.
	if len(proof) == 0 {
		digest, err := ComputeHashFromUnsortedIter(pairsOf(keys, values))
		if err != nil {
			return false, err
		}
		if digest != root {
			return false, newVerificationError(RootMismatch, "no-proof range does not hash to the expected root")
		}
		return false, nil
	}

	s := NewTrieState(NewMemStore())
	rootRef := rootNodeHash(root)

	// One edge proof, no keys: the range is empty and the proof must show
	// firstKey absent with nothing further to its right.
	if len(keys) == 0 {
		value, err := fillState(s, rootRef, PathFromBytes(firstKey), proofByHash)
		if err != nil {
			return false, err
		}
		right, err := hasRightElement(s, rootRef, PathFromBytes(firstKey))
		if err != nil {
			return false, err
		}
		if right || len(value) != 0 {
			return false, newVerificationError(InvalidEdgeKeys, "no keys returned but more are available on the trie")
		}
		return false, nil
	}

	lastKey := keys[len(keys)-1]

	// Single element whose key equals firstKey: one proof of existence.
	if len(keys) == 1 && bytes.Equal(firstKey, lastKey) {
		value, err := fillState(s, rootRef, PathFromBytes(firstKey), proofByHash)
		if err != nil {
			return false, err
		}
		if !bytes.Equal(firstKey, keys[0]) {
			return false, newVerificationError(KeyValueMismatch, "correct proof but invalid key")
		}
		if !bytes.Equal(value, values[0]) {
			return false, newVerificationError(KeyValueMismatch, "correct proof but invalid data")
		}
		return hasRightElement(s, rootRef, PathFromBytes(firstKey))
	}

	// Regular case: two distinct edge keys, proved independently.
	if bytes.Compare(firstKey, lastKey) >= 0 {
		return false, newVerificationError(InvalidEdgeKeys, "invalid edge keys")
	}
	if _, err := fillState(s, rootRef, PathFromBytes(firstKey), proofByHash); err != nil {
		return false, err
	}
	if _, err := fillState(s, rootRef, PathFromBytes(lastKey), proofByHash); err != nil {
		return false, err
	}

	empty, err := removeInternalReferences(s, rootRef, PathFromBytes(firstKey), PathFromBytes(lastKey))
	if err != nil {
		return false, err
	}
	newRoot := rootRef
	if empty {
		newRoot = EmptyNodeHash
	}
	for i, key := range keys {
		newRoot, err = nodeInsert(s, newRoot, PathFromBytes(key), values[i])
		if err != nil {
			return false, err
		}
	}

	right, err := hasRightElement(s, rootRef, PathFromBytes(lastKey))
	if err != nil {
		return false, err
	}
	digest, err := s.CommitRoot(newRoot)
	if err != nil {
		return false, err
	}
	if digest != root {
		return false, newVerificationError(RootMismatch, "range does not reconstruct the expected root")
	}
	return right, nil
}

func pairsOf(keys, values [][]byte) [][2][]byte {
	pairs := make([][2][]byte, len(keys))
	for i := range keys {
		pairs[i] = [2][]byte{keys[i], values[i]}
	}
	return pairs
}

// rootNodeHash converts a committed root hash into the NodeHash a working
// TrieState navigates from, collapsing the canonical empty-trie hash to
// EmptyNodeHash the same way Open does.
func rootNodeHash(root common.Hash) NodeHash {
	if root == EmptyTrieRootHash {
		return EmptyNodeHash
	}
	return HashedNodeHash(root)
}

// resolveProofNode decodes the node ref addresses, either from its own
// inline bytes or by looking up its digest among the supplied proof nodes.
func resolveProofNode(ref NodeHash, proofByHash map[common.Hash][]byte) (Node, error) {
	if inline, ok := ref.Inline(); ok {
		node, err := DecodeNode(inline)
		if err != nil {
			return nil, newVerificationError(MalformedProofNode, "inline node: "+err.Error())
		}
		return node, nil
	}
	h, _ := ref.Hash()
	encoding, ok := proofByHash[h]
	if !ok {
		return nil, newVerificationError(MissingProofNode, "proof node missing: "+ref.String())
	}
	node, err := DecodeNode(encoding)
	if err != nil {
		return nil, newVerificationError(MalformedProofNode, "proof node "+ref.String()+": "+err.Error())
	}
	return node, nil
}

// fillState walks the proof along path starting at ref, registering every
// node it visits into s under the hash it was addressed by, and returns the
// value found at path's end (nil if the proof shows path absent).
func fillState(s *TrieState, ref NodeHash, path Path, proofByHash map[common.Hash][]byte) ([]byte, error) {
	if ref.IsEmpty() {
		return nil, nil
	}
	node, err := resolveProofNode(ref, proofByHash)
	if err != nil {
		return nil, err
	}
	if child, rest, ok := getChild(node, path); ok {
		s.registerOverride(ref, node)
		return fillState(s, child, rest, proofByHash)
	}
	s.registerOverride(ref, node)
	return valueAt(node, path), nil
}

// getChild returns the reference node would follow next for path, and the
// remainder of path past that step; ok is false at a dead end (a Leaf, or a
// Branch/Extension path does not continue into).
func getChild(node Node, path Path) (child NodeHash, rest Path, ok bool) {
	switch t := node.(type) {
	case *BranchNode:
		nib, r, has := path.NextChoice()
		if !has || t.Choices[nib].IsEmpty() {
			return NodeHash{}, path, false
		}
		return t.Choices[nib], r, true
	case *ExtensionNode:
		r, has := path.SkipPrefix(t.Prefix)
		if !has {
			return NodeHash{}, path, false
		}
		return t.Child, r, true
	default:
		return NodeHash{}, path, false
	}
}

// valueAt returns the value node carries at exactly path, or nil if node
// has no value there.
func valueAt(node Node, path Path) []byte {
	switch t := node.(type) {
	case *BranchNode:
		return t.Value
	case *LeafNode:
		if path.Equal(t.Partial) {
			return t.Value
		}
		return nil
	default:
		return nil
	}
}

// hasRightElement reports whether the subtrie at ref holds any key strictly
// greater than path.
func hasRightElement(s *TrieState, ref NodeHash, path Path) (bool, error) {
	node, err := s.GetNode(ref)
	if err != nil || node == nil {
		return false, nil
	}
	switch t := node.(type) {
	case *BranchNode:
		nib, rest, ok := path.NextChoice()
		if !ok {
			return false, nil
		}
		for i := int(nib) + 1; i < 16; i++ {
			if !t.Choices[i].IsEmpty() {
				return true, nil
			}
		}
		if !t.Choices[nib].IsEmpty() {
			return hasRightElement(s, t.Choices[nib], rest)
		}
		return false, nil
	case *ExtensionNode:
		rest, ok := path.SkipPrefix(t.Prefix)
		if ok {
			return hasRightElement(s, t.Child, rest)
		}
		return t.Prefix.ComparePrefix(path) > 0, nil
	default:
		return false, nil
	}
}

// removeInternalReferences strips the references to every node lying
// strictly between leftPath and rightPath from the subtrie at ref, so that
// reinserting the claimed range rebuilds exactly the same structure. It
// reports whether ref's own subtrie was entirely emptied by the process, in
// which case the caller must drop its reference to ref as well. Assumes
// leftPath and rightPath are distinct and of equal length.
func removeInternalReferences(s *TrieState, ref NodeHash, leftPath, rightPath Path) (bool, error) {
	if ref.IsEmpty() {
		return true, nil
	}
	node, err := s.GetNode(ref)
	if err != nil {
		return false, err
	}

	switch t := node.(type) {
	case *BranchNode:
		newBranch := *t
		leftNib, leftRest, _ := leftPath.NextChoice()
		rightNib, rightRest, _ := rightPath.NextChoice()

		if leftNib == rightNib && !newBranch.Choices[leftNib].IsEmpty() {
			shouldRemove, err := removeInternalReferences(s, newBranch.Choices[leftNib], leftRest, rightRest)
			if err != nil {
				return false, err
			}
			if shouldRemove {
				newBranch.Choices[leftNib] = EmptyNodeHash
				s.registerOverride(ref, &newBranch)
			}
			return false, nil
		}

		for i := int(leftNib) + 1; i < int(rightNib); i++ {
			newBranch.Choices[i] = EmptyNodeHash
		}
		shouldRemoveLeft := removeNode(s, newBranch.Choices[leftNib], leftRest, false)
		shouldRemoveRight := removeNode(s, newBranch.Choices[rightNib], rightRest, true)
		if shouldRemoveLeft {
			newBranch.Choices[leftNib] = EmptyNodeHash
		}
		if shouldRemoveRight {
			newBranch.Choices[rightNib] = EmptyNodeHash
		}
		s.registerOverride(ref, &newBranch)
		return false, nil

	case *ExtensionNode:
		leftFork := leftPath.ComparePrefix(t.Prefix)
		rightFork := rightPath.ComparePrefix(t.Prefix)

		switch {
		case leftFork == 0 && rightFork == 0:
			return removeInternalReferences(s, t.Child, leftPath.Offset(t.Prefix.Len()), rightPath.Offset(t.Prefix.Len()))
		case (leftFork > 0 && rightFork > 0) || (leftFork < 0 && rightFork < 0):
			return false, newVerificationError(RangeEmptyUnderExtension, "range is empty under a shared extension")
		case leftFork != 0 && rightFork != 0:
			return true, nil
		default:
			path := rightPath
			if leftFork == 0 {
				path = leftPath
			}
			return removeNode(s, ref, path, rightFork == 0), nil
		}

	default: // LeafNode: unreachable since leftPath != rightPath
		return false, nil
	}
}

// removeNode strips every node in ref's subtrie that lies to the left (if
// removeLeft) or right of path, reporting whether the subtrie was entirely
// emptied in the process.
func removeNode(s *TrieState, ref NodeHash, path Path, removeLeft bool) bool {
	if ref.IsEmpty() {
		return false
	}
	node, err := s.GetNode(ref)
	if err != nil || node == nil {
		return false
	}

	switch t := node.(type) {
	case *BranchNode:
		newBranch := *t
		nib, rest, ok := path.NextChoice()
		if !ok {
			return true
		}
		if removeLeft {
			for i := 0; i < int(nib); i++ {
				newBranch.Choices[i] = EmptyNodeHash
			}
		} else {
			for i := int(nib) + 1; i < 16; i++ {
				newBranch.Choices[i] = EmptyNodeHash
			}
		}
		if removeNode(s, newBranch.Choices[nib], rest, removeLeft) {
			newBranch.Choices[nib] = EmptyNodeHash
		}
		s.registerOverride(ref, &newBranch)
		return false

	case *ExtensionNode:
		rest, ok := path.SkipPrefix(t.Prefix)
		if !ok {
			cmp := path.ComparePrefix(t.Prefix)
			return (removeLeft && cmp > 0) || (!removeLeft && cmp < 0)
		}
		return removeNode(s, t.Child, rest, removeLeft)

	default: // LeafNode
		return true
	}
}
