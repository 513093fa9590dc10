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

// buildLinearTrie inserts one entry per byte value in [0,n) under the
// single-byte key []byte{k}, with a distinguishing three-byte value, and
// returns the trie alongside its keys and values in ascending order.
func buildLinearTrie(t *testing.T, n int) (*Trie, [][]byte, [][]byte) {
	t.Helper()
	trie := New(NewMemStore())
	keys := make([][]byte, n)
	values := make([][]byte, n)
	for k := 0; k < n; k++ {
		key := []byte{byte(k)}
		value := bytes.Repeat([]byte{byte(k)}, 3)
		if err := trie.Insert(key, value); err != nil {
			t.Fatalf("insert(%d) failed: %v", k, err)
		}
		keys[k] = key
		values[k] = value
	}
	return trie, keys, values
}

func proofFor(t *testing.T, trie *Trie, key []byte) [][]byte {
	t.Helper()
	proof, err := trie.GetProof(key)
	if err != nil {
		t.Fatalf("proof(%x) failed: %v", key, err)
	}
	return proof
}

func TestVerifyRange_RegularCaseReportsMoreToTheRight(t *testing.T) {
	trie, keys, values := buildLinearTrie(t, 200)
	root, err := trie.Hash()
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	const start, end = 50, 149
	proof := proofFor(t, trie, keys[start])
	proof = append(proof, proofFor(t, trie, keys[end])...)

	hasMore, err := VerifyRange(root, keys[start], keys[start:end+1], values[start:end+1], proof)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !hasMore {
		t.Errorf("expected more elements to the right of the proven range")
	}
}

func TestVerifyRange_LastKeyAtTrieEdgeReportsNoMore(t *testing.T) {
	trie, keys, values := buildLinearTrie(t, 200)
	root, err := trie.Hash()
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	const start, end = 50, 199
	proof := proofFor(t, trie, keys[start])
	proof = append(proof, proofFor(t, trie, keys[end])...)

	hasMore, err := VerifyRange(root, keys[start], keys[start:end+1], values[start:end+1], proof)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if hasMore {
		t.Errorf("expected no more elements past the trie's last key")
	}
}

func TestVerifyRange_FullLeafSetNoProofReportsNoMore(t *testing.T) {
	trie, keys, values := buildLinearTrie(t, 150)
	root, err := trie.Hash()
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	hasMore, err := VerifyRange(root, keys[0], keys, values, nil)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if hasMore {
		t.Errorf("expected no more elements beyond a proof-free full leaf set")
	}
}

func TestVerifyRange_EmptyRangeProvesAbsence(t *testing.T) {
	trie, keys, values := buildLinearTrie(t, 199)
	root, err := trie.Hash()
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	absentKey := []byte{199}
	proof := proofFor(t, trie, absentKey)

	hasMore, err := VerifyRange(root, absentKey, nil, nil, proof)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if hasMore {
		t.Errorf("expected no further elements past the trie's maximum key")
	}
	_ = keys
	_ = values
}

func TestVerifyRange_SingleElementRangeInTheMiddle(t *testing.T) {
	trie, keys, values := buildLinearTrie(t, 200)
	root, err := trie.Hash()
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	const at = 100
	proof := proofFor(t, trie, keys[at])

	hasMore, err := VerifyRange(root, keys[at], keys[at:at+1], values[at:at+1], proof)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !hasMore {
		t.Errorf("expected more elements past a middle single-element range")
	}
}

func TestVerifyRange_SingleElementRangeAtTrieEdge(t *testing.T) {
	trie, keys, values := buildLinearTrie(t, 200)
	root, err := trie.Hash()
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	const at = 199
	proof := proofFor(t, trie, keys[at])

	hasMore, err := VerifyRange(root, keys[at], keys[at:at+1], values[at:at+1], proof)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if hasMore {
		t.Errorf("expected no more elements past the trie's last key")
	}
}

func TestVerifyRange_InconsistentRangeLengthsRejected(t *testing.T) {
	trie, keys, values := buildLinearTrie(t, 10)
	root, _ := trie.Hash()
	proof := proofFor(t, trie, keys[0])
	proof = append(proof, proofFor(t, trie, keys[9])...)

	_, err := VerifyRange(root, keys[0], keys, values[:len(values)-1], proof)
	assertVerificationKind(t, err, InconsistentRangeLengths)
}

func TestVerifyRange_NonMonotonicKeysRejected(t *testing.T) {
	trie, keys, values := buildLinearTrie(t, 10)
	root, _ := trie.Hash()
	proof := proofFor(t, trie, keys[0])
	proof = append(proof, proofFor(t, trie, keys[9])...)

	shuffledKeys := append([][]byte(nil), keys...)
	shuffledKeys[3], shuffledKeys[4] = shuffledKeys[4], shuffledKeys[3]

	_, err := VerifyRange(root, keys[0], shuffledKeys, values, proof)
	assertVerificationKind(t, err, NonMonotonicKeys)
}

func TestVerifyRange_EmptyValueRejected(t *testing.T) {
	trie, keys, values := buildLinearTrie(t, 10)
	root, _ := trie.Hash()
	proof := proofFor(t, trie, keys[0])
	proof = append(proof, proofFor(t, trie, keys[9])...)

	tamperedValues := append([][]byte(nil), values...)
	tamperedValues[5] = nil

	_, err := VerifyRange(root, keys[0], keys, tamperedValues, proof)
	assertVerificationKind(t, err, EmptyValueInRange)
}

func TestVerifyRange_InvalidEdgeKeysRejected(t *testing.T) {
	trie, keys, values := buildLinearTrie(t, 200)
	root, _ := trie.Hash()
	proof := proofFor(t, trie, keys[50])
	proof = append(proof, proofFor(t, trie, keys[149])...)

	// firstKey does not precede the claimed range's own last key.
	_, err := VerifyRange(root, keys[149], keys[50:150], values[50:150], proof)
	assertVerificationKind(t, err, InvalidEdgeKeys)
}

func TestVerifyRange_MissingProofNodeRejected(t *testing.T) {
	trie, keys, values := buildLinearTrie(t, 200)
	root, _ := trie.Hash()
	proof := proofFor(t, trie, keys[50])
	proof = append(proof, proofFor(t, trie, keys[149])...)
	proof = proof[:len(proof)-1] // drop a node from the second edge's proof

	_, err := VerifyRange(root, keys[50], keys[50:150], values[50:150], proof)
	if err == nil {
		t.Fatalf("expected an error for a gapped proof")
	}
}

func TestVerifyRange_RootMismatchWhenValueTampered(t *testing.T) {
	trie, keys, values := buildLinearTrie(t, 200)
	root, _ := trie.Hash()
	proof := proofFor(t, trie, keys[50])
	proof = append(proof, proofFor(t, trie, keys[149])...)

	tamperedValues := append([][]byte(nil), values[50:150]...)
	tamperedValues[10] = []byte("not the real value")

	_, err := VerifyRange(root, keys[50], keys[50:150], tamperedValues, proof)
	assertVerificationKind(t, err, RootMismatch)
}

func TestVerifyRange_OnlyOneEdgeProofRejected(t *testing.T) {
	trie, keys, values := buildLinearTrie(t, 200)
	root, _ := trie.Hash()
	proof := proofFor(t, trie, keys[50]) // missing the second edge's proof

	_, err := VerifyRange(root, keys[50], keys[50:150], values[50:150], proof)
	if err == nil {
		t.Fatalf("expected an error when only one edge is proven")
	}
}

func assertVerificationKind(t *testing.T, err error, want VerificationErrorKind) {
	t.Helper()
	ve, ok := err.(*VerificationError)
	if !ok {
		t.Fatalf("got %T (%v), want *VerificationError", err, err)
	}
	if ve.Kind != want {
		t.Errorf("got kind %v, want %v", ve.Kind, want)
	}
}
