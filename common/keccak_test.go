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
	"bytes"
	"math/rand"
	"testing"

	"golang.org/x/crypto/sha3"
)

func referenceKeccak256(data []byte) Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	var res Hash
	copy(res[:], h.Sum(nil))
	return res
}

func TestKeccak256_MatchesReferenceImplementation(t *testing.T) {
	tests := [][]byte{
		nil,
		{},
		{1, 2, 3},
		{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		make([]byte, 128),
		make([]byte, 1024),
	}
	for _, test := range tests {
		want := referenceKeccak256(test)
		got := Keccak256(test)
		if want != got {
			t.Errorf("unexpected hash for %v, wanted %x, got %x", test, want, got)
		}
	}
}

func TestKeccak256ForAddress_MatchesGenericHash(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	for i := 0; i < 20; i++ {
		addr := Address{}
		r.Read(addr[:])
		if want, got := Keccak256(addr[:]), Keccak256ForAddress(addr); want != got {
			t.Errorf("unexpected hash for %v, wanted %x, got %x", addr, want, got)
		}
	}
}

func TestKeccak256ForKey_MatchesGenericHash(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	for i := 0; i < 20; i++ {
		key := Key{}
		r.Read(key[:])
		if want, got := Keccak256(key[:]), Keccak256ForKey(key); want != got {
			t.Errorf("unexpected hash for %v, wanted %x, got %x", key, want, got)
		}
	}
}

func TestKeccak256_IsDeterministic(t *testing.T) {
	data := []byte("the quick brown fox")
	a := Keccak256(data)
	b := Keccak256(data)
	if a != b {
		t.Fatalf("hashing is not deterministic: %x != %x", a, b)
	}
}

func TestEmptyKeccak256Hash_MatchesEmptyInput(t *testing.T) {
	if got, want := EmptyKeccak256Hash, Keccak256(nil); got != want {
		t.Fatalf("unexpected empty hash: got %x, want %x", got, want)
	}
	if bytes.Equal(EmptyKeccak256Hash[:], make([]byte, HashSize)) {
		t.Fatalf("empty hash must not be the zero hash")
	}
}
