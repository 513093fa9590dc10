// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package state implements the two-level state manager of §4.I: an outer
// trie mapping keccak256(address) to RLP-encoded AccountState, and one inner
// storage trie per account mapping keccak256(slot key) to RLP-encoded slot
// value. Both tries and the contract code table share one backing mpt.Store.
package state

import (
	"math/big"

	"github.com/triechain/statedb/common"
	"github.com/triechain/statedb/common/amount"
	"github.com/triechain/statedb/database/mpt"
	"github.com/triechain/statedb/rlp"
)

// AccountState is the per-address information held by the outer trie, per
// §3 "Account state (state manager)". StorageRoot is the committed root hash
// of the account's own storage trie (EmptyStorageRoot for an account with no
// storage); CodeHash is keccak256 of the account's bytecode, or
// EmptyCodeHash for an account with no code.
type AccountState struct {
	Nonce       uint64
	Balance     amount.Amount
	StorageRoot common.Hash
	CodeHash    common.Hash
}

// IsEmpty reports whether a holds none of the information an explicitly
// stored account would carry. Implicitly-absent accounts (no trie entry)
// and explicitly-empty accounts are never distinguished by this package;
// the trie itself is the source of truth for presence.
func (a AccountState) IsEmpty() bool {
	return a.Nonce == 0 && a.Balance.IsZero() && a.StorageRoot == EmptyStorageRoot && a.CodeHash == EmptyCodeHash
}

// EmptyStorageRoot is the root hash of an account with no storage entries.
var EmptyStorageRoot = mpt.EmptyTrieRootHash

// EmptyCodeHash is the code hash of an account with no bytecode (the
// keccak256 digest of the empty byte string).
var EmptyCodeHash = common.EmptyKeccak256Hash

// Encode produces the RLP encoding of a, in the canonical
// [nonce, balance, storage_root, code_hash] order shared with other
// Ethereum execution clients.
func (a AccountState) Encode() []byte {
	return rlp.Encode(rlp.List{Items: []rlp.Item{
		rlp.Uint64{Value: a.Nonce},
		rlp.BigInt{Value: a.Balance.ToBig()},
		rlp.String{Str: a.StorageRoot[:]},
		rlp.String{Str: a.CodeHash[:]},
	}})
}

// DecodeAccountState parses the RLP encoding produced by Encode.
func DecodeAccountState(data []byte) (AccountState, error) {
	item, err := rlp.DecodeExact(data)
	if err != nil {
		return AccountState{}, err
	}
	list, ok := item.(rlp.List)
	if !ok || len(list.Items) != 4 {
		return AccountState{}, newCorruptionError("account state must be a 4-element RLP list")
	}

	nonceStr, err := asString(list.Items[0])
	if err != nil {
		return AccountState{}, err
	}
	balanceStr, err := asString(list.Items[1])
	if err != nil {
		return AccountState{}, err
	}
	storageRootStr, err := asString(list.Items[2])
	if err != nil {
		return AccountState{}, err
	}
	codeHashStr, err := asString(list.Items[3])
	if err != nil {
		return AccountState{}, err
	}
	if len(storageRootStr) != common.HashSize || len(codeHashStr) != common.HashSize {
		return AccountState{}, newCorruptionError("account state hash fields must be 32 bytes")
	}

	balance, err := amount.NewFromBigInt(new(big.Int).SetBytes(balanceStr))
	if err != nil {
		return AccountState{}, err
	}

	var state AccountState
	state.Nonce = new(big.Int).SetBytes(nonceStr).Uint64()
	state.Balance = balance
	copy(state.StorageRoot[:], storageRootStr)
	copy(state.CodeHash[:], codeHashStr)
	return state, nil
}

// asString extracts the byte string held by a decoded RLP item, rejecting
// anything that decoded as a nested list.
func asString(item rlp.Item) ([]byte, error) {
	s, ok := item.(rlp.String)
	if !ok {
		return nil, newCorruptionError("expected an RLP string, got %T", item)
	}
	return s.Str, nil
}
