// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import (
	"github.com/triechain/statedb/common"
	"github.com/triechain/statedb/database/mpt"
)

// CodeStore is content-addressed contract bytecode storage: keccak256(code)
// -> code, held in the mpt.AccountCodes table of the shared backing store.
// Unlike account and storage trie nodes, code blobs are never part of any
// trie and so carry no proof of their own; a caller authenticates a code
// blob by recomputing its hash and comparing it against the CodeHash field
// of the AccountState that references it.
type CodeStore struct {
	store mpt.Store
}

// NewCodeStore wraps backing's AccountCodes table as a CodeStore.
func NewCodeStore(backing interface {
	Get(key []byte) ([]byte, error)
	Put(key []byte, value []byte) error
}) *CodeStore {
	return &CodeStore{store: mpt.NewTableStore(mpt.AccountCodes, backing)}
}

// Put writes code to the store under its own keccak256 digest and returns
// that digest. Writing the same code twice is a no-op the second time: code
// storage is immutable and content-addressed, so re-writing never changes
// the stored bytes.
func (c *CodeStore) Put(code []byte) (common.Hash, error) {
	hash := common.Keccak256(code)
	if len(code) == 0 {
		return hash, nil
	}
	existing, err := c.store.Get(hash[:])
	if err != nil {
		return common.Hash{}, err
	}
	if existing != nil {
		return hash, nil
	}
	if err := c.store.Put(hash[:], code); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// Get resolves hash to its code blob. The empty code hash always resolves
// to (nil, nil) without a store lookup. Any other hash with no matching
// entry also resolves to (nil, nil): callers expecting a present account's code to
// always be found should treat that as a CorruptionError of their own.
func (c *CodeStore) Get(hash common.Hash) ([]byte, error) {
	if hash == EmptyCodeHash {
		return nil, nil
	}
	return c.store.Get(hash[:])
}
