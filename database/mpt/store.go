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

//go:generate mockgen -source store.go -destination store_mocks.go -package mpt

// Store is the abstract backing key-value persistence of §4.F: a pluggable
// map from node-hash (or other fixed-width key) to encoded bytes. Get
// returns (nil, nil) for a missing key, never an error, since a missing key
// is an ordinary outcome rather than a store failure.
type Store interface {
	Get(key []byte) ([]byte, error)
	Put(key []byte, value []byte) error
}

// Table identifies one of the dup-sorted logical namespaces sharing a single
// backing engine, following §6's persisted layout. Keys are prefixed by
// their table so that multiple tables can coexist in one physical store
// without colliding, mirroring the TableSpace convention used elsewhere in
// this codebase for LevelDB-backed stores.
type Table byte

const (
	// TrieNodes holds 32-byte keccak256(encoding) -> encoding for the outer
	// state trie and any transaction/receipt/withdrawal tries.
	TrieNodes Table = 'N'
	// StorageTrieNodes holds per-account storage trie nodes, keyed by
	// (address_hash, node_hash) so that a single account's nodes are
	// physically contiguous for efficient per-account scans.
	StorageTrieNodes Table = 'S'
	// AccountCodes holds 32-byte keccak256(code) -> code_bytes.
	AccountCodes Table = 'C'
	// ChainData holds a small enumerated set of singleton keys external to
	// the trie core (chain config, head block markers); the core never
	// writes to it but the table is reserved so collaborators share the
	// same physical store.
	ChainData Table = 'D'
)

// TableKey prefixes key with its table, the same dense byte-prefix
// convention used throughout this codebase for sharing one physical store
// across logically distinct namespaces.
func TableKey(t Table, key []byte) []byte {
	res := make([]byte, 1+len(key))
	res[0] = byte(t)
	copy(res[1:], key)
	return res
}

// StorageNodeKey builds the composite (address_hash, node_hash) key used by
// StorageTrieNodes, physically ordering entries by address_hash then
// node_hash for efficient per-account scans.
func StorageNodeKey(addressHash [20]byte, nodeHash []byte) []byte {
	res := make([]byte, 0, 20+len(nodeHash))
	res = append(res, addressHash[:]...)
	res = append(res, nodeHash...)
	return res
}

// ----------------------------------------------------------------------------
//                              In-memory store
// ----------------------------------------------------------------------------

// MemStore is a plain-map Store, intended for tests and ephemeral
// verification (§4.F "In-memory").
type MemStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemStore creates an empty in-memory Store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

func (s *MemStore) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[string(key)]
	if !ok {
		return nil, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (s *MemStore) Put(key []byte, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.data[string(key)] = cp
	return nil
}

// Len reports the number of entries currently held, mainly useful in tests.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// GetMemoryFootprint reports the approximate heap consumption of this
// store's entries, following the same reporting convention as the
// disk-backed PebbleStore.
func (s *MemStore) GetMemoryFootprint() *common.MemoryFootprint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var size uintptr
	for k, v := range s.data {
		size += uintptr(len(k) + len(v))
	}
	return common.NewMemoryFootprint(size)
}

// TableStore adapts a single Table of an underlying multi-table engine (see
// store_pebble.go) into a plain Store, for components that only need a
// single-namespace view, such as a TrieState over one account's storage
// trie.
type TableStore struct {
	table   Table
	backing interface {
		Get(key []byte) ([]byte, error)
		Put(key []byte, value []byte) error
	}
}

// NewTableStore returns a Store restricted to a single table of backing.
func NewTableStore(table Table, backing interface {
	Get(key []byte) ([]byte, error)
	Put(key []byte, value []byte) error
}) *TableStore {
	return &TableStore{table: table, backing: backing}
}

func (s *TableStore) Get(key []byte) ([]byte, error) {
	return s.backing.Get(TableKey(s.table, key))
}

func (s *TableStore) Put(key []byte, value []byte) error {
	return s.backing.Put(TableKey(s.table, key), value)
}

// AccountStorageStore adapts the StorageTrieNodes table of an underlying
// multi-table engine into a plain Store scoped to a single account, so that
// a TrieState opened over one account's storage trie never sees, and
// cannot collide with, another account's nodes.
type AccountStorageStore struct {
	addressHash [20]byte
	backing     interface {
		Get(key []byte) ([]byte, error)
		Put(key []byte, value []byte) error
	}
}

// NewAccountStorageStore returns a Store restricted to addressHash's slice
// of the StorageTrieNodes table of backing.
func NewAccountStorageStore(addressHash [20]byte, backing interface {
	Get(key []byte) ([]byte, error)
	Put(key []byte, value []byte) error
}) *AccountStorageStore {
	return &AccountStorageStore{addressHash: addressHash, backing: backing}
}

func (s *AccountStorageStore) Get(key []byte) ([]byte, error) {
	return s.backing.Get(TableKey(StorageTrieNodes, StorageNodeKey(s.addressHash, key)))
}

func (s *AccountStorageStore) Put(key []byte, value []byte) error {
	return s.backing.Put(TableKey(StorageTrieNodes, StorageNodeKey(s.addressHash, key)), value)
}
