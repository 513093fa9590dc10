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
	"math/big"

	"github.com/triechain/statedb/common"
	"github.com/triechain/statedb/common/amount"
	"github.com/triechain/statedb/database/mpt"
	"github.com/triechain/statedb/rlp"
)

// backing is the shared key-value engine underlying every trie instance a
// Manager opens: the outer account trie, every account's own storage trie,
// and the code table, per §4.I "Shared resources". PebbleStore and
// ReadWriteTransaction both satisfy it.
type backing interface {
	Get(key []byte) ([]byte, error)
	Put(key []byte, value []byte) error
}

// Manager presents a (root) -> account_view interface over one shared
// backing store, per §4.I. It holds no mutable state of its own: every
// method opens the tries it needs at the caller-supplied root and discards
// them when it returns, so a Manager may be shared freely across
// concurrently-read heights.
type Manager struct {
	backing backing
	codes   *CodeStore
}

// NewManager wraps backing as a Manager.
func NewManager(backing backing) *Manager {
	return &Manager{backing: backing, codes: NewCodeStore(backing)}
}

// memoryFootprintProvider is implemented by backing stores that track their
// own in-process memory consumption, such as mpt.PebbleStore and
// mpt.MemStore.
type memoryFootprintProvider interface {
	GetMemoryFootprint() *common.MemoryFootprint
}

// GetMemoryFootprint reports the memory consumption of the backing store
// underlying this Manager, if it tracks one. It returns nil for a backing
// implementation that does not expose a footprint (for example, a raw
// ReadWriteTransaction batch).
func (m *Manager) GetMemoryFootprint() *common.MemoryFootprint {
	provider, ok := m.backing.(memoryFootprintProvider)
	if !ok {
		return nil
	}
	mf := common.NewMemoryFootprint(0)
	mf.AddChild("backing", provider.GetMemoryFootprint())
	return mf
}

// GetAccount resolves address's account state as of root, or (AccountState{}, false, nil)
// if no account is stored at that address.
func (m *Manager) GetAccount(root common.Hash, address common.Address) (AccountState, bool, error) {
	trie, err := mpt.Open(mpt.NewTableStore(mpt.TrieNodes, m.backing), root)
	if err != nil {
		return AccountState{}, false, err
	}
	key := common.Keccak256ForAddress(address)
	encoded, err := trie.Get(key[:])
	if err != nil {
		return AccountState{}, false, err
	}
	if encoded == nil {
		return AccountState{}, false, nil
	}
	account, err := DecodeAccountState(encoded)
	if err != nil {
		return AccountState{}, false, err
	}
	return account, true, nil
}

// accountFromTrie looks up addressHash directly against an already-opened
// outer trie, defaulting to the zero AccountState if absent. Used by
// ApplyAccountUpdates so that an update reads any earlier update to the
// same address made within the same call, rather than the pre-call root.
func accountFromTrie(trie *mpt.Trie, addressHash common.Hash) (AccountState, error) {
	encoded, err := trie.Get(addressHash[:])
	if err != nil {
		return AccountState{}, err
	}
	if encoded == nil {
		return AccountState{}, nil
	}
	return DecodeAccountState(encoded)
}

// GetStorage resolves address's slot at slotKey as of root. An account with
// no storage, or with this slot never set, resolves to a zero value.
func (m *Manager) GetStorage(root common.Hash, address common.Address, slotKey common.Key) (*big.Int, error) {
	account, found, err := m.GetAccount(root, address)
	if err != nil {
		return nil, err
	}
	if !found {
		return new(big.Int), nil
	}
	return m.getStorage(address, account.StorageRoot, slotKey)
}

func (m *Manager) getStorage(address common.Address, storageRoot common.Hash, slotKey common.Key) (*big.Int, error) {
	trie, err := mpt.Open(storageStoreFor(address, m.backing), storageRoot)
	if err != nil {
		return nil, err
	}
	key := common.Keccak256ForKey(slotKey)
	encoded, err := trie.Get(key[:])
	if err != nil {
		return nil, err
	}
	if encoded == nil {
		return new(big.Int), nil
	}
	return decodeStorageValue(encoded)
}

// storageStoreFor scopes backing to address's slice of the storage trie
// node table.
func storageStoreFor(address common.Address, backing backing) *mpt.AccountStorageStore {
	addressHash := common.Keccak256ForAddress(address)
	var addr20 [common.AddressSize]byte
	copy(addr20[:], addressHash[:common.AddressSize])
	return mpt.NewAccountStorageStore(addr20, backing)
}

// AccountUpdate is one entry of an apply_account_updates call, per §4.I.
// Exactly one of Removed or Changed applies: Removed deletes the account
// outright; otherwise the fields below are overlaid onto the account's
// existing state (or its zero state, for a newly created account).
type AccountUpdate struct {
	Address common.Address
	Removed bool

	// Changed fields; ignored when Removed is true.
	Nonce        uint64
	Balance      amount.Amount
	Code         []byte // nil leaves CodeHash unchanged
	AddedStorage []StorageWrite
}

// StorageWrite is one (slot_key, slot_value) pair from an update's
// added_storage set. A zero Value removes the slot.
type StorageWrite struct {
	Key   common.Key
	Value *big.Int
}

// ApplyAccountUpdates applies updates to the account trie rooted at
// parentRoot and returns the resulting root, per §4.I. Code blobs are
// written to the backing store as each update is applied, and so are the
// nodes of each updated storage trie; the account trie's nodes are written
// by the final Hash call. Every write goes to a content-addressed key and
// never replaces an entry with different bytes, so on a returned error
// parentRoot and everything reachable from it still read back unchanged.
func (m *Manager) ApplyAccountUpdates(parentRoot common.Hash, updates []AccountUpdate) (common.Hash, error) {
	trie, err := mpt.Open(mpt.NewTableStore(mpt.TrieNodes, m.backing), parentRoot)
	if err != nil {
		return common.Hash{}, err
	}

	for _, update := range updates {
		addressHash := common.Keccak256ForAddress(update.Address)

		if update.Removed {
			if _, err := trie.Remove(addressHash[:]); err != nil {
				return common.Hash{}, err
			}
			continue
		}

		account, err := accountFromTrie(trie, addressHash)
		if err != nil {
			return common.Hash{}, err
		}
		account.Nonce = update.Nonce
		account.Balance = update.Balance
		if update.Code != nil {
			codeHash, err := m.codes.Put(update.Code)
			if err != nil {
				return common.Hash{}, err
			}
			account.CodeHash = codeHash
		}
		if account.CodeHash == (common.Hash{}) {
			account.CodeHash = EmptyCodeHash
		}
		if account.StorageRoot == (common.Hash{}) {
			account.StorageRoot = EmptyStorageRoot
		}

		newStorageRoot, err := m.applyStorageWrites(update.Address, account.StorageRoot, update.AddedStorage)
		if err != nil {
			return common.Hash{}, err
		}
		account.StorageRoot = newStorageRoot

		if err := trie.Insert(addressHash[:], account.Encode()); err != nil {
			return common.Hash{}, err
		}
	}

	return trie.Hash()
}

// applyStorageWrites opens address's storage trie at storageRoot, applies
// writes (a zero value removes the slot), and returns the resulting root.
func (m *Manager) applyStorageWrites(address common.Address, storageRoot common.Hash, writes []StorageWrite) (common.Hash, error) {
	if len(writes) == 0 {
		return storageRoot, nil
	}
	trie, err := mpt.Open(storageStoreFor(address, m.backing), storageRoot)
	if err != nil {
		return common.Hash{}, err
	}
	for _, w := range writes {
		key := common.Keccak256ForKey(w.Key)
		if w.Value == nil || w.Value.Sign() == 0 {
			if _, err := trie.Remove(key[:]); err != nil {
				return common.Hash{}, err
			}
			continue
		}
		if err := trie.Insert(key[:], encodeStorageValue(w.Value)); err != nil {
			return common.Hash{}, err
		}
	}
	return trie.Hash()
}

// encodeStorageValue RLP-encodes a storage slot value as the minimal
// big-endian byte string, matching other Ethereum clients' storage trie
// leaf encoding.
func encodeStorageValue(v *big.Int) []byte {
	return rlp.Encode(rlp.String{Str: v.Bytes()})
}

// decodeStorageValue parses the RLP encoding produced by encodeStorageValue.
func decodeStorageValue(data []byte) (*big.Int, error) {
	item, err := rlp.DecodeExact(data)
	if err != nil {
		return nil, err
	}
	s, ok := item.(rlp.String)
	if !ok {
		return nil, newCorruptionError("storage value must be an RLP string")
	}
	return new(big.Int).SetBytes(s.Str), nil
}
