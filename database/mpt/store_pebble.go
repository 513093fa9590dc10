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
	"os"
	"path/filepath"

	"github.com/cockroachdb/pebble"

	"github.com/triechain/statedb/common"
)

// ErrStoreAlreadyOpen is returned by OpenPebbleStore when another process
// already holds the directory's lock file. It names a fixed condition with
// no per-call detail, so it is declared as a constant rather than built
// through newIOError.
const ErrStoreAlreadyOpen = common.ConstError("mpt: store directory is already open by another process")

// PebbleStore is the durable ordered Store of §4.F: an embedded,
// log-structured persistent key-value engine supporting read transactions
// and read-write transactions with atomic commit. Writes made inside a
// read-write transaction are invisible to any reader until Commit succeeds,
// satisfying the durability contract: a crash-safe reader opening the store
// after a successful commit observes every node written in that commit and
// none from an aborted one.
type PebbleStore struct {
	db   *pebble.DB
	lock common.LockFile
}

// OpenPebbleStore opens (creating if absent) a durable store rooted at dir.
// It holds an exclusive lock file for the lifetime of the store, so a
// second OpenPebbleStore on the same directory from another process fails
// fast with ErrStoreAlreadyOpen instead of racing pebble's own lock.
func OpenPebbleStore(dir string) (*PebbleStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, newIOError("creating store directory "+dir, err)
	}
	lock, err := common.CreateLockFile(filepath.Join(dir, "LOCK_TRIEDB"))
	if err != nil {
		return nil, ErrStoreAlreadyOpen
	}
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		_ = lock.Release()
		return nil, newIOError("opening pebble store at "+dir, err)
	}
	return &PebbleStore{db: db, lock: lock}, nil
}

// Close releases the store's file handles and its directory lock. Pending
// transactions must be closed first.
func (s *PebbleStore) Close() error {
	if err := s.db.Close(); err != nil {
		return newIOError("closing pebble store", err)
	}
	return s.lock.Release()
}

// GetMemoryFootprint reports the portion of this store's consumption that
// pebble tracks in-process (block cache and active memtables); the bulk of
// a pebble store's data lives on disk and outside the process' own memory,
// mirroring how this codebase reports memory for other disk-backed engines.
func (s *PebbleStore) GetMemoryFootprint() *common.MemoryFootprint {
	metrics := s.db.Metrics()
	mf := common.NewMemoryFootprint(0)
	mf.AddChild("blockCache", common.NewMemoryFootprint(uintptr(metrics.BlockCache.Size)))
	mf.AddChild("memTable", common.NewMemoryFootprint(uintptr(metrics.MemTable.Size)))
	return mf
}

// Get implements Store with an implicit single-operation read transaction.
func (s *PebbleStore) Get(key []byte) ([]byte, error) {
	v, closer, err := s.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, newIOError("get", err)
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, closer.Close()
}

// Put implements Store with an implicit single-operation, synced commit.
func (s *PebbleStore) Put(key []byte, value []byte) error {
	if err := s.db.Set(key, value, pebble.Sync); err != nil {
		return newIOError("put", err)
	}
	return nil
}

// ReadTransaction is an isolated, point-in-time read-only view backed by a
// pebble snapshot: writes committed after the transaction was opened are
// never visible through it.
type ReadTransaction struct {
	snap *pebble.Snapshot
}

// NewReadTransaction opens a read transaction against the store's current
// state.
func (s *PebbleStore) NewReadTransaction() (*ReadTransaction, error) {
	return &ReadTransaction{snap: s.db.NewSnapshot()}, nil
}

func (t *ReadTransaction) Get(key []byte) ([]byte, error) {
	v, closer, err := t.snap.Get(key)
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, newIOError("get", err)
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, closer.Close()
}

// Close releases the snapshot. It must be called exactly once.
func (t *ReadTransaction) Close() error {
	return t.snap.Close()
}

// ReadWriteTransaction batches writes into a single pebble Batch so the
// whole set commits atomically, matching §5's requirement that
// apply_account_updates use a single read-write transaction per call.
type ReadWriteTransaction struct {
	db    *pebble.DB
	batch *pebble.Batch
}

// NewReadWriteTransaction opens a new read-write transaction.
func (s *PebbleStore) NewReadWriteTransaction() (*ReadWriteTransaction, error) {
	return &ReadWriteTransaction{db: s.db, batch: s.db.NewBatch()}, nil
}

func (t *ReadWriteTransaction) Get(key []byte) ([]byte, error) {
	v, closer, err := t.batch.Get(key)
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, newIOError("get", err)
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, closer.Close()
}

func (t *ReadWriteTransaction) Put(key []byte, value []byte) error {
	if err := t.batch.Set(key, value, nil); err != nil {
		return newIOError("put", err)
	}
	return nil
}

// Commit makes every write in this transaction durable and visible to
// subsequent transactions. If it fails, the pre-transaction state remains
// observable: no caller has committed this batch.
func (t *ReadWriteTransaction) Commit() error {
	if err := t.batch.Commit(pebble.Sync); err != nil {
		return newIOError("commit", err)
	}
	return nil
}

// Abort discards every write in this transaction without applying any of
// them.
func (t *ReadWriteTransaction) Abort() error {
	return t.batch.Close()
}

// ScanStorageTrieNodes iterates the StorageTrieNodes entries belonging to a
// single account, in physical (address_hash, node_hash) order, per §4.F's
// dup-sorted ordering requirement for efficient per-account scans.
func (s *PebbleStore) ScanStorageTrieNodes(addressHash common.Hash, fn func(nodeHash, encoding []byte) error) error {
	prefix := TableKey(StorageTrieNodes, addressHash[:common.AddressSize])
	upper := incrementBytes(prefix)
	opts := &pebble.IterOptions{LowerBound: prefix}
	if upper != nil {
		opts.UpperBound = upper
	}
	iter, err := s.db.NewIter(opts)
	if err != nil {
		return newIOError("opening storage scan", err)
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		key := iter.Key()
		nodeHash := append([]byte(nil), key[1+common.AddressSize:]...)
		value := append([]byte(nil), iter.Value()...)
		if err := fn(nodeHash, value); err != nil {
			return err
		}
	}
	if err := iter.Error(); err != nil {
		return newIOError("storage scan", err)
	}
	return nil
}

// incrementBytes returns the shortest byte string that sorts after every
// string starting with b (the exclusive upper bound of b's prefix range),
// or nil if b consists entirely of 0xff bytes (meaning there is no upper
// bound: the prefix range extends to the end of the keyspace).
func incrementBytes(b []byte) []byte {
	res := append([]byte(nil), b...)
	for i := len(res) - 1; i >= 0; i-- {
		if res[i] < 0xff {
			res[i]++
			return res[:i+1]
		}
	}
	return nil
}
