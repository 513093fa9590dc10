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

import "sync"

// memBacking is a plain-map backing store for tests, covering both the
// read-only and read-write halves of the backing interface without
// depending on a real pebble database.
type memBacking struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemBacking() *memBacking {
	return &memBacking{data: make(map[string][]byte)}
}

func (b *memBacking) Get(key []byte) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.data[string(key)]
	if !ok {
		return nil, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (b *memBacking) Put(key []byte, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	b.data[string(key)] = cp
	return nil
}

func (b *memBacking) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}
