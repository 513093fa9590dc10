// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/triechain/statedb/common"
	"github.com/triechain/statedb/database/mpt"
)

var (
	dbDirectoryFlag = cli.StringFlag{
		Name:     "dir",
		Usage:    "the targeted store directory",
		Required: true,
	}
	rootFlag = cli.StringFlag{
		Name:     "root",
		Usage:    "the 32-byte committed trie root, as hex",
		Required: true,
	}
	addressFlag = cli.StringFlag{
		Name:     "address",
		Usage:    "the 20-byte account address, as hex",
		Required: true,
	}
	slotFlag = cli.StringFlag{
		Name:     "slot",
		Usage:    "the 32-byte storage slot key, as hex",
		Required: true,
	}
)

// open opens a state store directory in the PebbleStore on-disk format.
func open(dir string) (*mpt.PebbleStore, error) {
	return mpt.OpenPebbleStore(dir)
}

func parseHash(s string) (common.Hash, error) {
	b, err := hex.DecodeString(trimHexPrefix(s))
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) != common.HashSize {
		return common.Hash{}, fmt.Errorf("expected %d bytes, got %d", common.HashSize, len(b))
	}
	var h common.Hash
	copy(h[:], b)
	return h, nil
}

func parseAddress(s string) (common.Address, error) {
	b, err := hex.DecodeString(trimHexPrefix(s))
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) != common.AddressSize {
		return common.Address{}, fmt.Errorf("expected %d bytes, got %d", common.AddressSize, len(b))
	}
	var a common.Address
	copy(a[:], b)
	return a, nil
}

func parseKey(s string) (common.Key, error) {
	b, err := hex.DecodeString(trimHexPrefix(s))
	if err != nil {
		return common.Key{}, fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) != common.KeySize {
		return common.Key{}, fmt.Errorf("expected %d bytes, got %d", common.KeySize, len(b))
	}
	var k common.Key
	copy(k[:], b)
	return k, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
