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
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/triechain/statedb/state"
)

var storageCommand = cli.Command{
	Action: getStorage,
	Name:   "storage",
	Usage:  "prints a storage slot's value at a given trie root",
	Flags: []cli.Flag{
		&dbDirectoryFlag,
		&rootFlag,
		&addressFlag,
		&slotFlag,
	},
}

func getStorage(ctx *cli.Context) (err error) {
	dir := ctx.String(dbDirectoryFlag.Name)
	logrus.Infof("opening store in %v ...", dir)
	store, err := open(dir)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	root, err := parseHash(ctx.String(rootFlag.Name))
	if err != nil {
		return fmt.Errorf("parsing --root: %w", err)
	}
	address, err := parseAddress(ctx.String(addressFlag.Name))
	if err != nil {
		return fmt.Errorf("parsing --address: %w", err)
	}
	slot, err := parseKey(ctx.String(slotFlag.Name))
	if err != nil {
		return fmt.Errorf("parsing --slot: %w", err)
	}

	manager := state.NewManager(store)
	value, err := manager.GetStorage(root, address, slot)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", value)
	return nil
}
