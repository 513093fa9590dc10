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

var accountCommand = cli.Command{
	Action: getAccount,
	Name:   "account",
	Usage:  "prints the decoded account state at a given trie root",
	Flags: []cli.Flag{
		&dbDirectoryFlag,
		&rootFlag,
		&addressFlag,
	},
}

func getAccount(ctx *cli.Context) (err error) {
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

	manager := state.NewManager(store)
	account, found, err := manager.GetAccount(root, address)
	if err != nil {
		return err
	}
	if !found {
		fmt.Printf("no account stored at %x under root %x\n", address, root)
		return nil
	}

	fmt.Printf("nonce:        %d\n", account.Nonce)
	fmt.Printf("balance:      %s\n", account.Balance)
	fmt.Printf("storage root: %x\n", account.StorageRoot)
	fmt.Printf("code hash:    %x\n", account.CodeHash)
	return nil
}
