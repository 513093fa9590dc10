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

var statsCommand = cli.Command{
	Action: printStats,
	Name:   "stats",
	Usage:  "prints the in-process memory footprint of the backing store",
	Flags: []cli.Flag{
		&dbDirectoryFlag,
	},
}

func printStats(ctx *cli.Context) (err error) {
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

	manager := state.NewManager(store)
	mf := manager.GetMemoryFootprint()
	if mf == nil {
		fmt.Println("backing store does not report a memory footprint")
		return nil
	}
	fmt.Print(mf.ToString("manager"))
	return nil
}
