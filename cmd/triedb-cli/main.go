// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Command triedb-cli inspects a pebble-backed state store directory: print
// an account's decoded state, a storage slot's value, or the store's
// in-process memory footprint, without needing a running node.
//
// Run with `go run ./cmd/triedb-cli`.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:      "triedb-cli",
		HelpName:  "triedb-cli",
		Usage:     "utilities for inspecting a triechain state store directory",
		Copyright: "(c) 2024 Fantom Foundation",
		Commands: []*cli.Command{
			&accountCommand,
			&storageCommand,
			&statsCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
