// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ava-labs/stackvm/codec"
	"github.com/ava-labs/stackvm/crypto/ed25519"
	"github.com/ava-labs/stackvm/genesis"
)

var genesisCmd = &cobra.Command{
	Use:   "genesis [public key hex]...",
	Short: "Write a genesis funding each public key",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		balance, err := cmd.Flags().GetUint64("balance")
		if err != nil {
			return err
		}
		allocations := make([]*genesis.Allocation, len(args))
		for i, arg := range args {
			b, err := codec.DecodeHex(arg, ed25519.PublicKeyLen)
			if err != nil {
				return fmt.Errorf("failed to decode public key %q: %w", arg, err)
			}
			pk, err := ed25519.PublicKeyFromBytes(b)
			if err != nil {
				return err
			}
			allocations[i] = genesis.NewAllocation(pk, balance)
		}
		g := genesis.NewDefaultGenesis(allocations)
		b, err := json.MarshalIndent(g, "", "  ")
		if err != nil {
			return err
		}

		out, err := getFlag(cmd, "out", false)
		if err != nil {
			return err
		}
		if out == "" {
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		}
		return os.WriteFile(out, b, 0o600)
	},
}

func init() {
	genesisCmd.Flags().Uint64("balance", 1_000_000_000, "Initial balance of every account")
	genesisCmd.Flags().String("out", "", "File to write the genesis to (default stdout)")
	rootCmd.AddCommand(genesisCmd)
}
