// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ava-labs/stackvm/chain"
	"github.com/ava-labs/stackvm/genesis"
	"github.com/ava-labs/stackvm/state"
	"github.com/ava-labs/stackvm/vm"
)

var runCmd = &cobra.Command{
	Use:   "run [tx hex or file]...",
	Short: "Execute transactions in order against a fresh ledger built from --genesis",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		genesisPath, err := getFlag(cmd, "genesis", true)
		if err != nil {
			return err
		}
		genesisBytes, err := os.ReadFile(genesisPath)
		if err != nil {
			return err
		}
		g, err := genesis.Load(genesisBytes)
		if err != nil {
			return fmt.Errorf("failed to load genesis: %w", err)
		}
		// The genesis rules bound execution unless the config overrides them.
		if !cmd.Flags().Changed("config") {
			cfg.Rules = *g.Rules
		}

		txs := make([]*chain.SignedTransaction, len(args))
		for i, arg := range args {
			b, err := decodeFileOrHex(strings.TrimSpace(arg))
			if err != nil {
				return err
			}
			txs[i], err = chain.ParseSignedTransaction(b)
			if err != nil {
				return fmt.Errorf("failed to parse transaction %d: %w", i, err)
			}
		}

		runtime, err := vm.New(cfg)
		if err != nil {
			return err
		}
		defer runtime.Shutdown()

		view := state.MemoryView{}
		if err := runtime.InitializeGenesis(ctx, g, view); err != nil {
			return err
		}
		res, err := runtime.ExecuteBlock(ctx, txs, view)
		if err != nil {
			return err
		}

		resp := runResponse{Writes: len(res.WriteSet)}
		for _, out := range res.Outputs {
			resp.Outputs = append(resp.Outputs, outputResponse{
				Phase:   out.Phase.String(),
				Status:  out.Status.String(),
				GasUsed: out.GasUsed,
				Events:  len(out.Events),
			})
		}
		return printValue(cmd, resp)
	},
}

type outputResponse struct {
	Phase   string `json:"phase"`
	Status  string `json:"status"`
	GasUsed uint64 `json:"gasUsed"`
	Events  int    `json:"events"`
}

type runResponse struct {
	Outputs []outputResponse `json:"outputs"`
	Writes  int              `json:"writes"`
}

func (r runResponse) String() string {
	var sb strings.Builder
	for i, out := range r.Outputs {
		fmt.Fprintf(&sb, "%d: %s %s gas=%d events=%d\n", i, out.Phase, out.Status, out.GasUsed, out.Events)
	}
	fmt.Fprintf(&sb, "writes: %d", r.Writes)
	return sb.String()
}

func init() {
	runCmd.Flags().String("genesis", "", "Genesis file")
	rootCmd.AddCommand(runCmd)
}
