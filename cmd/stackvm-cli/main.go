// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stackvm-cli",
	Short: "Create keys, genesis files and transactions and execute them locally",
	Long: `A CLI for working with the stackvm runtime: generate keys, write a genesis,
sign transactions and execute them against an in-memory ledger.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(0)
}

func init() {
	rootCmd.PersistentFlags().StringP("output", "o", "text", "Output format (text or json)")
	rootCmd.PersistentFlags().String("key", "", "Private ED25519 key as hex string")
	rootCmd.PersistentFlags().String("config", "", "Runtime config file (JSON or YAML)")
}

func main() {
	Execute()
}
