// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/spf13/cobra"

	"github.com/ava-labs/stackvm/chain"
	"github.com/ava-labs/stackvm/codec"
	"github.com/ava-labs/stackvm/genesis"
)

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Create signed transactions",
}

var txPayCmd = &cobra.Command{
	Use:   "pay",
	Short: "Sign a transfer from --key to --to",
	RunE: func(cmd *cobra.Command, _ []string) error {
		priv, err := privateKeyFromFlag(cmd)
		if err != nil {
			return err
		}
		toString, err := getFlag(cmd, "to", true)
		if err != nil {
			return err
		}
		to, err := codec.StringToAddress(toString)
		if err != nil {
			return fmt.Errorf("failed to parse recipient: %w", err)
		}
		flags := cmd.Flags()
		amount, err := flags.GetUint64("amount")
		if err != nil {
			return err
		}
		seq, err := flags.GetUint64("seq")
		if err != nil {
			return err
		}
		maxGas, err := flags.GetUint64("max-gas")
		if err != nil {
			return err
		}
		price, err := flags.GetUint64("price")
		if err != nil {
			return err
		}

		script, err := genesis.PayScript()
		if err != nil {
			return err
		}
		raw := &chain.RawTransaction{
			Sender:         priv.PublicKey().Address(),
			SequenceNumber: seq,
			Script:         script,
			Args:           []chain.TransactionArgument{chain.AddressArgument(to), chain.U64Argument(amount)},
			MaxGasAmount:   maxGas,
			GasUnitPrice:   price,
		}
		tx, err := raw.Sign(priv)
		if err != nil {
			return fmt.Errorf("failed to sign transaction: %w", err)
		}
		b, err := tx.Bytes()
		if err != nil {
			return err
		}
		id, err := tx.ID()
		if err != nil {
			return err
		}
		return printValue(cmd, txResponse{ID: id, Tx: b})
	},
}

type txResponse struct {
	ID ids.ID      `json:"id"`
	Tx codec.Bytes `json:"tx"`
}

func (r txResponse) String() string {
	return r.Tx.String()
}

func init() {
	txPayCmd.Flags().String("to", "", "Recipient address")
	txPayCmd.Flags().Uint64("amount", 0, "Amount to transfer")
	txPayCmd.Flags().Uint64("seq", 0, "Sequence number of the sender")
	txPayCmd.Flags().Uint64("max-gas", 100_000, "Maximum gas the transaction may use")
	txPayCmd.Flags().Uint64("price", 1, "Price paid per unit of gas")
	txCmd.AddCommand(txPayCmd)
	rootCmd.AddCommand(txCmd)
}
