// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ava-labs/stackvm/codec"
	"github.com/ava-labs/stackvm/crypto/ed25519"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage keys",
}

var keyGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new ED25519 key",
	RunE: func(cmd *cobra.Command, _ []string) error {
		priv, err := ed25519.GeneratePrivateKey()
		if err != nil {
			return fmt.Errorf("failed to generate key: %w", err)
		}
		return printValue(cmd, newKeyResponse(priv))
	},
}

var keyAddressCmd = &cobra.Command{
	Use:   "address",
	Short: "Print the address and public key of --key",
	RunE: func(cmd *cobra.Command, _ []string) error {
		priv, err := privateKeyFromFlag(cmd)
		if err != nil {
			return err
		}
		resp := newKeyResponse(priv)
		resp.PrivateKey = nil
		return printValue(cmd, resp)
	},
}

type keyResponse struct {
	PrivateKey codec.Bytes   `json:"privateKey,omitempty"`
	PublicKey  codec.Bytes   `json:"publicKey"`
	Address    codec.Address `json:"address"`
}

func newKeyResponse(priv ed25519.PrivateKey) keyResponse {
	pk := priv.PublicKey()
	return keyResponse{
		PrivateKey: priv[:],
		PublicKey:  pk[:],
		Address:    pk.Address(),
	}
}

func (r keyResponse) String() string {
	s := fmt.Sprintf("address: %s\npublic key: %s", r.Address, r.PublicKey)
	if r.PrivateKey != nil {
		s = fmt.Sprintf("private key: %s\n%s", r.PrivateKey, s)
	}
	return s
}

func init() {
	keyCmd.AddCommand(keyGenerateCmd, keyAddressCmd)
	rootCmd.AddCommand(keyCmd)
}
