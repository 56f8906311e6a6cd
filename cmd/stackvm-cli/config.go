// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ava-labs/stackvm/codec"
	"github.com/ava-labs/stackvm/config"
	"github.com/ava-labs/stackvm/crypto/ed25519"
)

func isJSONOutputRequested(cmd *cobra.Command) (bool, error) {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return false, fmt.Errorf("failed to get output format: %w", err)
	}
	return strings.ToLower(output) == "json", nil
}

func printValue(cmd *cobra.Command, v fmt.Stringer) error {
	isJSON, err := isJSONOutputRequested(cmd)
	if err != nil {
		return err
	}
	if !isJSON {
		fmt.Fprintln(cmd.OutOrStdout(), v.String())
		return nil
	}
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(jsonBytes))
	return nil
}

func getFlag(cmd *cobra.Command, name string, required bool) (string, error) {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", err
	}
	if value == "" && required {
		return "", fmt.Errorf("required value for %s not found", name)
	}
	return value, nil
}

func privateKeyFromFlag(cmd *cobra.Command) (ed25519.PrivateKey, error) {
	keyString, err := getFlag(cmd, "key", true)
	if err != nil {
		return ed25519.EmptyPrivateKey, err
	}
	b, err := codec.DecodeHex(keyString, -1)
	if err != nil {
		return ed25519.EmptyPrivateKey, fmt.Errorf("failed to decode key: %w", err)
	}
	return ed25519.PrivateKeyFromBytes(b)
}

// loadConfig reads the --config file, or returns the defaults.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := getFlag(cmd, "config", false)
	if err != nil {
		return config.Config{}, err
	}
	if path == "" {
		return config.NewConfig(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return config.Config{}, err
	}
	return config.ParseConfig(b)
}

func decodeFileOrHex(fileNameOrHex string) ([]byte, error) {
	if decoded, err := codec.DecodeHex(fileNameOrHex, -1); err == nil {
		return decoded, nil
	}
	if fileContents, err := os.ReadFile(fileNameOrHex); err == nil {
		return fileContents, nil
	}
	return nil, errors.New("unable to decode input as hex, or read as file path")
}
