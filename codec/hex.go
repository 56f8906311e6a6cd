// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// DecodeHex parses an optionally 0x-prefixed hex string. A non-negative
// [size] requires the result to be exactly that many bytes.
func DecodeHex(s string, size int) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, err
	}
	if size >= 0 && len(b) != size {
		return nil, fmt.Errorf("%w: want %d bytes, have %d", ErrInvalidSize, size, len(b))
	}
	return b, nil
}

// Bytes is a byte slice carried as 0x-prefixed hex in JSON and YAML.
type Bytes []byte

func (b Bytes) String() string {
	return "0x" + hex.EncodeToString(b)
}

func (b Bytes) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Bytes) UnmarshalText(text []byte) error {
	decoded, err := DecodeHex(string(text), -1)
	if err != nil {
		return err
	}
	*b = decoded
	return nil
}
