// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ava-labs/avalanchego/ids"
)

const AddressLen = 32

// Address identifies an account on the ledger. Modules and resources are
// published under an address.
type Address [AddressLen]byte

var EmptyAddress = Address{}

// CreateAddress returns the [Address] derived from [id].
func CreateAddress(id ids.ID) Address {
	return Address(id)
}

// ShortAddress returns an address whose last byte is [b]. System modules
// live at ShortAddress(1).
func ShortAddress(b byte) Address {
	var a Address
	a[AddressLen-1] = b
	return a
}

// StringToAddress parses a (optionally 0x-prefixed) hex string. Short
// strings are left-padded with zeroes so "0x1" is a valid address.
func StringToAddress(s string) (Address, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return EmptyAddress, err
	}
	if len(b) > AddressLen {
		return EmptyAddress, fmt.Errorf("%w: %d bytes", ErrInvalidSize, len(b))
	}
	var a Address
	copy(a[AddressLen-len(b):], b)
	return a, nil
}

// String implements fmt.Stringer.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// MarshalText returns the hex representation of a.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses a hex-encoded address.
func (a *Address) UnmarshalText(input []byte) error {
	parsed, err := StringToAddress(string(input))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
