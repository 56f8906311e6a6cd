// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ed25519

import (
	"crypto/ed25519"
	"errors"
)

var (
	ErrInvalidPrivateKey = errors.New("invalid private key")
	ErrInvalidPublicKey  = errors.New("invalid public key")
	ErrInvalidSignature  = errors.New("invalid signature")
)

// PrivateKeyFromBytes accepts either a full private key or its seed.
func PrivateKeyFromBytes(b []byte) (PrivateKey, error) {
	switch len(b) {
	case PrivateKeyLen:
		return PrivateKey(b), nil
	case PrivateKeySeedLen:
		return PrivateKey(ed25519.NewKeyFromSeed(b)), nil
	default:
		return EmptyPrivateKey, ErrInvalidPrivateKey
	}
}

// PublicKeyFromBytes copies [b] into a [PublicKey].
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	if len(b) != PublicKeyLen {
		return EmptyPublicKey, ErrInvalidPublicKey
	}
	return PublicKey(b), nil
}

// SignatureFromBytes copies [b] into a [Signature].
func SignatureFromBytes(b []byte) (Signature, error) {
	if len(b) != SignatureLen {
		return EmptySignature, ErrInvalidSignature
	}
	return Signature(b), nil
}
