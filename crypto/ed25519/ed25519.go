// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ed25519

import (
	"crypto/ed25519"

	"github.com/hdevalence/ed25519consensus"
	"golang.org/x/crypto/sha3"

	"github.com/ava-labs/stackvm/codec"
)

type (
	PublicKey  [ed25519.PublicKeySize]byte
	PrivateKey [ed25519.PrivateKeySize]byte
	Signature  [ed25519.SignatureSize]byte
)

// Signatures are checked with the ZIP-215 rules
// (https://zips.z.cash/zip-0215) so that every node accepts exactly the
// same set of signatures, including in batches.
const (
	PublicKeyLen  = ed25519.PublicKeySize
	PrivateKeyLen = ed25519.PrivateKeySize
	// PrivateKeySeedLen is defined because ed25519.PrivateKey
	// is formatted as privateKey = seed|publicKey.
	PrivateKeySeedLen = ed25519.SeedSize
	SignatureLen      = ed25519.SignatureSize

	// schemeID is appended to a public key before hashing it into an
	// authentication key.
	schemeID byte = 0
)

var (
	EmptyPublicKey  = [ed25519.PublicKeySize]byte{}
	EmptyPrivateKey = [ed25519.PrivateKeySize]byte{}
	EmptySignature  = [ed25519.SignatureSize]byte{}
)

// GeneratePrivateKey returns a Ed25519 PrivateKey.
func GeneratePrivateKey() (PrivateKey, error) {
	_, k, err := ed25519.GenerateKey(nil)
	if err != nil {
		return EmptyPrivateKey, err
	}
	return PrivateKey(k), nil
}

// PublicKey returns a PublicKey associated with the Ed25519 PrivateKey p.
// The PublicKey is the last 32 bytes of p.
func (p PrivateKey) PublicKey() PublicKey {
	return PublicKey(p[PrivateKeySeedLen:])
}

// Sign returns a valid signature for msg using pk.
func Sign(msg []byte, pk PrivateKey) Signature {
	sig := ed25519.Sign(pk[:], msg)
	return Signature(sig)
}

// Verify returns whether s is a valid signature of msg by p.
func Verify(msg []byte, p PublicKey, s Signature) bool {
	return ed25519consensus.Verify(p[:], msg, s[:])
}

// VerifyBytes is [Verify] over unchecked byte slices. Inputs of the wrong
// length never verify.
func VerifyBytes(msg []byte, pk []byte, sig []byte) bool {
	if len(pk) != PublicKeyLen || len(sig) != SignatureLen {
		return false
	}
	return ed25519consensus.Verify(pk, msg, sig)
}

// AuthenticationKey is the sha3-256 digest of the public key and signature
// scheme. Accounts store it to authorize transactions.
func (p PublicKey) AuthenticationKey() [32]byte {
	h := sha3.New256()
	_, _ = h.Write(p[:])
	_, _ = h.Write([]byte{schemeID})
	var key [32]byte
	copy(key[:], h.Sum(nil))
	return key
}

// Address is the account address derived from [p] at account creation.
func (p PublicKey) Address() codec.Address {
	return codec.Address(p.AuthenticationKey())
}

type Batch struct {
	bv ed25519consensus.BatchVerifier
}

func NewBatch(size int) *Batch {
	return &Batch{bv: ed25519consensus.NewPreallocatedBatchVerifier(size)}
}

func (b *Batch) Add(msg []byte, p PublicKey, s Signature) {
	b.bv.Add(p[:], msg, s[:])
}

func (b *Batch) Verify() bool {
	return b.bv.Verify()
}
