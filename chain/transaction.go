// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/near/borsh-go"
	"golang.org/x/crypto/sha3"

	"github.com/ava-labs/stackvm/codec"
	"github.com/ava-labs/stackvm/crypto/ed25519"
	"github.com/ava-labs/stackvm/types"
)

// rawTransactionSalt prefixes every signing message so a signature over a
// transaction can never be replayed as a signature over other data.
var rawTransactionSalt = func() []byte {
	h := sha3.Sum256([]byte("STACKVM::RawTransaction"))
	return h[:]
}()

// RawTransaction is the unsigned body of a transaction.
type RawTransaction struct {
	Sender         codec.Address
	SequenceNumber uint64
	// Script is the encoded script to run as the main phase.
	Script       []byte
	TypeArgs     []types.TypeTag
	Args         []TransactionArgument
	MaxGasAmount uint64
	GasUnitPrice uint64
}

// SigningMessage returns the bytes covered by the sender's signature.
func (r *RawTransaction) SigningMessage() ([]byte, error) {
	b, err := borsh.Serialize(*r)
	if err != nil {
		return nil, err
	}
	msg := make([]byte, 0, len(rawTransactionSalt)+len(b))
	msg = append(msg, rawTransactionSalt...)
	return append(msg, b...), nil
}

// Sign signs [r] with [priv].
func (r *RawTransaction) Sign(priv ed25519.PrivateKey) (*SignedTransaction, error) {
	msg, err := r.SigningMessage()
	if err != nil {
		return nil, err
	}
	return &SignedTransaction{
		Raw:       *r,
		PublicKey: priv.PublicKey(),
		Signature: ed25519.Sign(msg, priv),
	}, nil
}

type SignedTransaction struct {
	Raw       RawTransaction
	PublicKey ed25519.PublicKey
	Signature ed25519.Signature
}

// ParseSignedTransaction decodes a transaction produced by [SignedTransaction.Bytes].
func ParseSignedTransaction(b []byte) (*SignedTransaction, error) {
	var tx SignedTransaction
	if err := borsh.Deserialize(&tx, b); err != nil {
		return nil, err
	}
	return &tx, nil
}

// Bytes returns the encoded transaction.
func (t *SignedTransaction) Bytes() ([]byte, error) {
	return borsh.Serialize(*t)
}

// ID is the hash of the encoded transaction.
func (t *SignedTransaction) ID() (ids.ID, error) {
	b, err := t.Bytes()
	if err != nil {
		return ids.Empty, err
	}
	return hashing.ComputeHash256Array(b), nil
}

// Verify checks the signature against the transaction's own public key.
// Whether that key may act for the sender is decided by the prologue.
func (t *SignedTransaction) Verify() error {
	msg, err := t.Raw.SigningMessage()
	if err != nil {
		return err
	}
	if !ed25519.Verify(msg, t.PublicKey, t.Signature) {
		return ErrInvalidSignature
	}
	return nil
}
