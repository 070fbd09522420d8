// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/near/borsh-go"

	"github.com/ava-labs/hyperload/crypto/ed25519"
)

// Payload is the signed portion of a transaction. Its hash identifies the
// transaction on the ledger.
type Payload struct {
	ChainID string
	// Creator is the account the transaction is submitted on behalf of.
	Creator string
	// Timestamp is the creation time in unix milliseconds.
	Timestamp    int64
	Nonce        uint64
	Instructions []Instruction
}

type signedTx struct {
	Payload   Payload
	Signer    [ed25519.PublicKeyLen]byte
	Signature [ed25519.SignatureLen]byte
}

type Transaction struct {
	Payload   Payload
	Signer    ed25519.PublicKey
	Signature ed25519.Signature

	digest []byte
	bytes  []byte
	id     ids.ID
}

func NewTransaction(chainID string, creator string, timestamp int64, nonce uint64, instructions []Instruction) *Transaction {
	return &Transaction{
		Payload: Payload{
			ChainID:      chainID,
			Creator:      creator,
			Timestamp:    timestamp,
			Nonce:        nonce,
			Instructions: instructions,
		},
	}
}

// Digest returns the bytes covered by the signature.
func (t *Transaction) Digest() ([]byte, error) {
	if len(t.digest) > 0 {
		return t.digest, nil
	}
	b, err := borsh.Serialize(t.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidObject, err)
	}
	t.digest = b
	return b, nil
}

// Sign signs t with [pk] and initializes its wire bytes and ID.
func (t *Transaction) Sign(pk ed25519.PrivateKey) (*Transaction, error) {
	msg, err := t.Digest()
	if err != nil {
		return nil, err
	}
	t.Signer = pk.PublicKey()
	t.Signature = ed25519.Sign(msg, pk)
	if err := t.init(msg); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Transaction) init(digest []byte) error {
	b, err := borsh.Serialize(signedTx{
		Payload:   t.Payload,
		Signer:    t.Signer,
		Signature: t.Signature,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidObject, err)
	}
	t.bytes = b
	t.id = ids.ID(hashing.ComputeHash256Array(digest))
	return nil
}

// Verify checks the signature of t.
func (t *Transaction) Verify() error {
	if t.Signature == ed25519.EmptySignature {
		return ErrUnsigned
	}
	msg, err := t.Digest()
	if err != nil {
		return err
	}
	if !ed25519.Verify(msg, t.Signer, t.Signature) {
		return ErrInvalidSignature
	}
	return nil
}

// ID is the content derived hash of the transaction payload. It is known
// before the transaction is submitted.
func (t *Transaction) ID() ids.ID { return t.id }

func (t *Transaction) Bytes() []byte { return t.bytes }

func (t *Transaction) Size() int { return len(t.bytes) }

// Empty reports whether t carries no instructions.
func (t *Transaction) Empty() bool { return len(t.Payload.Instructions) == 0 }

func UnmarshalTx(b []byte) (*Transaction, error) {
	var stx signedTx
	if err := borsh.Deserialize(&stx, b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidObject, err)
	}
	tx := &Transaction{
		Payload:   stx.Payload,
		Signer:    stx.Signer,
		Signature: stx.Signature,
	}
	digest, err := tx.Digest()
	if err != nil {
		return nil, err
	}
	tx.bytes = b
	tx.id = ids.ID(hashing.ComputeHash256Array(digest))
	return tx, nil
}
