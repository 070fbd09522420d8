// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import "fmt"

type InstructionKind uint8

const (
	Register InstructionKind = iota
	Mint
	Transfer
)

func (k InstructionKind) String() string {
	switch k {
	case Register:
		return "register"
	case Mint:
		return "mint"
	case Transfer:
		return "transfer"
	default:
		return fmt.Sprintf("instruction(%d)", uint8(k))
	}
}

type ObjectKind uint8

const (
	Domain ObjectKind = iota
	Account
	AssetDefinition
	Asset
)

func (o ObjectKind) String() string {
	switch o {
	case Domain:
		return "domain"
	case Account:
		return "account"
	case AssetDefinition:
		return "asset_definition"
	case Asset:
		return "asset"
	default:
		return fmt.Sprintf("object(%d)", uint8(o))
	}
}

type ValueType uint8

const (
	NoValue ValueType = iota
	Quantity
	BigQuantity
	Fixed
	Store
)

type Metadata struct {
	Key   string
	Value string
}

// Value is the payload attached to an asset or asset definition. Only the
// field selected by Type is meaningful.
type Value struct {
	Type     ValueType
	Quantity uint32
	// Big is a base 10 encoded unsigned 128 bit integer.
	Big string
	// Fixed is a base 10 encoded decimal.
	Fixed string
	Store []Metadata
}

// Instruction is a single state transition carried by a transaction.
//
// Identifiers follow the ledger naming scheme:
//
//	domain:            wonderland
//	account:           alice@wonderland
//	asset definition:  rose#wonderland
//	asset:             rose#wonderland#alice@wonderland
type Instruction struct {
	Kind   InstructionKind
	Object ObjectKind
	ID     string
	// Destination is the receiving account of a [Transfer].
	Destination string
	Value       Value
	// Signatories are the public keys of a registered account.
	Signatories [][]byte
}

func (i Instruction) String() string {
	return fmt.Sprintf("%s %s %s", i.Kind, i.Object, i.ID)
}

func RegisterDomain(id string) Instruction {
	return Instruction{Kind: Register, Object: Domain, ID: id}
}

func RegisterAccount(id string, signatories ...[]byte) Instruction {
	return Instruction{Kind: Register, Object: Account, ID: id, Signatories: signatories}
}

func RegisterAssetDefinition(id string, valueType ValueType) Instruction {
	return Instruction{Kind: Register, Object: AssetDefinition, ID: id, Value: Value{Type: valueType}}
}

func RegisterAsset(id string, value Value) Instruction {
	return Instruction{Kind: Register, Object: Asset, ID: id, Value: value}
}

func MintAsset(id string, quantity uint32) Instruction {
	return Instruction{Kind: Mint, Object: Asset, ID: id, Value: Value{Type: Quantity, Quantity: quantity}}
}

func TransferAsset(id string, destination string, quantity uint32) Instruction {
	return Instruction{
		Kind:        Transfer,
		Object:      Asset,
		ID:          id,
		Destination: destination,
		Value:       Value{Type: Quantity, Quantity: quantity},
	}
}
