// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package operation

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownKind = errors.New("unknown operation")

// Kind is a domain action the load generator can repeat.
type Kind uint8

const (
	RegisterAccount Kind = iota
	RegisterDomain
	RegisterAssetQuantity
	RegisterAssetBigQuantity
	RegisterAssetFixed
	RegisterAssetStore
	TransferAsset
	MintAsset
)

var names = map[Kind]string{
	RegisterAccount:          "RegisterAccount",
	RegisterDomain:           "RegisterDomain",
	RegisterAssetQuantity:    "RegisterAssetQuantity",
	RegisterAssetBigQuantity: "RegisterAssetBigQuantity",
	RegisterAssetFixed:       "RegisterAssetFixed",
	RegisterAssetStore:       "RegisterAssetStore",
	TransferAsset:            "TransferAsset",
	MintAsset:                "MintAsset",
}

// Kinds returns every operation kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		RegisterAccount,
		RegisterDomain,
		RegisterAssetQuantity,
		RegisterAssetBigQuantity,
		RegisterAssetFixed,
		RegisterAssetStore,
		TransferAsset,
		MintAsset,
	}
}

func (k Kind) String() string {
	if n, ok := names[k]; ok {
		return n
	}
	return fmt.Sprintf("Operation(%d)", uint8(k))
}

// ParseKind matches s against the kind names, ignoring case.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if strings.EqualFold(names[k], s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// ParseKinds parses every entry of ss.
func ParseKinds(ss []string) ([]Kind, error) {
	kinds := make([]Kind, 0, len(ss))
	for _, s := range ss {
		k, err := ParseKind(s)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// KindNames lists the accepted names, for help output.
func KindNames() []string {
	ns := make([]string, 0, len(names))
	for _, k := range Kinds() {
		ns = append(ns, names[k])
	}
	return ns
}
