// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"fmt"
	"strings"

	"github.com/ava-labs/avalanchego/ids"
)

// Method names of the ledger service. The server codec capitalizes them.
const (
	pingMethod     = "ping"
	networkMethod  = "network"
	submitTxMethod = "submitTx"
)

// JSONRPCClient calls the ledger service mounted at [JSONRPCEndpoint].
type JSONRPCClient struct {
	requester *EndpointRequester
}

func NewJSONRPCClient(uri string) *JSONRPCClient {
	return &JSONRPCClient{
		requester: NewEndpointRequester(strings.TrimSuffix(uri, "/")+JSONRPCEndpoint, Name),
	}
}

func (cli *JSONRPCClient) Ping(ctx context.Context) (bool, error) {
	resp := new(PingReply)
	err := cli.requester.SendRequest(ctx, pingMethod, nil, resp)
	return resp.Success, err
}

// Network returns the chain the ledger accepts transactions for.
func (cli *JSONRPCClient) Network(ctx context.Context) (string, error) {
	resp := new(NetworkReply)
	if err := cli.requester.SendRequest(ctx, networkMethod, nil, resp); err != nil {
		return "", err
	}
	return resp.ChainID, nil
}

// SubmitTx sends the signed bytes of a transaction and returns the hash
// the ledger assigned to it.
func (cli *JSONRPCClient) SubmitTx(ctx context.Context, tx []byte) (ids.ID, error) {
	resp := new(SubmitTxReply)
	if err := cli.requester.SendRequest(ctx, submitTxMethod, &SubmitTxArgs{Tx: tx}, resp); err != nil {
		return ids.Empty, fmt.Errorf("%s failed: %w", submitTxMethod, err)
	}
	return resp.TxID, nil
}
