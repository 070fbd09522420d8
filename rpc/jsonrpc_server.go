// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/json"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/gorilla/rpc/v2"
	"go.uber.org/zap"

	"github.com/ava-labs/hyperload/chain"
)

// Ledger is the backend served by [JSONRPCServer].
type Ledger interface {
	Logger() logging.Logger
	Tracer() trace.Tracer
	ChainID() string
	// Submit admits tx for processing.
	Submit(ctx context.Context, tx *chain.Transaction) error
}

// NewJSONRPCHandler serves the exported methods of [service] as [name].
func NewJSONRPCHandler(
	name string,
	service interface{},
) (http.Handler, error) {
	server := rpc.NewServer()
	server.RegisterCodec(json.NewCodec(), "application/json")
	server.RegisterCodec(json.NewCodec(), "application/json;charset=UTF-8")
	return server, server.RegisterService(service, name)
}

type JSONRPCServer struct {
	ledger Ledger
}

func NewJSONRPCServer(ledger Ledger) *JSONRPCServer {
	return &JSONRPCServer{ledger}
}

type PingReply struct {
	Success bool `json:"success"`
}

func (j *JSONRPCServer) Ping(_ *http.Request, _ *struct{}, reply *PingReply) (err error) {
	j.ledger.Logger().Debug("ping")
	reply.Success = true
	return nil
}

type NetworkReply struct {
	ChainID string `json:"chainId"`
}

func (j *JSONRPCServer) Network(_ *http.Request, _ *struct{}, reply *NetworkReply) (err error) {
	reply.ChainID = j.ledger.ChainID()
	return nil
}

type SubmitTxArgs struct {
	Tx []byte `json:"tx"`
}

type SubmitTxReply struct {
	TxID ids.ID `json:"txId"`
}

func (j *JSONRPCServer) SubmitTx(
	req *http.Request,
	args *SubmitTxArgs,
	reply *SubmitTxReply,
) error {
	ctx, span := j.ledger.Tracer().Start(req.Context(), "JSONRPCServer.SubmitTx")
	defer span.End()

	tx, err := chain.UnmarshalTx(args.Tx)
	if err != nil {
		return fmt.Errorf("%w: unable to unmarshal on public service", err)
	}
	if tx.Payload.ChainID != j.ledger.ChainID() {
		return fmt.Errorf("%w: %q", ErrWrongChain, tx.Payload.ChainID)
	}
	txID := tx.ID()
	if err := j.ledger.Submit(ctx, tx); err != nil {
		j.ledger.Logger().Debug("failed to submit tx",
			zap.Stringer("txID", txID),
			zap.Error(err),
		)
		return err
	}
	reply.TxID = txID
	return nil
}
