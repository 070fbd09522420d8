// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/hyperload/chain"
	"github.com/ava-labs/hyperload/crypto/ed25519"
	"github.com/ava-labs/hyperload/pubsub"
)

const testChainID = "rpctest"

type testLedger struct {
	ws *WebSocketServer

	lock      sync.Mutex
	submitted []ids.ID
}

func (*testLedger) Logger() logging.Logger { return logging.NoLog{} }

func (*testLedger) Tracer() trace.Tracer { return trace.Noop }

func (*testLedger) ChainID() string { return testChainID }

func (l *testLedger) Submit(_ context.Context, tx *chain.Transaction) error {
	l.lock.Lock()
	l.submitted = append(l.submitted, tx.ID())
	l.lock.Unlock()

	if err := l.ws.Publish(chain.NewPipelineEvent(tx.ID(), chain.Validating, "")); err != nil {
		return err
	}
	return l.ws.Publish(chain.NewPipelineEvent(tx.ID(), chain.Committed, ""))
}

func (l *testLedger) Submitted() []ids.ID {
	l.lock.Lock()
	defer l.lock.Unlock()

	return append([]ids.ID(nil), l.submitted...)
}

func newTestServer(t *testing.T) (*Client, *testLedger, *pubsub.Server) {
	require := require.New(t)

	ws, pubsubServer := NewWebSocketServer(logging.NoLog{}, trace.Noop, 1_024)
	ledger := &testLedger{ws: ws}
	jsonHandler, err := NewJSONRPCHandler(Name, NewJSONRPCServer(ledger))
	require.NoError(err)

	mux := http.NewServeMux()
	mux.Handle(JSONRPCEndpoint, jsonHandler)
	mux.Handle(WebSocketEndpoint, pubsubServer)
	httpServer := httptest.NewServer(mux)
	t.Cleanup(func() {
		pubsubServer.Close()
		httpServer.Close()
	})

	key, err := ed25519.GeneratePrivateKey()
	require.NoError(err)
	client, err := NewClient(ClientConfig{
		URI:              httpServer.URL,
		ChainID:          testChainID,
		Creator:          "alice@wonderland",
		Key:              key,
		RequestTimeout:   5 * time.Second,
		HandshakeTimeout: 5 * time.Second,
	})
	require.NoError(err)
	return client, ledger, pubsubServer
}

func nextEvent(t *testing.T, stream chain.EventStream) *chain.Event {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	e, err := stream.Next(ctx)
	require.NoError(t, err)
	return e
}

func TestClientPing(t *testing.T) {
	require := require.New(t)
	client, _, _ := newTestServer(t)

	require.NoError(client.Ping(context.Background()))

	chainID, err := client.rpc.Network(context.Background())
	require.NoError(err)
	require.Equal(testChainID, chainID)

	ok, err := client.rpc.Ping(context.Background())
	require.NoError(err)
	require.True(ok)
}

func TestClientSubmitAndSubscribe(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	client, ledger, _ := newTestServer(t)

	stream, err := client.Subscribe(ctx, chain.EventFilter{})
	require.NoError(err)
	defer stream.Close()

	tx, err := client.BuildTransaction([]chain.Instruction{chain.RegisterDomain("wonderland")})
	require.NoError(err)
	txID, err := client.Submit(ctx, tx)
	require.NoError(err)
	require.Equal(tx.ID(), txID)
	require.Equal([]ids.ID{txID}, ledger.Submitted())

	e := nextEvent(t, stream)
	require.Equal(chain.PipelineEventType, e.Type)
	require.Equal(txID, e.Pipeline.Hash)
	require.Equal(chain.Validating, e.Pipeline.Status)

	e = nextEvent(t, stream)
	require.Equal(txID, e.Pipeline.Hash)
	require.Equal(chain.Committed, e.Pipeline.Status)
}

func TestClientSubscribeFilter(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	client, _, _ := newTestServer(t)

	other, err := client.BuildTransaction(nil)
	require.NoError(err)
	wanted, err := client.BuildTransaction(nil)
	require.NoError(err)

	stream, err := client.Subscribe(ctx, chain.HashFilter(wanted.ID()))
	require.NoError(err)
	defer stream.Close()

	_, err = client.Submit(ctx, other)
	require.NoError(err)
	_, err = client.Submit(ctx, wanted)
	require.NoError(err)

	for _, status := range []chain.PipelineStatus{chain.Validating, chain.Committed} {
		e := nextEvent(t, stream)
		require.Equal(wanted.ID(), e.Pipeline.Hash)
		require.Equal(status, e.Pipeline.Status)
	}
}

func TestClientSubmitWrongChain(t *testing.T) {
	require := require.New(t)
	client, ledger, _ := newTestServer(t)

	key, err := ed25519.GeneratePrivateKey()
	require.NoError(err)
	tx, err := chain.NewTransaction("other", "alice@wonderland", time.Now().UnixMilli(), 1, nil).Sign(key)
	require.NoError(err)

	_, err = client.Submit(context.Background(), tx)
	require.Error(err)
	require.Empty(ledger.Submitted())
}

func TestClientStreamClosedByServer(t *testing.T) {
	require := require.New(t)
	client, _, pubsubServer := newTestServer(t)

	stream, err := client.Subscribe(context.Background(), chain.EventFilter{})
	require.NoError(err)
	defer stream.Close()

	pubsubServer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = stream.Next(ctx)
	require.ErrorIs(err, chain.ErrStreamClosed)
}

func TestWebSocketClientServerError(t *testing.T) {
	require := require.New(t)

	upgrader := websocket.Upgrader{}
	httpServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		ack, err := PackSubscribedMessage()
		if err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, ack)
		msg, err := PackErrorMessage(ErrUnexpectedMessage)
		if err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, msg)

		// Wait for the client to leave
		_, _, _ = conn.ReadMessage()
	}))
	defer httpServer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	uri := "ws" + strings.TrimPrefix(httpServer.URL, "http") + WebSocketEndpoint
	stream, err := NewWebSocketClient(ctx, uri, chain.EventFilter{}, 5*time.Second)
	require.NoError(err)
	defer stream.Close()

	_, err = stream.Next(ctx)
	require.ErrorIs(err, chain.ErrStreamClosed)
	require.ErrorIs(err, ErrServer)
	require.ErrorContains(err, ErrUnexpectedMessage.Error())
}

func TestClientSubscribeUnreachable(t *testing.T) {
	require := require.New(t)

	client, err := NewClient(ClientConfig{
		URI:              "http://127.0.0.1:1",
		ChainID:          testChainID,
		Creator:          "alice@wonderland",
		HandshakeTimeout: time.Second,
	})
	require.NoError(err)
	_, err = client.Subscribe(context.Background(), chain.EventFilter{})
	require.Error(err)
}

func TestNewClientInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config ClientConfig
		err    error
	}{
		{
			name:   "unsupported scheme",
			config: ClientConfig{URI: "ftp://127.0.0.1", ChainID: testChainID, Creator: "alice@wonderland"},
			err:    ErrInvalidURI,
		},
		{
			name:   "missing chain id",
			config: ClientConfig{URI: "http://127.0.0.1", Creator: "alice@wonderland"},
			err:    ErrMissingChainID,
		},
		{
			name:   "missing creator",
			config: ClientConfig{URI: "http://127.0.0.1", ChainID: testChainID},
			err:    ErrMissingCreator,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.config)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestWebSocketClientURI(t *testing.T) {
	require := require.New(t)

	client, err := NewClient(ClientConfig{URI: "https://ledger.example/", ChainID: testChainID, Creator: "alice@wonderland"})
	require.NoError(err)
	require.Equal("wss://ledger.example"+WebSocketEndpoint, client.wsURI)
}
