// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/ava-labs/hyperload/chain"
)

const (
	SubscribeMessage  = "subscribe"
	SubscribedMessage = "subscribed"
	ErrorMessage      = "error"
)

// Message is the envelope of every frame exchanged on [WebSocketEndpoint].
// Events use their own type name (for example [chain.PipelineEventType]).
type Message struct {
	Type   string               `json:"type"`
	Filter *chain.EventFilter   `json:"filter,omitempty"`
	Event  *chain.PipelineEvent `json:"event,omitempty"`
	Error  string               `json:"error,omitempty"`
}

func PackSubscribeMessage(filter chain.EventFilter) ([]byte, error) {
	return json.Marshal(&Message{Type: SubscribeMessage, Filter: &filter})
}

func PackSubscribedMessage() ([]byte, error) {
	return json.Marshal(&Message{Type: SubscribedMessage})
}

func PackErrorMessage(err error) ([]byte, error) {
	return json.Marshal(&Message{Type: ErrorMessage, Error: err.Error()})
}

func PackEventMessage(e *chain.Event) ([]byte, error) {
	return json.Marshal(&Message{Type: e.Type, Event: e.Pipeline})
}

func UnpackMessage(msg []byte) (*Message, error) {
	if len(msg) == 0 {
		return nil, ErrMessageMissing
	}
	var m Message
	if err := json.Unmarshal(msg, &m); err != nil {
		return nil, err
	}
	if len(m.Type) == 0 {
		return nil, fmt.Errorf("%w: missing type", ErrUnexpectedMessage)
	}
	return &m, nil
}

// IsEvent reports whether m is delivered to subscribers as a [chain.Event].
func (m *Message) IsEvent() bool {
	switch m.Type {
	case SubscribeMessage, SubscribedMessage, ErrorMessage:
		return false
	default:
		return true
	}
}

func (m *Message) ChainEvent() *chain.Event {
	e := &chain.Event{Type: m.Type}
	if m.Type == chain.PipelineEventType {
		e.Pipeline = m.Event
	}
	return e
}
