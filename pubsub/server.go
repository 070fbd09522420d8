// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pubsub

import (
	"net/http"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Callback processes a message received on [c].
type Callback func(msg []byte, c *Connection)

type ServerConfig struct {
	// Size of the ws read buffer
	ReadBufferSize int
	// Size of the ws write buffer
	WriteBufferSize int
	// Maximum number of pending messages to send to a peer.
	MaxPendingMessages int
	// Maximum message size in bytes allowed from peer.
	MaxReadMessageSize int64
	// Time allowed to write a message to the peer.
	WriteWait time.Duration
	// Time allowed to read the next pong message from the peer.
	PongWait time.Duration
	// Send pings to peer with this period. Must be less than pongWait.
	PingPeriod time.Duration
}

func NewDefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ReadBufferSize:     readBufferSize,
		WriteBufferSize:    writeBufferSize,
		MaxPendingMessages: DefaultMaxPendingMessages,
		MaxReadMessageSize: maxReadMessageSize,
		WriteWait:          writeWait,
		PongWait:           pongWait,
		PingPeriod:         pingPeriod,
	}
}

func (c *ServerConfig) Verify() error {
	if c.PingPeriod >= c.PongWait {
		return ErrInvalidPing
	}
	return nil
}

// Server maintains the set of active clients and sends messages to the clients.
//
// Mount the server on an http router and connect with websocket.DefaultDialer.Dial().
type Server struct {
	log    logging.Logger
	config *ServerConfig
	conns connections
	// Callback function when server receives a message
	callback Callback
	// Called once when a connection goes away
	disconnect func(*Connection)

	upgrader websocket.Upgrader
}

// New returns a new Server instance. The callback function [f] is called
// by the server in response to messages if not nil. [disconnect], if not
// nil, is called once for every connection that closes.
func New(
	log logging.Logger,
	config *ServerConfig,
	f Callback,
	disconnect func(*Connection),
) *Server {
	return &Server{
		log:        log,
		config:     config,
		callback:   f,
		disconnect: disconnect,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
	}
}

// ServeHTTP adds a connection to the server, and starts go routines for
// reading and writing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// No need to set any headers so we pass nil as the last argument.
	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("failed to upgrade",
			zap.Error(err),
		)
		return
	}
	s.addConnection(newConnection(s, wsConn))
}

// Publish queues msg on every connection of [to] that is still live and
// returns how many accepted it.
func (s *Server) Publish(msg []byte, to []*Connection) int {
	sent := 0
	for _, conn := range to {
		if !s.conns.has(conn) {
			continue
		}
		if err := conn.Send(msg); err != nil {
			s.log.Verbo("dropping message to subscribed connection",
				zap.Error(err),
			)
			continue
		}
		sent++
	}
	return sent
}

// Broadcast sends msg to every connection.
func (s *Server) Broadcast(msg []byte) int {
	return s.Publish(msg, s.conns.list())
}

func (s *Server) Len() int {
	return s.conns.len()
}

// Close closes every connection.
func (s *Server) Close() {
	for _, conn := range s.conns.list() {
		conn.Close()
	}
}

// addConnection adds [conn] to the servers connection set and starts go
// routines for reading and writing messages for the connection.
func (s *Server) addConnection(conn *Connection) {
	s.conns.add(conn)

	go conn.writePump()
	go conn.readPump()
}

// removeConnection removes [conn] from the servers connection set.
func (s *Server) removeConnection(conn *Connection) {
	if s.conns.remove(conn) {
		s.log.Debug("connection closed", zap.Int("remaining", s.conns.len()))
	}
}
