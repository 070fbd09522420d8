// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pubsub

import (
	"sync"

	"github.com/ava-labs/avalanchego/utils/set"
)

// connections is the set of live connections of a [Server].
type connections struct {
	lock  sync.RWMutex
	conns set.Set[*Connection]
}

func (c *connections) list() []*Connection {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.conns.List()
}

func (c *connections) has(conn *Connection) bool {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.conns.Contains(conn)
}

func (c *connections) add(conn *Connection) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.conns.Add(conn)
}

// remove reports whether [conn] was live.
func (c *connections) remove(conn *Connection) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.conns.Contains(conn) {
		return false
	}
	c.conns.Remove(conn)
	return true
}

func (c *connections) len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.conns.Len()
}
