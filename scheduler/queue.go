// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scheduler

import "github.com/ava-labs/hyperload/operation"

// Entry is an operation kind with the number of repetitions left.
type Entry struct {
	Kind      operation.Kind
	Remaining int
}

// Queue is the ordered work list of a scheduler. Entries keep the order in
// which their kind first appeared and are only dropped by Compact.
type Queue struct {
	entries []*Entry
}

// NewQueue returns a queue repeating every distinct kind count times.
func NewQueue(kinds []operation.Kind, count int) *Queue {
	q := &Queue{}
	if count <= 0 {
		return q
	}
	seen := make(map[operation.Kind]struct{}, len(kinds))
	for _, k := range kinds {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		q.entries = append(q.entries, &Entry{Kind: k, Remaining: count})
	}
	return q
}

// Entries returns the live entries in processing order. Callers may update
// Remaining in place.
func (q *Queue) Entries() []*Entry {
	return q.entries
}

// Compact drops exhausted entries.
func (q *Queue) Compact() {
	live := q.entries[:0]
	for _, e := range q.entries {
		if e.Remaining > 0 {
			live = append(live, e)
		}
	}
	clear(q.entries[len(live):])
	q.entries = live
}

func (q *Queue) Empty() bool {
	return len(q.entries) == 0
}

// Remaining is the number of units left across all entries.
func (q *Queue) Remaining() int {
	var n int
	for _, e := range q.entries {
		n += e.Remaining
	}
	return n
}
