// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package pending - matched items waiting for a reply
//
// the queue lives only in memory; anything still queued at shutdown
// is dropped
package pending

import (
	"sync"

	"github.com/phrasewatch/phrasewatchd/feed"
)

// Queue - ordered items awaiting reply submission
type Queue struct {
	sync.Mutex
	items []*feed.Item
}

// New - an empty queue
func New() *Queue {
	return &Queue{
		items: make([]*feed.Item, 0, 16),
	}
}

// Append - add an item at the end
func (q *Queue) Append(item *feed.Item) int {
	q.Lock()
	defer q.Unlock()
	q.items = append(q.items, item)
	return len(q.items)
}

// Drain - remove and return up to max items from the front; max <= 0
// takes everything
func (q *Queue) Drain(max int) []*feed.Item {
	q.Lock()
	defer q.Unlock()

	n := len(q.items)
	if max > 0 && max < n {
		n = max
	}
	taken := make([]*feed.Item, n)
	copy(taken, q.items[:n])

	remaining := make([]*feed.Item, len(q.items)-n, cap(q.items))
	copy(remaining, q.items[n:])
	q.items = remaining

	return taken
}

// Len - number of queued items
func (q *Queue) Len() int {
	q.Lock()
	defer q.Unlock()
	return len(q.items)
}
