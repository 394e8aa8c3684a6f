// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pending_test

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phrasewatch/phrasewatchd/feed"
	"github.com/phrasewatch/phrasewatchd/pending"
)

func TestAppendDrain(t *testing.T) {
	q := pending.New()

	for i := 1; i <= 5; i += 1 {
		n := q.Append(&feed.Item{ID: strconv.Itoa(i)})
		assert.Equal(t, i, n, "length after append")
	}

	first := q.Drain(2)
	assert.Equal(t, 2, len(first), "first drain")
	assert.Equal(t, "1", first[0].ID, "order")
	assert.Equal(t, "2", first[1].ID, "order")
	assert.Equal(t, 3, q.Len(), "remaining")

	rest := q.Drain(0)
	assert.Equal(t, 3, len(rest), "drain all")
	assert.Equal(t, "3", rest[0].ID, "order")
	assert.Equal(t, 0, q.Len(), "empty")

	assert.Equal(t, 0, len(q.Drain(10)), "drain empty")
}

func TestConcurrentAppend(t *testing.T) {
	q := pending.New()

	var wg sync.WaitGroup
	for w := 0; w < 4; w += 1 {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 250; i += 1 {
				q.Append(&feed.Item{ID: strconv.Itoa(w*1000 + i)})
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 1000, q.Len(), "lost appends")
}
