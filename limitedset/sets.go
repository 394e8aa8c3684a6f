// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package limitedset

import (
	"encoding/json"
	"sync"

	"github.com/phrasewatch/phrasewatchd/fault"
)

// Policy - how the oldest entries are discarded once the set overflows
type Policy int

// eviction policies
const (
	// Recent keeps exactly the most recent 'keep' items
	Recent Policy = iota

	// Historical drops the first (limit - keep) items and also the
	// final item of the sequence, i.e. the identifier that caused the
	// overflow is not retained
	Historical
)

// default bounds for processed comment identifiers
const (
	DefaultLimit = 10000
	DefaultKeep  = 5000
)

// LimitedSet - ordered set of identifiers with bulk eviction
type LimitedSet struct {
	sync.Mutex
	limit    int
	keep     int
	policy   Policy
	items    []string
	hash     map[string]struct{}
	onChange func()
}

// persisted form, shared with any external inspection tooling
type stateFile struct {
	Comments []string `json:"comments"`
}

// New - create a new limited set that holds up to 'limit' items and
// retains about 'keep' of them when the limit is exceeded
func New(limit int, keep int, policy Policy) *LimitedSet {
	if keep > limit {
		keep = limit
	}
	return &LimitedSet{
		limit:  limit,
		keep:   keep,
		policy: policy,
		items:  make([]string, 0, limit+1),
		hash:   make(map[string]struct{}),
	}
}

// ParsePolicy - convert a configuration string into a policy
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "recent":
		return Recent, nil
	case "historical":
		return Historical, nil
	default:
		return Recent, fault.InvalidConfigurationFormat
	}
}

// OnChange - register a function to call after every Add
func (ls *LimitedSet) OnChange(f func()) {
	ls.Lock()
	ls.onChange = f
	ls.Unlock()
}

// Add - append an item to the set
func (ls *LimitedSet) Add(item string) {
	ls.Lock()
	ls.items = append(ls.items, item)
	ls.hash[item] = struct{}{}
	if len(ls.items) > ls.limit {
		ls.evict()
	}
	f := ls.onChange
	ls.Unlock()

	if nil != f {
		f()
	}
}

// Exists - check to see if item is in the set
func (ls *LimitedSet) Exists(item string) bool {
	ls.Lock()
	defer ls.Unlock()
	_, ok := ls.hash[item]
	return ok
}

// Len - number of items currently held
func (ls *LimitedSet) Len() int {
	ls.Lock()
	defer ls.Unlock()
	return len(ls.items)
}

// Items - copy of the items, oldest first
func (ls *LimitedSet) Items() []string {
	ls.Lock()
	defer ls.Unlock()
	items := make([]string, len(ls.items))
	copy(items, ls.items)
	return items
}

// Restore - replace the whole content, oldest first
func (ls *LimitedSet) Restore(items []string) {
	ls.Lock()
	defer ls.Unlock()

	ls.items = make([]string, 0, ls.limit+1)
	ls.hash = make(map[string]struct{})
	for _, item := range items {
		ls.items = append(ls.items, item)
		ls.hash[item] = struct{}{}
	}
	if len(ls.items) > ls.limit {
		ls.evict()
	}
}

// Snapshot - serialise for the state file
func (ls *LimitedSet) Snapshot() ([]byte, error) {
	return json.Marshal(stateFile{
		Comments: ls.Items(),
	})
}

// Decode - load from the state file; a document without the
// "comments" field is an empty set
func (ls *LimitedSet) Decode(data []byte) error {
	var s stateFile
	if err := json.Unmarshal(data, &s); nil != err {
		return err
	}
	ls.Restore(s.Comments)
	return nil
}

// must hold lock
func (ls *LimitedSet) evict() {
	n := len(ls.items)
	start := n - ls.keep
	end := n
	if Historical == ls.policy {
		start = ls.limit - ls.keep
		end = n - 1
	}
	if start > end {
		start = end
	}
	// a restored state file may hold far more than limit+1 items
	if end-start > ls.keep {
		start = end - ls.keep
	}

	size := ls.limit + 1
	if end-start > size {
		size = end - start
	}
	retained := make([]string, end-start, size)
	copy(retained, ls.items[start:end])

	ls.hash = make(map[string]struct{}, len(retained))
	for _, item := range retained {
		ls.hash[item] = struct{}{}
	}
	ls.items = retained
}
