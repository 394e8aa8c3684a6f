// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package background - run a set of long lived loops, each in its
// own goroutine, and stop them together
package background

import (
	"sync"
)

// Process - the interface for a background process
//
// Run must return soon after shutdown is closed
type Process interface {
	Run(args interface{}, shutdown <-chan struct{})
}

// Processes - list of processes to start
type Processes []Process

// the shutdown and completed channels for a background
type control struct {
	shutdown chan struct{}
	finished chan struct{}
}

// T - handle type
type T struct {
	sync.Mutex
	c       []control
	stopped bool
}

// Start - start up a set of background processes
func Start(processes Processes, args interface{}) *T {

	register := &T{
		c: make([]control, len(processes)),
	}

	// start each background
	for i, p := range processes {
		shutdown := make(chan struct{})
		finished := make(chan struct{})
		register.c[i].shutdown = shutdown
		register.c[i].finished = finished
		go func(p Process) {
			defer close(finished)
			p.Run(args, shutdown)
		}(p)
	}
	return register
}

// Stop - stop a set of background processes and wait for all of them
// to finish; further calls do nothing
func (t *T) Stop() {
	if nil == t {
		return
	}

	t.Lock()
	defer t.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true

	// shutdown all background tasks
	for _, c := range t.c {
		close(c.shutdown)
	}

	// wait for finished
	for _, c := range t.c {
		<-c.finished
	}
}
