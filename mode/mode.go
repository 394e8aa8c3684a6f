// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mode - the process lifecycle: Idle → Running → Stopping → Stopped
//
// there is no way back to Running; a restart is a new process
package mode

import (
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/phrasewatch/phrasewatchd/fault"
)

// Mode - type to hold the mode
type Mode int

// all possible modes
const (
	Idle Mode = iota
	Running
	Stopping
	Stopped
	maximum
)

// Lifecycle - current mode with checked transitions
type Lifecycle struct {
	sync.RWMutex
	log  *logger.L
	mode Mode
}

// New - a lifecycle in the Idle mode
func New(log *logger.L) *Lifecycle {
	return &Lifecycle{
		log:  log,
		mode: Idle,
	}
}

// Set - change mode; only the next mode in sequence is accepted
func (l *Lifecycle) Set(mode Mode) error {
	l.Lock()
	defer l.Unlock()

	if mode < Idle || mode >= maximum || mode != l.mode+1 {
		if nil != l.log {
			l.log.Errorf("ignore invalid set: %s → %s", l.mode, mode)
		}
		return fault.InvalidTransition
	}
	l.mode = mode

	if nil != l.log {
		l.log.Infof("set: %s", mode)
	}
	return nil
}

// Is - detect mode
func (l *Lifecycle) Is(mode Mode) bool {
	l.RLock()
	defer l.RUnlock()
	return mode == l.mode
}

// IsNot - detect mode
func (l *Lifecycle) IsNot(mode Mode) bool {
	l.RLock()
	defer l.RUnlock()
	return mode != l.mode
}

// Get - current mode
func (l *Lifecycle) Get() Mode {
	l.RLock()
	defer l.RUnlock()
	return l.mode
}

// current mode represented as a string
func (m Mode) String() string {
	switch m {
	case Idle:
		return "Idle"
	case Running:
		return "Running"
	case Stopping:
		return "Stopping"
	case Stopped:
		return "Stopped"
	default:
		return "*Unknown*"
	}
}
