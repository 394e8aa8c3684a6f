// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package dispatcher - consume the comment stream
//
// each new item is checked against the ledger of processed
// identifiers, queued for a reply when a trigger rule matches and then
// recorded in the ledger
package dispatcher

import (
	"context"
	"errors"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/phrasewatch/phrasewatchd/counter"
	"github.com/phrasewatch/phrasewatchd/fault"
	"github.com/phrasewatch/phrasewatchd/feed"
	"github.com/phrasewatch/phrasewatchd/pending"
	"github.com/phrasewatch/phrasewatchd/rules"
	"github.com/phrasewatch/phrasewatchd/templates"
)

// Ledger - the processed identifier set
type Ledger interface {
	Exists(string) bool
	Add(string)
}

// Config - collaborators of the dispatcher
type Config struct {
	Stream   feed.Stream
	Ledger   Ledger
	Rules    *rules.Holder
	Queue    *pending.Queue
	Messages *templates.Messages
	Log      *logger.L

	// wait after the stream returns no item; zero selects DefaultIdlePause
	IdlePause time.Duration
}

// DefaultIdlePause - pause after an empty result from the stream
const DefaultIdlePause = time.Second

// Dispatcher - the single consumer of the stream
type Dispatcher struct {
	stream   feed.Stream
	ledger   Ledger
	rules    *rules.Holder
	queue    *pending.Queue
	messages *templates.Messages
	log      *logger.L

	idlePause time.Duration

	observed counter.Counter
	matched  counter.Counter
}

// New - check the collaborators and create a dispatcher
func New(config Config) (*Dispatcher, error) {
	if nil == config.Log {
		return nil, fault.InvalidLoggerChannel
	}
	if nil == config.Stream || nil == config.Ledger || nil == config.Rules || nil == config.Queue {
		return nil, fault.MissingParameters
	}
	messages := config.Messages
	if nil == messages {
		messages = templates.Default()
	}
	idlePause := config.IdlePause
	if idlePause <= 0 {
		idlePause = DefaultIdlePause
	}
	return &Dispatcher{
		stream:    config.Stream,
		ledger:    config.Ledger,
		rules:     config.Rules,
		queue:     config.Queue,
		messages:  messages,
		log:       config.Log,
		idlePause: idlePause,
	}, nil
}

// Run - process items until ctx is done or the stream fails
//
// cancellation is only observed between items, an item that has been
// received is always processed completely
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		item, err := d.stream.Next(ctx)
		if nil != err {
			if nil != ctx.Err() && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				return nil
			}
			d.log.Errorf("stream error: %s", err)
			return err
		}
		if nil == item {
			d.log.Tracef("empty result, pause: %s", d.idlePause)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(d.idlePause):
			}
			continue
		}
		d.Process(item)
	}
}

// Process - handle one item, returns true if it was queued for reply
func (d *Dispatcher) Process(item *feed.Item) bool {
	if d.ledger.Exists(item.ID) {
		d.log.Tracef("duplicate: %s", item.ID)
		return false
	}

	d.observed.Increment()

	queued := false
	if phrase, ok := d.rules.Load().Match(item); ok {
		n := d.queue.Append(item)
		d.matched.Increment()
		d.log.Info(d.messages.Format(templates.PhraseFound, map[string]interface{}{
			"comment": item,
		}))
		d.log.Debugf("phrase: %q  queued: %d", phrase, n)
		queued = true
	}

	d.ledger.Add(item.ID)
	return queued
}

// Observed - number of new items seen
func (d *Dispatcher) Observed() uint64 {
	return d.observed.Uint64()
}

// Matched - number of items queued for reply
func (d *Dispatcher) Matched() uint64 {
	return d.matched.Uint64()
}
