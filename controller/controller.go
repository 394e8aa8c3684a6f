// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package controller - wire the ledger, persistence, scheduler and
// dispatcher together and drive them through the process lifecycle
package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/phrasewatch/phrasewatchd/counter"
	"github.com/phrasewatch/phrasewatchd/dispatcher"
	"github.com/phrasewatch/phrasewatchd/fault"
	"github.com/phrasewatch/phrasewatchd/feed"
	"github.com/phrasewatch/phrasewatchd/limitedset"
	"github.com/phrasewatch/phrasewatchd/mode"
	"github.com/phrasewatch/phrasewatchd/pending"
	"github.com/phrasewatch/phrasewatchd/persistence"
	"github.com/phrasewatch/phrasewatchd/rules"
	"github.com/phrasewatch/phrasewatchd/scheduler"
	"github.com/phrasewatch/phrasewatchd/templates"
)

// names in the task table and the persistence registry
const (
	TaskIO     = "io"
	TaskUptime = "uptime"
	TaskReply  = "reply"

	ProcessedResource    = "processed"
	DefaultProcessedFile = "processed.json"

	streamThreadName = "Comments"
)

var (
	// TaskNames - every task the scheduler can run
	TaskNames = []string{TaskIO, TaskUptime, TaskReply}

	// RequiredTasks - tasks that every configuration must schedule
	RequiredTasks = []string{TaskIO, TaskUptime}
)

// Options - everything the controller needs from the caller
type Options struct {
	Stream   feed.Stream
	Replier  feed.Replier // only needed when the reply task is scheduled
	Rules    *rules.Holder
	Messages *templates.Messages
	Rates    map[string]time.Duration

	DataDirectory string
	ProcessedFile string
	Eviction      limitedset.Policy

	// maximum replies sent in one reply cycle, zero means all queued
	ReplyBatch int
}

// Controller - owns the components for the life of the process
type Controller struct {
	log       *logger.L
	messages  *templates.Messages
	lifecycle *mode.Lifecycle

	ledger     *limitedset.LimitedSet
	gateway    *persistence.Gateway
	queue      *pending.Queue
	scheduler  *scheduler.Scheduler
	dispatcher *dispatcher.Dispatcher

	rules      *rules.Holder
	replier    feed.Replier
	replyBatch int

	uptime     counter.Counter
	uptimeStep uint64

	ctx context.Context
}

// New - create all components and load the persisted ledger
//
// a missing state file starts an empty ledger, a malformed one is an
// error so that it is never overwritten
func New(options Options, log *logger.L) (*Controller, error) {
	if nil == log {
		return nil, fault.InvalidLoggerChannel
	}
	if nil == options.Rules || nil == options.Stream {
		return nil, fault.MissingParameters
	}
	if _, ok := options.Rates[TaskReply]; ok && nil == options.Replier {
		return nil, fmt.Errorf("%w: reply task requires a replier", fault.MissingParameters)
	}

	messages := options.Messages
	if nil == messages {
		messages = templates.Default()
	}

	c := &Controller{
		log:        log,
		messages:   messages,
		lifecycle:  mode.New(logger.New("mode")),
		queue:      pending.New(),
		rules:      options.Rules,
		replier:    options.Replier,
		replyBatch: options.ReplyBatch,
		uptimeStep: uint64(options.Rates[TaskUptime] / time.Second),
		ctx:        context.Background(),
	}

	c.ledger = limitedset.New(limitedset.DefaultLimit, limitedset.DefaultKeep, options.Eviction)

	gateway, err := persistence.New(options.DataDirectory, logger.New("persistence"))
	if nil != err {
		return nil, err
	}
	c.gateway = gateway

	processedFile := options.ProcessedFile
	if "" == processedFile {
		processedFile = DefaultProcessedFile
	}
	if err := gateway.Register(ProcessedResource, processedFile, c.ledger); nil != err {
		return nil, err
	}

	err = gateway.Load(ProcessedResource)
	switch {
	case nil == err:
		log.Infof("loaded: %d processed identifiers", c.ledger.Len())
	case fault.IsErrNotFound(err):
		log.Infof("no processed state: %s", err)
	default:
		return nil, err
	}

	// register after loading so restoring does not mark the ledger dirty
	c.ledger.OnChange(func() {
		gateway.MarkDirty(ProcessedResource)
	})

	tasks := scheduler.Tasks{
		TaskIO:     c.ioTask,
		TaskUptime: c.uptimeTask,
		TaskReply:  c.replyTask,
	}
	c.scheduler, err = scheduler.New(options.Rates, tasks, RequiredTasks, logger.New("scheduler"))
	if nil != err {
		return nil, err
	}

	c.dispatcher, err = dispatcher.New(dispatcher.Config{
		Stream:   options.Stream,
		Ledger:   c.ledger,
		Rules:    options.Rules,
		Queue:    c.queue,
		Messages: messages,
		Log:      logger.New("dispatcher"),
	})
	if nil != err {
		return nil, err
	}

	return c, nil
}

// Run - start the scheduler and consume the stream until ctx is done,
// then shut down and write any unsaved state
func (c *Controller) Run(ctx context.Context) error {
	if err := c.lifecycle.Set(mode.Running); nil != err {
		return err
	}
	c.ctx = ctx

	c.log.Info(c.messages.Format(templates.ThreadInit, map[string]interface{}{
		"num":         1,
		"thread_name": streamThreadName,
	}))
	for i, g := range c.scheduler.Groups() {
		c.log.Info(c.messages.Format(templates.ThreadInit, map[string]interface{}{
			"num":         i + 2,
			"thread_name": g.Name(),
		}))
	}

	if err := c.scheduler.Start(); nil != err {
		return err
	}

	err := c.dispatcher.Run(ctx)
	if nil != err {
		c.log.Errorf("stream stopped: %s", err)
	}

	if shutdownErr := c.shutdown(); nil == err {
		err = shutdownErr
	}
	return err
}

func (c *Controller) shutdown() error {
	if err := c.lifecycle.Set(mode.Stopping); nil != err {
		return err
	}

	c.scheduler.Stop()

	var err error
	if c.gateway.AnyDirty() {
		c.log.Info(c.messages.Format(templates.Saving, nil))
		err = c.gateway.Flush()
		if nil == err {
			c.log.Info(c.messages.Format(templates.Saved, nil))
		} else {
			c.log.Criticalf("final save failed: %s", err)
		}
	}

	if e := c.lifecycle.Set(mode.Stopped); nil != e && nil == err {
		err = e
	}
	c.log.Info(c.messages.Format(templates.Shutdown, nil))
	c.log.Flush()
	return err
}

// Mode - current lifecycle mode
func (c *Controller) Mode() mode.Mode {
	return c.lifecycle.Get()
}

// Groups - the scheduler's rate groups
func (c *Controller) Groups() []scheduler.RateGroup {
	return c.scheduler.Groups()
}

// Uptime - seconds counted by the uptime task
func (c *Controller) Uptime() uint64 {
	return c.uptime.Uint64()
}

// Ledger - the processed identifier set
func (c *Controller) Ledger() *limitedset.LimitedSet {
	return c.ledger
}

// Pending - number of matched items waiting for a reply
func (c *Controller) Pending() int {
	return c.queue.Len()
}
