// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"reflect"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/phrasewatch/phrasewatchd/rules"
)

const (
	ReaderLoggerPrefix = "config-reader"

	// editors often write a file in several steps
	defaultSettleDelay = time.Second
)

// ConfigReader - re-read the configuration on change and swap in the new rules
//
// only the trigger rules are replaced, other changes need a restart
type ConfigReader struct {
	fileName    string
	log         *logger.L
	current     *Configuration
	holder      *rules.Holder
	channels    WatcherChannel
	settleDelay time.Duration
}

func newConfigReader(fileName string, current *Configuration, holder *rules.Holder, channels WatcherChannel, log *logger.L) *ConfigReader {
	return &ConfigReader{
		fileName:    fileName,
		log:         log,
		current:     current,
		holder:      holder,
		channels:    channels,
		settleDelay: defaultSettleDelay,
	}
}

// Run - process watcher events until shutdown is closed
func (c *ConfigReader) Run(shutdown <-chan struct{}) {
	for {
		select {
		case <-shutdown:
			return
		case <-c.channels.change:
			c.log.Debugf("receive file change event, wait for %s", c.settleDelay)
			select {
			case <-shutdown:
				return
			case <-time.After(c.settleDelay):
			}
			if err := c.Refresh(); nil != err {
				c.log.Errorf("failed to read configuration from: %s  error: %s", c.fileName, err)
			}
		case <-c.channels.remove:
			c.log.Warn("config file removed, keeping current rules")
		}
	}
}

// Refresh - parse the file and replace the rules
//
// a file that fails to parse leaves the current rules in place
func (c *ConfigReader) Refresh() error {
	configuration, err := getConfiguration(c.fileName)
	if nil != err {
		return err
	}

	r, err := configuration.rules()
	if nil != err {
		return err
	}

	if !reflect.DeepEqual(configuration.Rates, c.current.Rates) {
		c.log.Warnf("rates changed to: %v  restart required, still using: %v", configuration.Rates, c.current.Rates)
	}

	c.holder.Store(r)
	c.current.Phrases = configuration.Phrases
	c.current.IgnoredUsers = configuration.IgnoredUsers
	c.current.IgnoredSubreddits = configuration.IgnoredSubreddits
	c.current.ReplyMessage = configuration.ReplyMessage

	c.log.Infof("rules reloaded: %d phrases  %d ignored users  %d ignored subreddits",
		r.PhraseCount(), len(configuration.IgnoredUsers), len(configuration.IgnoredSubreddits))
	return nil
}
