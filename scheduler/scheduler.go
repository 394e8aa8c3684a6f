// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package scheduler

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/phrasewatch/phrasewatchd/background"
	"github.com/phrasewatch/phrasewatchd/fault"
)

// Task - a periodic task
type Task func() error

// Tasks - the static table of all known tasks
type Tasks map[string]Task

// RateGroup - task names sharing one interval
type RateGroup struct {
	Interval time.Duration
	Names    []string
}

// Name - thread name of the group: capitalised task names joined by "-"
func (g RateGroup) Name() string {
	s := make([]string, len(g.Names))
	for i, n := range g.Names {
		if "" != n {
			s[i] = strings.ToUpper(n[:1]) + strings.ToLower(n[1:])
		}
	}
	return strings.Join(s, "-")
}

// Group - collect the task names by identical interval
//
// names are sorted within a group and groups are ordered by interval
func Group(rates map[string]time.Duration) []RateGroup {
	byInterval := make(map[time.Duration][]string)
	for name, interval := range rates {
		byInterval[interval] = append(byInterval[interval], name)
	}

	groups := make([]RateGroup, 0, len(byInterval))
	for interval, names := range byInterval {
		sort.Strings(names)
		groups = append(groups, RateGroup{
			Interval: interval,
			Names:    names,
		})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Interval < groups[j].Interval
	})
	return groups
}

// Scheduler - one background loop per rate group
type Scheduler struct {
	sync.Mutex
	log        *logger.L
	groups     []RateGroup
	tasks      Tasks
	after      func(time.Duration) <-chan time.Time
	background *background.T
}

// New - validate the configured rates against the task table
func New(rates map[string]time.Duration, tasks Tasks, required []string, log *logger.L) (*Scheduler, error) {
	if nil == log {
		return nil, fault.InvalidLoggerChannel
	}

	known := make([]string, 0, len(tasks))
	for name := range tasks {
		known = append(known, name)
	}
	if err := Validate(rates, known, required); nil != err {
		return nil, err
	}

	return &Scheduler{
		log:    log,
		groups: Group(rates),
		tasks:  tasks,
		after:  time.After,
	}, nil
}

// Validate - every configured name must be a known task, every
// interval must be positive and all of the required names must be
// configured
func Validate(rates map[string]time.Duration, known []string, required []string) error {
	names := make(map[string]struct{}, len(known))
	for _, name := range known {
		names[name] = struct{}{}
	}

	for name, interval := range rates {
		if _, ok := names[name]; !ok {
			return fmt.Errorf("%w: %q", fault.UnknownTask, name)
		}
		if interval <= 0 {
			return fmt.Errorf("%w: %q: %s", fault.InvalidInterval, name, interval)
		}
	}
	for _, name := range required {
		if _, ok := rates[name]; !ok {
			return fmt.Errorf("%w: %q", fault.MissingTask, name)
		}
	}
	return nil
}

// Groups - the rate groups in start order
func (s *Scheduler) Groups() []RateGroup {
	return s.groups
}

// Start - launch one background loop for each group
func (s *Scheduler) Start() error {
	s.Lock()
	defer s.Unlock()

	if nil != s.background {
		return fault.AlreadyInitialised
	}

	processes := make(background.Processes, 0, len(s.groups))
	for _, g := range s.groups {
		r := &runner{
			log:   s.log,
			group: g,
			tasks: make([]Task, len(g.Names)),
			after: s.after,
		}
		for i, name := range g.Names {
			r.tasks[i] = s.tasks[name]
		}
		s.log.Infof("start group: %s  interval: %s", g.Name(), g.Interval)
		processes = append(processes, r)
	}

	s.background = background.Start(processes, nil)
	return nil
}

// Stop - signal all groups and wait for them to finish their cycle
func (s *Scheduler) Stop() {
	s.Lock()
	defer s.Unlock()

	if nil == s.background {
		return
	}
	s.log.Info("stopping…")
	s.background.Stop()
	s.log.Info("stopped")
}
