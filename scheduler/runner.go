// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package scheduler

import (
	"fmt"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/phrasewatch/phrasewatchd/fault"
)

// background loop for a single rate group
type runner struct {
	log   *logger.L
	group RateGroup
	tasks []Task
	after func(time.Duration) <-chan time.Time
}

func (r *runner) Run(args interface{}, shutdown <-chan struct{}) {

	log := r.log
	name := r.group.Name()

	log.Infof("%s: starting…", name)

loop:
	for {
		for i, task := range r.tasks {

			// shutdown is only seen between tasks
			select {
			case <-shutdown:
				break loop
			default:
			}

			if err := runTask(task); nil != err {
				log.Errorf("%s: task: %s  error: %s", name, r.group.Names[i], err)
			}
		}

		select {
		case <-shutdown:
			break loop
		case <-r.after(r.group.Interval):
		}
	}

	log.Infof("%s: stopped", name)
}

// run a task, converting a panic into an error
func runTask(task Task) (err error) {
	defer func() {
		if r := recover(); nil != r {
			err = fmt.Errorf("%w: %v", fault.TaskPanicked, r)
		}
	}()
	return task()
}
