// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package controller

import (
	"fmt"

	"github.com/phrasewatch/phrasewatchd/templates"
)

// write every dirty resource
func (c *Controller) ioTask() error {
	return c.gateway.Flush()
}

// report the uptime then advance it by the uptime interval
func (c *Controller) uptimeTask() error {
	c.log.Info(c.messages.Format(templates.Uptime, map[string]interface{}{
		"uptime": c.uptime.Uint64(),
	}))
	c.log.Debugf("observed: %d  matched: %d  pending: %d  processed: %d",
		c.dispatcher.Observed(), c.dispatcher.Matched(), c.queue.Len(), c.ledger.Len())
	c.uptime.Add(c.uptimeStep)
	return nil
}

// send replies to the queued items
//
// a failed reply is logged and dropped, it is not queued again; once
// shutdown has begun the queue is left alone
func (c *Controller) replyTask() error {
	if nil != c.ctx.Err() {
		return nil
	}

	items := c.queue.Drain(c.replyBatch)
	if 0 == len(items) {
		return nil
	}

	r := c.rules.Load()
	failed := 0
	for i, item := range items {
		if nil != c.ctx.Err() {
			c.log.Infof("shutdown: %d replies not sent", len(items)-i)
			break
		}
		text, err := r.FormatReply(item)
		if nil != err {
			c.log.Errorf("format reply to: %s  error: %s", item.ID, err)
			failed += 1
			continue
		}
		if err := c.replier.Reply(c.ctx, item, text); nil != err {
			c.log.Errorf("reply to: %s  error: %s", item.ID, err)
			failed += 1
			continue
		}
		c.log.Info(c.messages.Format(templates.Replied, map[string]interface{}{
			"comment": item,
		}))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d replies failed", failed, len(items))
	}
	return nil
}
