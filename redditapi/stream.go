// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package redditapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/phrasewatch/phrasewatchd/fault"
	"github.com/phrasewatch/phrasewatchd/feed"
)

type listing struct {
	Data struct {
		Children []struct {
			Kind string    `json:"kind"`
			Data feed.Item `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// ListingPath - the comment listing covering "all" and every configured subreddit
func (c *Client) ListingPath() string {
	return "/r/all+" + strings.Join(c.config.Subreddits, "+") + "/comments"
}

// Next - return the next unseen comment, oldest first
//
// polls the listing no more often than the poll interval; request
// failures other than authentication are logged and retried after the
// retry interval
func (c *Client) Next(ctx context.Context) (*feed.Item, error) {
	c.Lock()
	defer c.Unlock()

	for {
		if len(c.buffer) > 0 {
			item := c.buffer[0]
			c.buffer[0] = nil
			c.buffer = c.buffer[1:]
			return item, nil
		}

		if !c.lastPoll.IsZero() {
			if err := sleep(ctx, c.config.PollInterval-time.Since(c.lastPoll)); nil != err {
				return nil, err
			}
		}

		items, err := c.poll(ctx)
		c.lastPoll = time.Now()
		if nil == err {
			c.buffer = items
			continue
		}

		if nil != ctx.Err() {
			return nil, ctx.Err()
		}
		if errors.Is(err, fault.AuthenticationFailed) {
			return nil, err
		}

		c.log.Warnf("listing: %s  error: %s  retry in: %s", c.ListingPath(), err, c.config.RetryInterval)
		if err := sleep(ctx, c.config.RetryInterval); nil != err {
			return nil, err
		}
	}
}

// fetch one page of the listing and return the unseen items in
// chronological order
func (c *Client) poll(ctx context.Context) ([]*feed.Item, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(listingLimit))
	query.Set("raw_json", "1")

	data, err := c.do(ctx, http.MethodGet, c.ListingPath(), query, nil)
	if nil != err {
		return nil, err
	}

	var page listing
	if err := json.Unmarshal(data, &page); nil != err {
		return nil, fmt.Errorf("%w: listing: %s", fault.RequestFailed, err)
	}

	// listing is newest first
	items := make([]*feed.Item, 0, len(page.Data.Children))
	for i := len(page.Data.Children) - 1; i >= 0; i -= 1 {
		child := page.Data.Children[i]
		if "t1" != child.Kind || "" == child.Data.ID {
			continue
		}
		if err := c.seen.Add(child.Data.ID, struct{}{}, cache.DefaultExpiration); nil != err {
			continue // already returned by an earlier poll
		}
		item := child.Data
		items = append(items, &item)
	}

	c.log.Tracef("listing: %s  new items: %d", c.ListingPath(), len(items))
	return items, nil
}

// sleep that ends early when ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
