// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package feed - the items observed on the remote service and the
// interfaces of the client that supplies them
package feed

import (
	"context"
)

//go:generate mockgen -source=feed.go -destination=mocks/feed.go -package=mocks

// Item - a single comment from the stream
type Item struct {
	ID        string `json:"id"`
	Body      string `json:"body"`
	Author    string `json:"author"`
	Subreddit string `json:"subreddit"`
	Permalink string `json:"permalink,omitempty"`
}

// Stream - ordered, potentially infinite source of items
//
// Next blocks until an item is available or ctx is done
type Stream interface {
	Next(ctx context.Context) (*Item, error)
}

// Replier - submits a reply to an item
type Replier interface {
	Reply(ctx context.Context, item *Item, text string) error
}
