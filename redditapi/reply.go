// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package redditapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/phrasewatch/phrasewatchd/fault"
	"github.com/phrasewatch/phrasewatchd/feed"
)

const commentPrefix = "t1_"

type commentResponse struct {
	JSON struct {
		Errors [][]interface{} `json:"errors"`
	} `json:"json"`
}

// Reply - post text as a reply to a comment
func (c *Client) Reply(ctx context.Context, item *feed.Item, text string) error {
	if nil == item || "" == item.ID {
		return fault.MissingParameters
	}

	thing := item.ID
	if !strings.HasPrefix(thing, commentPrefix) {
		thing = commentPrefix + thing
	}

	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("thing_id", thing)
	form.Set("text", text)

	data, err := c.do(ctx, http.MethodPost, "/api/comment", nil, strings.NewReader(form.Encode()))
	if nil != err {
		return err
	}

	var response commentResponse
	if err := json.Unmarshal(data, &response); nil != err {
		return fmt.Errorf("%w: comment: %s", fault.RequestFailed, err)
	}
	if len(response.JSON.Errors) > 0 {
		return fmt.Errorf("%w: comment: %v", fault.RequestFailed, response.JSON.Errors)
	}

	c.log.Debugf("replied to: %s", thing)
	return nil
}
