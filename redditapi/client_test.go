// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package redditapi_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"

	"github.com/phrasewatch/phrasewatchd/fault"
	"github.com/phrasewatch/phrasewatchd/feed"
	"github.com/phrasewatch/phrasewatchd/redditapi"
)

const (
	testingDirName = "testing"
	listingPath    = "/r/all+pics+news/comments"
	accessToken    = "token-123"
)

func setupTestLogger() {
	removeFiles()
	_ = os.Mkdir(testingDirName, 0700)

	logging := logger.Configuration{
		Directory: testingDirName,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}

	// start logging
	_ = logger.Initialise(logging)
}

func teardownTestLogger() {
	logger.Finalise()
	removeFiles()
}

func removeFiles() {
	_ = os.RemoveAll(testingDirName)
}

// fake remote service
type service struct {
	sync.Mutex
	tokenStatus   int
	tokenRequests int
	pages         []string // listing responses in order, last one repeats
	statuses      []int    // status per listing request, default 200
	listings      int
	comments      []map[string]string
	commentReply  string
}

func (s *service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Lock()
	defer s.Unlock()

	switch {
	case r.URL.Path == "/api/v1/access_token":
		s.tokenRequests += 1
		id, secret, ok := r.BasicAuth()
		if !ok || "id" != id || "secret" != secret || "password" != r.FormValue("grant_type") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if 0 != s.tokenStatus {
			w.WriteHeader(s.tokenStatus)
			return
		}
		fmt.Fprintf(w, `{"access_token": %q, "token_type": "bearer", "expires_in": 3600}`, accessToken)

	case r.URL.Path == listingPath:
		if "bearer "+accessToken != r.Header.Get("Authorization") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		n := s.listings
		s.listings += 1
		if n < len(s.statuses) && http.StatusOK != s.statuses[n] {
			w.WriteHeader(s.statuses[n])
			return
		}
		if n >= len(s.pages) {
			n = len(s.pages) - 1
		}
		if n < 0 {
			fmt.Fprint(w, `{"data": {"children": []}}`)
			return
		}
		fmt.Fprint(w, s.pages[n])

	case r.URL.Path == "/api/comment":
		_ = r.ParseForm()
		s.comments = append(s.comments, map[string]string{
			"api_type": r.PostForm.Get("api_type"),
			"thing_id": r.PostForm.Get("thing_id"),
			"text":     r.PostForm.Get("text"),
		})
		if "" != s.commentReply {
			fmt.Fprint(w, s.commentReply)
			return
		}
		fmt.Fprint(w, `{"json": {"errors": []}}`)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func page(ids ...string) string {
	children := make([]string, 0, len(ids))
	for _, id := range ids {
		children = append(children, fmt.Sprintf(`{"kind": "t1", "data": {"id": %q, "body": "body of %s", "author": "alice", "subreddit": "pics"}}`, id, id))
	}
	return `{"kind": "Listing", "data": {"children": [` + strings.Join(children, ", ") + `]}}`
}

func newClient(t *testing.T, s *service) (*redditapi.Client, func()) {
	server := httptest.NewServer(s)
	c, err := redditapi.New(redditapi.Config{
		UserAgent:         "phrasewatchd/test",
		Username:          "watcher",
		Password:          "secret-password",
		ClientID:          "id",
		ClientSecret:      "secret",
		Subreddits:        []string{"pics", "news"},
		PollInterval:      time.Millisecond,
		RetryInterval:     time.Millisecond,
		RequestsPerMinute: 600000,
		AuthURL:           server.URL + "/api/v1/access_token",
		BaseURL:           server.URL + "/",
	}, logger.New("test"))
	if nil != err {
		server.Close()
		t.Fatalf("new client error: %s", err)
	}
	return c, server.Close
}

func TestNew(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	_, err := redditapi.New(redditapi.Config{}, nil)
	assert.Equal(t, fault.InvalidLoggerChannel, err, "no logger")

	_, err = redditapi.New(redditapi.Config{UserAgent: "x", Subreddits: []string{"pics"}}, logger.New("test"))
	assert.Equal(t, fault.MissingCredentials, err, "no credentials")

	_, err = redditapi.New(redditapi.Config{Username: "u", Password: "p", ClientID: "i"}, logger.New("test"))
	assert.Equal(t, fault.MissingParameters, err, "no subreddits")

	c, err := redditapi.New(redditapi.Config{
		UserAgent:  "x",
		Username:   "u",
		Password:   "p",
		ClientID:   "i",
		Subreddits: []string{"pics", "news"},
	}, logger.New("test"))
	assert.Nil(t, err, "valid")
	assert.Equal(t, "/r/all+pics+news/comments", c.ListingPath(), "listing path")
}

func TestNextOldestFirstWithoutRepeats(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	s := &service{
		pages: []string{
			page("c3", "c2", "c1"),
			page("c4", "c3"),
		},
	}
	c, done := newClient(t, s)
	defer done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ids := []string{}
	for i := 0; i < 4; i += 1 {
		item, err := c.Next(ctx)
		if !assert.Nil(t, err, "next: %d", i) {
			return
		}
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"c1", "c2", "c3", "c4"}, ids, "order")

	s.Lock()
	defer s.Unlock()
	assert.Equal(t, 1, s.tokenRequests, "token cached")
	assert.Equal(t, 2, s.listings, "listing requests")
}

func TestNextRetriesFailedRequest(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	s := &service{
		pages:    []string{"", page("c1")},
		statuses: []int{http.StatusServiceUnavailable},
	}
	c, done := newClient(t, s)
	defer done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	item, err := c.Next(ctx)
	assert.Nil(t, err, "next")
	assert.Equal(t, "c1", item.ID, "item after retry")
	assert.Equal(t, "body of c1", item.Body, "body")
}

func TestNextReauthenticates(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	s := &service{
		pages:    []string{"", page("c1")},
		statuses: []int{http.StatusUnauthorized},
	}
	c, done := newClient(t, s)
	defer done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	item, err := c.Next(ctx)
	assert.Nil(t, err, "next")
	assert.Equal(t, "c1", item.ID, "item")

	s.Lock()
	defer s.Unlock()
	assert.Equal(t, 2, s.tokenRequests, "token discarded after 401")
}

func TestNextAuthenticationFailure(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	s := &service{
		tokenStatus: http.StatusUnauthorized,
	}
	c, done := newClient(t, s)
	defer done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.Next(ctx)
	assert.True(t, errors.Is(err, fault.AuthenticationFailed), "authentication error: %v", err)
}

func TestNextCancelled(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	s := &service{}
	c, done := newClient(t, s)
	defer done()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	item, err := c.Next(ctx)
	assert.Nil(t, item, "no item")
	assert.Equal(t, context.DeadlineExceeded, err, "cancelled")
}

func TestReply(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	s := &service{}
	c, done := newClient(t, s)
	defer done()

	ctx := context.Background()

	err := c.Reply(ctx, &feed.Item{ID: "c1"}, "Hello /u/alice,\nthanks")
	assert.Nil(t, err, "reply")

	err = c.Reply(ctx, nil, "text")
	assert.Equal(t, fault.MissingParameters, err, "no item")

	s.Lock()
	s.commentReply = `{"json": {"errors": [["RATELIMIT", "you are doing that too much", "ratelimit"]]}}`
	s.Unlock()

	err = c.Reply(ctx, &feed.Item{ID: "t1_c2"}, "text")
	assert.True(t, errors.Is(err, fault.RequestFailed), "remote error: %v", err)

	s.Lock()
	defer s.Unlock()
	if assert.Equal(t, 2, len(s.comments), "comments posted") {
		assert.Equal(t, map[string]string{
			"api_type": "json",
			"thing_id": "t1_c1",
			"text":     "Hello /u/alice,\nthanks",
		}, s.comments[0], "first comment")
		assert.Equal(t, "t1_c2", s.comments[1]["thing_id"], "prefix kept")
	}
}
