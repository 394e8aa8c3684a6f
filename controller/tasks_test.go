// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package controller

import (
	"context"
	"os"
	"testing"

	"github.com/bitmark-inc/logger"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/phrasewatch/phrasewatchd/feed"
	"github.com/phrasewatch/phrasewatchd/feed/mocks"
	"github.com/phrasewatch/phrasewatchd/pending"
	"github.com/phrasewatch/phrasewatchd/rules"
	"github.com/phrasewatch/phrasewatchd/templates"
)

const taskTestingDirName = "testing-tasks"

func setupTaskLogger() {
	_ = os.RemoveAll(taskTestingDirName)
	_ = os.Mkdir(taskTestingDirName, 0700)

	_ = logger.Initialise(logger.Configuration{
		Directory: taskTestingDirName,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	})
}

func teardownTaskLogger() {
	logger.Finalise()
	_ = os.RemoveAll(taskTestingDirName)
}

func replyController(t *testing.T, ctx context.Context, replier feed.Replier) *Controller {
	r, err := rules.New([]string{"free robux"}, nil, nil, []string{"Hello {{.Author}}"})
	if nil != err {
		t.Fatalf("rules error: %s", err)
	}
	return &Controller{
		log:      logger.New("test"),
		messages: templates.Default(),
		queue:    pending.New(),
		rules:    rules.NewHolder(r),
		replier:  replier,
		ctx:      ctx,
	}
}

func TestReplyTaskSends(t *testing.T) {
	setupTaskLogger()
	defer teardownTaskLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	first := &feed.Item{ID: "c1", Author: "alice", Body: "free robux"}
	second := &feed.Item{ID: "c2", Author: "bob", Body: "free robux"}

	replier := mocks.NewMockReplier(ctl)
	gomock.InOrder(
		replier.EXPECT().Reply(gomock.Any(), first, "Hello alice").Return(nil).Times(1),
		replier.EXPECT().Reply(gomock.Any(), second, "Hello bob").Return(nil).Times(1),
	)

	c := replyController(t, context.Background(), replier)
	c.queue.Append(first)
	c.queue.Append(second)

	assert.Nil(t, c.replyTask(), "reply task")
	assert.Equal(t, 0, c.queue.Len(), "queue drained")
}

func TestReplyTaskAfterShutdown(t *testing.T) {
	setupTaskLogger()
	defer teardownTaskLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	// no Reply expected: any call fails the test
	replier := mocks.NewMockReplier(ctl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := replyController(t, ctx, replier)
	c.queue.Append(&feed.Item{ID: "c1", Author: "alice", Body: "free robux"})

	assert.Nil(t, c.replyTask(), "no failures reported")
	assert.Equal(t, 1, c.queue.Len(), "queue untouched")
}

func TestReplyTaskCancelledDuringBatch(t *testing.T) {
	setupTaskLogger()
	defer teardownTaskLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := &feed.Item{ID: "c1", Author: "alice", Body: "free robux"}

	replier := mocks.NewMockReplier(ctl)
	replier.EXPECT().Reply(gomock.Any(), first, "Hello alice").DoAndReturn(func(ctx context.Context, item *feed.Item, text string) error {
		cancel()
		return nil
	}).Times(1)

	c := replyController(t, ctx, replier)
	c.queue.Append(first)
	c.queue.Append(&feed.Item{ID: "c2", Author: "bob", Body: "free robux"})

	assert.Nil(t, c.replyTask(), "remaining replies skipped without error")
}
