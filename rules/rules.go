// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package rules - decide which items deserve a reply and build the
// reply text
package rules

import (
	"bytes"
	"strings"
	"sync/atomic"
	"text/template"

	"github.com/phrasewatch/phrasewatchd/feed"
)

// Rules - trigger phrases, ignore lists and the reply template
type Rules struct {
	phrases           []string
	ignoredUsers      map[string]struct{}
	ignoredSubreddits map[string]struct{}
	reply             *template.Template
}

// New - compile a rule set
//
// phrases are matched case-insensitively and blank phrases are
// dropped; replyMessage lines are joined with newlines and form a
// text/template over the fields of feed.Item
func New(phrases []string, ignoredUsers []string, ignoredSubreddits []string, replyMessage []string) (*Rules, error) {

	reply, err := template.New("reply").Parse(strings.Join(replyMessage, "\n"))
	if nil != err {
		return nil, err
	}

	r := &Rules{
		phrases:           make([]string, 0, len(phrases)),
		ignoredUsers:      toSet(ignoredUsers),
		ignoredSubreddits: toSet(ignoredSubreddits),
		reply:             reply,
	}
	for _, p := range phrases {
		if "" != strings.TrimSpace(p) {
			r.phrases = append(r.phrases, strings.ToLower(p))
		}
	}
	return r, nil
}

func toSet(names []string) map[string]struct{} {
	s := make(map[string]struct{}, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// ShouldReply - true if the item is from neither an ignored author nor
// an ignored subreddit and its body contains a trigger phrase
func (r *Rules) ShouldReply(item *feed.Item) bool {
	_, ok := r.Match(item)
	return ok
}

// Match - the first trigger phrase found in an acceptable item
func (r *Rules) Match(item *feed.Item) (string, bool) {
	if nil == item {
		return "", false
	}
	if _, ignored := r.ignoredUsers[item.Author]; ignored {
		return "", false
	}
	if _, ignored := r.ignoredSubreddits[item.Subreddit]; ignored {
		return "", false
	}

	body := strings.ToLower(item.Body)
	for _, phrase := range r.phrases {
		if strings.Contains(body, phrase) {
			return phrase, true
		}
	}
	return "", false
}

// FormatReply - expand the reply template for an item
func (r *Rules) FormatReply(item *feed.Item) (string, error) {
	var buffer bytes.Buffer
	if err := r.reply.Execute(&buffer, item); nil != err {
		return "", err
	}
	return buffer.String(), nil
}

// PhraseCount - number of usable trigger phrases
func (r *Rules) PhraseCount() int {
	return len(r.phrases)
}

// Holder - current rules, replaced as a whole when the configuration
// is reloaded
type Holder struct {
	v atomic.Value
}

// NewHolder - holder with initial rules
func NewHolder(r *Rules) *Holder {
	h := &Holder{}
	h.v.Store(r)
	return h
}

// Load - the current rules
func (h *Holder) Load() *Rules {
	return h.v.Load().(*Rules)
}

// Store - replace the rules
func (h *Holder) Store(r *Rules) {
	h.v.Store(r)
}
