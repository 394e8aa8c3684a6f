// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package templates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"text/template"

	"github.com/phrasewatch/phrasewatchd/fault"
)

// message keys
const (
	ThreadInit  = "thread_init"
	PhraseFound = "phrase_found"
	Uptime      = "uptime"
	Saving      = "saving"
	Saved       = "saved"
	Replied     = "replied"
	Shutdown    = "shutdown"
)

// built-in messages, replaced key by key from the messages file
var defaultMessages = map[string]string{
	ThreadInit:  "thread {{.num}} started: {{.thread_name}}",
	PhraseFound: "phrase found in: {{.comment.ID}} by: {{.comment.Author}} in: {{.comment.Subreddit}}",
	Uptime:      "uptime: {{.uptime}} seconds",
	Saving:      "saving…",
	Saved:       "saved",
	Replied:     "replied to: {{.comment.ID}}",
	Shutdown:    "shutdown complete",
}

// Messages - compiled human readable log lines
type Messages struct {
	t map[string]*template.Template
}

// Default - the built-in messages only
func Default() *Messages {
	m, err := compile(nil)
	if nil != err {
		panic(err) // built-in templates must compile
	}
	return m
}

// LoadMessages - read the messages file, a JSON object mapping key to template
//
// values are text/template strings such as "{{.num}}" and
// "{{.comment.ID}}"; single brace placeholders like "{num}" are not
// expanded and appear in the log as written
//
// a missing file gives the defaults together with an error of the
// NotFound class; an unreadable or malformed file is an error
func LoadMessages(fileName string) (*Messages, error) {
	data, err := ioutil.ReadFile(fileName)
	if os.IsNotExist(err) {
		return Default(), fmt.Errorf("%w: %s", fault.StateFileNotFound, fileName)
	}
	if nil != err {
		return nil, err
	}

	overrides := make(map[string]string)
	if err := json.Unmarshal(data, &overrides); nil != err {
		return nil, fmt.Errorf("%w: %s: %s", fault.InvalidConfigurationFormat, fileName, err)
	}
	return compile(overrides)
}

func compile(overrides map[string]string) (*Messages, error) {
	m := &Messages{
		t: make(map[string]*template.Template),
	}
	for key, text := range defaultMessages {
		if o, ok := overrides[key]; ok {
			text = o
		}
		t, err := template.New(key).Option("missingkey=zero").Parse(text)
		if nil != err {
			return nil, fmt.Errorf("%w: message: %s: %s", fault.InvalidConfigurationFormat, key, err)
		}
		m.t[key] = t
	}
	return m, nil
}

// Format - expand a message; an unknown key or a failing template
// gives the key itself so that a log line is never lost
func (m *Messages) Format(key string, data map[string]interface{}) string {
	t, ok := m.t[key]
	if !ok {
		return key
	}
	var buffer bytes.Buffer
	if err := t.Execute(&buffer, data); nil != err {
		return fmt.Sprintf("%s: %v", key, data)
	}
	return buffer.String()
}
