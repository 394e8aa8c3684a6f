// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package templates_test

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"

	"github.com/phrasewatch/phrasewatchd/fault"
	"github.com/phrasewatch/phrasewatchd/feed"
	"github.com/phrasewatch/phrasewatchd/templates"
)

func TestDefaultMessages(t *testing.T) {
	m := templates.Default()

	s := m.Format(templates.ThreadInit, map[string]interface{}{
		"num":         2,
		"thread_name": "Io-Uptime",
	})
	assert.Equal(t, "thread 2 started: Io-Uptime", s, "thread init")

	s = m.Format(templates.PhraseFound, map[string]interface{}{
		"comment": &feed.Item{ID: "c1", Author: "alice", Subreddit: "pics"},
	})
	assert.Equal(t, "phrase found in: c1 by: alice in: pics", s, "phrase found")

	assert.Equal(t, "no-such-key", m.Format("no-such-key", nil), "unknown key")
}

func TestLoadMessages(t *testing.T) {
	dir, err := ioutil.TempDir("", "messages")
	if nil != err {
		t.Fatalf("temp dir error: %s", err)
	}
	defer os.RemoveAll(dir)

	fileName := filepath.Join(dir, "messages.json")

	m, err := templates.LoadMessages(fileName)
	assert.True(t, fault.IsErrNotFound(err), "missing file: %v", err)
	assert.NotNil(t, m, "defaults on missing file")

	_ = ioutil.WriteFile(fileName, []byte(`{"uptime": "up for {{.uptime}}s"}`), 0600)
	m, err = templates.LoadMessages(fileName)
	assert.Nil(t, err, "load")
	assert.Equal(t, "up for 120s", m.Format(templates.Uptime, map[string]interface{}{"uptime": 120}), "override")
	assert.Equal(t, "saved", m.Format(templates.Saved, nil), "default kept")

	_ = ioutil.WriteFile(fileName, []byte(`{"thread_init": "thread {num} started"}`), 0600)
	m, err = templates.LoadMessages(fileName)
	assert.Nil(t, err, "single brace placeholder")
	assert.Equal(t, "thread {num} started", m.Format(templates.ThreadInit, map[string]interface{}{"num": 2}), "not expanded")

	_ = ioutil.WriteFile(fileName, []byte(`{"uptime": `), 0600)
	_, err = templates.LoadMessages(fileName)
	assert.True(t, fault.IsErrInvalid(err), "malformed: %v", err)

	_ = ioutil.WriteFile(fileName, []byte(`{"uptime": "{{.uptime"}`), 0600)
	_, err = templates.LoadMessages(fileName)
	assert.True(t, fault.IsErrInvalid(err), "bad template: %v", err)
}

func TestConfigurationTemplate(t *testing.T) {
	tmpl := template.Must(template.New("config").Parse(templates.ConfigurationTemplate))

	var buffer bytes.Buffer
	err := tmpl.Execute(&buffer, struct {
		UserAgent  string
		Username   string
		ClientID   string
		Subreddits []string
	}{
		UserAgent:  "phrasewatchd/test",
		Username:   "watcher",
		ClientID:   "id",
		Subreddits: []string{"pics", "news"},
	})
	assert.Nil(t, err, "execute")

	out := buffer.String()
	assert.Contains(t, out, `M.subreddits = { "pics", "news" }`, "subreddits")
	assert.Contains(t, out, `"Hello /u/{{.Author}},"`, "escaped reply template")
}
