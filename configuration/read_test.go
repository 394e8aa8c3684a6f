// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phrasewatch/phrasewatchd/configuration"
	"github.com/phrasewatch/phrasewatchd/fault"
)

type sample struct {
	Username   string         `gluamapper:"username" json:"username"`
	Subreddits []string       `gluamapper:"subreddits" json:"subreddits"`
	Rates      map[string]int `gluamapper:"rates" json:"rates"`
}

const luaSample = `
local M = {}
M.username = "watcher"
M.subreddits = { "pics", "news" }
M.rates = {
    io = 60,
    uptime = 60,
}
return M
`

const jsonSample = `{
  "username": "watcher",
  "subreddits": ["pics", "news"],
  "rates": {"io": 60, "uptime": 60}
}`

func writeFile(t *testing.T, dir string, name string, content string) string {
	fileName := filepath.Join(dir, name)
	if err := ioutil.WriteFile(fileName, []byte(content), 0600); nil != err {
		t.Fatalf("write file error: %s", err)
	}
	return fileName
}

func TestRead(t *testing.T) {
	dir, err := ioutil.TempDir("", "configuration")
	if nil != err {
		t.Fatalf("temp dir error: %s", err)
	}
	defer os.RemoveAll(dir)

	for _, fileName := range []string{
		writeFile(t, dir, "sample.conf", luaSample),
		writeFile(t, dir, "sample.json", jsonSample),
	} {
		s := sample{}
		err := configuration.Read(fileName, &s)
		assert.Nil(t, err, "read: %s", fileName)
		assert.Equal(t, "watcher", s.Username, "username: %s", fileName)
		assert.Equal(t, []string{"pics", "news"}, s.Subreddits, "subreddits: %s", fileName)
		assert.Equal(t, 60, s.Rates["io"], "io rate: %s", fileName)
		assert.Equal(t, 2, len(s.Rates), "rates: %s", fileName)
	}
}

func TestReadErrors(t *testing.T) {
	dir, err := ioutil.TempDir("", "configuration")
	if nil != err {
		t.Fatalf("temp dir error: %s", err)
	}
	defer os.RemoveAll(dir)

	s := sample{}

	err = configuration.Read(filepath.Join(dir, "missing.conf"), &s)
	assert.True(t, fault.IsErrNotFound(err), "missing: %v", err)

	fileName := writeFile(t, dir, "bad.json", `{"username": `)
	err = configuration.Read(fileName, &s)
	assert.True(t, fault.IsErrInvalid(err), "malformed json: %v", err)

	fileName = writeFile(t, dir, "number.conf", "return 42\n")
	err = configuration.Read(fileName, &s)
	assert.True(t, fault.IsErrInvalid(err), "not a table: %v", err)

	fileName = writeFile(t, dir, "syntax.conf", "return {\n")
	err = configuration.Read(fileName, &s)
	assert.True(t, fault.IsErrInvalid(err), "lua syntax error: %v", err)

	fileName = writeFile(t, dir, "arg.conf", "return { username = arg[1] }\n")
	err = configuration.Read(fileName, &s)
	assert.Nil(t, err, "arg table")
	assert.Equal(t, dir, s.Username, "arg[1] is the configuration directory")

	err = configuration.Read(writeFile(t, dir, "ok.conf", luaSample), s)
	assert.Equal(t, fault.InvalidStructPointer, err, "not a pointer")
}
