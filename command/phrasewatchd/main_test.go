// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/bitmark-inc/logger"
)

const (
	testingDirName = "testing"
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

// a configuration directory below the testing directory
func configDirectory(t *testing.T) string {
	dir, err := filepath.Abs(filepath.Join(testingDirName, "config"))
	if nil != err {
		t.Fatalf("abs error: %s", err)
	}
	if err := os.MkdirAll(dir, 0700); nil != err {
		t.Fatalf("mkdir error: %s", err)
	}
	return dir
}

func writeConfig(t *testing.T, fileName string, content string) {
	if err := ioutil.WriteFile(fileName, []byte(content), 0600); nil != err {
		t.Fatalf("write config error: %s", err)
	}
}

const testConfiguration = `
local M = {}
M.data_directory = "."
M.user_agent = "phrasewatchd/test"
M.username = "watcher"
M.password = "secret"
M.client_id = "id"
M.client_secret = "secret"
M.subreddits = { "pics", "news" }
M.phrases = { "Free Robux" }
M.ignored_users = { "spammer" }
M.ignored_subreddits = { "announcements" }
M.rates = {
    io = 60,
    uptime = 60,
    reply = 10,
}
M.reply_message = { "Hello {{.Author}}", "bye" }
M.logging = {
    directory = "log",
    file = "phrasewatchd.log",
    size = 1048576,
    count = 10,
    console = false,
}
return M
`

// set an environment variable, returning the restore function
func setEnv(t *testing.T, name string, value string) func() {
	old, present := os.LookupEnv(name)
	if err := os.Setenv(name, value); nil != err {
		t.Fatalf("setenv error: %s", err)
	}
	return func() {
		if present {
			_ = os.Setenv(name, old)
		} else {
			_ = os.Unsetenv(name)
		}
	}
}
