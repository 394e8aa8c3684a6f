// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package templates

const (
	/**** Configuration template ****/
	ConfigurationTemplate = `-- phrasewatchd.conf  -*- mode: lua -*-

local M = {}

-- relative paths are below this directory; "." is the directory of this file
M.data_directory = "."

-- optional PID file
-- M.pidfile = "phrasewatchd.pid"

-- remote account
M.user_agent = "{{.UserAgent}}"
M.username = "{{.Username}}"
M.password = os.getenv("PHRASEWATCH_PASSWORD") or ""
M.client_id = "{{.ClientID}}"
M.client_secret = os.getenv("PHRASEWATCH_CLIENT_SECRET") or ""

-- what to watch
M.subreddits = { {{range $i, $s := .Subreddits}}{{if $i}}, {{end}}"{{$s}}"{{end}} }
M.phrases = { "we did it" }
M.ignored_users = { "{{.Username}}" }
M.ignored_subreddits = { "announcements" }

-- task intervals in seconds
M.rates = {
    io = 60,
    uptime = 60,
    reply = 10,
}

-- reply lines, text/template over: .ID .Body .Author .Subreddit .Permalink
M.reply_message = {
    "Hello /u/{{"{{"}}.Author{{"}}"}},",
    "",
    "*beep boop*",
}

-- recent | historical
M.eviction = "recent"

M.messages_file = "messages.json"
M.processed_file = "data/processed.json"

M.logging = {
    directory = "log",
    file = "phrasewatchd.log",
    size = 1048576,
    count = 10,
    console = true,
    levels = {
        DEFAULT = "info",
    },
}

return M
`
)
