// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// phrasewatchd - watch a comment stream for trigger phrases and reply
//
// Usage:
//
//	phrasewatchd [--help] [--verbose] [--quiet] --config-file=FILE [[command|help] arguments...]
//
// Commands:
//
//	generate-config FILE [user [subreddit...]]  - write a sample configuration
//	check                                       - read and validate the configuration
//	rates                                       - show the task groups
//	start | run                                 - run until SIGINT or SIGTERM
//
// The configuration file is Lua (any extension) or JSON (".json");
// changes to the trigger phrases, ignore lists and reply message are
// applied while running.
package main
