// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package redditapi - minimal client for the remote comment service
//
// authenticates with the OAuth password grant, polls the combined
// comment listing of the configured subreddits and posts replies.
// every request is paced by a single rate limiter.
package redditapi
