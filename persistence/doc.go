// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package persistence - debounced write-back of in-memory state
//
// Each resource is registered once under a name together with the
// file that backs it.  Mutators only mark a resource dirty; the
// periodic "io" task calls Flush, which rewrites the complete file of
// every dirty resource.  A failed write leaves the resource dirty so
// the next Flush retries it.
package persistence
