// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package scheduler - run named periodic tasks grouped by interval
//
// Tasks sharing an interval form a rate group and run one after the
// other, in name order, on a single background loop that sleeps once
// per cycle.  A slow task delays the rest of its own group only.
//
// A task that returns an error or panics is logged and the group
// carries on with the next task.
package scheduler
