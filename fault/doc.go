// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - error values grouped into classes
//
// each value is a single instance so callers compare with errors.Is
// even after context has been added with %w, and test the class of an
// error with the IsErrX functions
package fault
