// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

import (
	"errors"
)

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError

// common errors - keep in alphabetic order
var (
	AlreadyInitialised         = ExistsError("already initialised")
	AuthenticationFailed       = ProcessError("authentication failed")
	DuplicateResource          = ExistsError("duplicate resource")
	InvalidConfigurationFormat = InvalidError("invalid configuration file format")
	InvalidInterval            = InvalidError("invalid interval")
	InvalidLoggerChannel       = InvalidError("invalid logger channel")
	InvalidStructPointer       = InvalidError("invalid struct pointer")
	InvalidTransition          = InvalidError("invalid lifecycle transition")
	MalformedStateFile         = InvalidError("malformed state file")
	MissingCredentials         = InvalidError("missing credentials")
	MissingParameters          = InvalidError("missing parameters")
	MissingTask                = InvalidError("required task is not configured")
	NotInitialised             = NotFoundError("not initialised")
	RequestFailed              = ProcessError("remote request failed")
	ResourceNotFound           = NotFoundError("resource not found")
	StateFileNotFound          = NotFoundError("state file not found")
	TaskPanicked               = ProcessError("task panicked")
	UnknownTask                = NotFoundError("unknown task")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }

// determine the class of an error, looking through any wrapping
func IsErrExists(e error) bool   { var t ExistsError; return errors.As(e, &t) }
func IsErrInvalid(e error) bool  { var t InvalidError; return errors.As(e, &t) }
func IsErrNotFound(e error) bool { var t NotFoundError; return errors.As(e, &t) }
func IsErrProcess(e error) bool  { var t ProcessError; return errors.As(e, &t) }
