// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package persistence

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/phrasewatch/phrasewatchd/fault"
)

// Resource - an in-memory structure that can be written to and read
// back from its backing file
type Resource interface {
	Snapshot() ([]byte, error)
	Decode([]byte) error
}

type entry struct {
	name     string
	fileName string
	resource Resource
	dirty    bool
}

// Gateway - registry of persisted resources and their dirty flags
type Gateway struct {
	sync.Mutex
	flushLock sync.Mutex
	log       *logger.L
	directory string
	entries   []*entry
	index     map[string]*entry
}

// New - create a gateway; relative file names are placed in directory
func New(directory string, log *logger.L) (*Gateway, error) {
	if nil == log {
		return nil, fault.InvalidLoggerChannel
	}
	return &Gateway{
		log:       log,
		directory: directory,
		index:     make(map[string]*entry),
	}, nil
}

// Register - add a resource to the table
func (g *Gateway) Register(name string, fileName string, resource Resource) error {
	if "" == name || "" == fileName || nil == resource {
		return fault.MissingParameters
	}

	g.Lock()
	defer g.Unlock()

	if _, ok := g.index[name]; ok {
		return fmt.Errorf("%w: %s", fault.DuplicateResource, name)
	}

	if !filepath.IsAbs(fileName) {
		fileName = filepath.Join(g.directory, fileName)
	}

	e := &entry{
		name:     name,
		fileName: filepath.Clean(fileName),
		resource: resource,
	}
	g.entries = append(g.entries, e)
	g.index[name] = e

	g.log.Debugf("register: %s → %s", name, e.fileName)
	return nil
}

// FileName - the backing file of a resource
func (g *Gateway) FileName(name string) (string, error) {
	g.Lock()
	defer g.Unlock()

	e, ok := g.index[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", fault.ResourceNotFound, name)
	}
	return e.fileName, nil
}

// Load - read the backing file into the resource
//
// a missing file gives an error of the NotFound class so the caller
// can start empty; unparsable content is a separate Invalid error
func (g *Gateway) Load(name string) error {
	fileName, err := g.FileName(name)
	if nil != err {
		return err
	}

	g.Lock()
	resource := g.index[name].resource
	g.Unlock()

	data, err := ioutil.ReadFile(fileName)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", fault.StateFileNotFound, fileName)
	}
	if nil != err {
		return err
	}

	if err := resource.Decode(data); nil != err {
		return fmt.Errorf("%w: %s: %s", fault.MalformedStateFile, fileName, err)
	}

	g.log.Infof("loaded: %s from: %s", name, fileName)
	return nil
}

// MarkDirty - flag a resource for the next flush
func (g *Gateway) MarkDirty(name string) {
	g.Lock()
	defer g.Unlock()

	e, ok := g.index[name]
	if !ok {
		g.log.Errorf("mark dirty: unregistered resource: %s", name)
		return
	}
	e.dirty = true
}

// IsDirty - check the flag of a resource
func (g *Gateway) IsDirty(name string) bool {
	g.Lock()
	defer g.Unlock()

	e, ok := g.index[name]
	return ok && e.dirty
}

// AnyDirty - true if some resource has unsaved changes
func (g *Gateway) AnyDirty() bool {
	g.Lock()
	defer g.Unlock()

	for _, e := range g.entries {
		if e.dirty {
			return true
		}
	}
	return false
}

// Flush - write every dirty resource, in registration order
//
// the flag is cleared before the snapshot is taken, so a mutation
// racing with the write is picked up by the next flush; returns the
// first error after trying all resources
func (g *Gateway) Flush() error {
	g.flushLock.Lock()
	defer g.flushLock.Unlock()

	g.Lock()
	entries := make([]*entry, len(g.entries))
	copy(entries, g.entries)
	g.Unlock()

	var firstErr error
	for _, e := range entries {
		g.Lock()
		dirty := e.dirty
		e.dirty = false
		g.Unlock()

		if !dirty {
			continue
		}

		err := g.write(e)
		if nil == err {
			g.log.Debugf("saved: %s", e.fileName)
			continue
		}

		g.log.Errorf("save: %s  error: %s", e.fileName, err)

		g.Lock()
		e.dirty = true
		g.Unlock()

		if nil == firstErr {
			firstErr = err
		}
	}
	return firstErr
}

// replace the whole file: write a temporary file alongside and rename
func (g *Gateway) write(e *entry) error {
	data, err := e.resource.Snapshot()
	if nil != err {
		return err
	}

	directory := filepath.Dir(e.fileName)
	f, err := ioutil.TempFile(directory, filepath.Base(e.fileName)+".*.tmp")
	if nil != err {
		return err
	}
	tempName := f.Name()

	_, err = f.Write(data)
	if nil == err {
		err = f.Sync()
	}
	if closeErr := f.Close(); nil == err {
		err = closeErr
	}
	if nil == err {
		err = os.Rename(tempName, e.fileName)
	}
	if nil != err {
		_ = os.Remove(tempName)
	}
	return err
}
