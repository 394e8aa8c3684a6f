// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/phrasewatch/phrasewatchd/fault"
)

// Read - parse a configuration file choosing the reader from its
// extension: ".json" is JSON, anything else is Lua
//
// a missing file is an error of the NotFound class
func Read(fileName string, config interface{}) error {
	if _, err := os.Stat(fileName); nil != err {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", fault.ResourceNotFound, fileName)
		}
		return err
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".json":
		return ParseJSONFile(fileName, config)
	default:
		return ParseConfigurationFile(fileName, config)
	}
}

// ParseJSONFile - decode a JSON configuration into a structure
// using its json tags
func ParseJSONFile(fileName string, config interface{}) error {
	if err := checkStructPointer(config); nil != err {
		return err
	}

	data, err := ioutil.ReadFile(fileName)
	if nil != err {
		return err
	}

	if err := json.Unmarshal(data, config); nil != err {
		return fmt.Errorf("%w: %s: %s", fault.InvalidConfigurationFormat, fileName, err)
	}
	return nil
}

// since interface{} is untyped, have to verify type compatibility at run-time
func checkStructPointer(config interface{}) error {
	rv := reflect.ValueOf(config)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fault.InvalidStructPointer
	}
	if rv.Elem().Kind() != reflect.Struct {
		return fault.InvalidStructPointer
	}
	return nil
}
