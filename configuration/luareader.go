// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"fmt"
	"path/filepath"

	"github.com/yuin/gluamapper"
	lua "github.com/yuin/gopher-lua"

	"github.com/phrasewatch/phrasewatchd/fault"
)

// field names are taken from the gluamapper tags unchanged
var luaMapper = gluamapper.Mapper{
	Option: gluamapper.Option{
		NameFunc: func(s string) string { return s },
		TagName:  "gluamapper",
	},
}

// ParseConfigurationFile - run a Lua script and map the table it
// returns onto config
//
// the script sees arg[0] as its own path and arg[1] as the directory
// holding it, so relative paths can be built from either
func ParseConfigurationFile(fileName string, config interface{}) error {
	if err := checkStructPointer(config); nil != err {
		return err
	}

	state := lua.NewState()
	defer state.Close()
	state.OpenLibs()

	arg := state.NewTable()
	arg.RawSetInt(0, lua.LString(fileName))
	arg.RawSetInt(1, lua.LString(filepath.Dir(fileName)))
	state.SetGlobal("arg", arg)

	if err := state.DoFile(fileName); nil != err {
		return fmt.Errorf("%w: %s", fault.InvalidConfigurationFormat, err)
	}

	result, ok := state.Get(-1).(*lua.LTable)
	if !ok {
		return fmt.Errorf("%w: %s: must return a table", fault.InvalidConfigurationFormat, fileName)
	}
	return luaMapper.Map(result, config)
}
