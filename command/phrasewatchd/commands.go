// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"text/template"
	"time"

	"github.com/bitmark-inc/exitwithstatus"

	"github.com/phrasewatch/phrasewatchd/controller"
	"github.com/phrasewatch/phrasewatchd/scheduler"
	"github.com/phrasewatch/phrasewatchd/templates"
)

// values substituted into the generated configuration
type configurationData struct {
	UserAgent  string
	Username   string
	ClientID   string
	Subreddits []string
}

// setup command handler
//
// commands that run without the configuration file
func processSetupCommand(program string, arguments []string) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {
	case "generate-config", "gen-config", "config":
		if len(arguments) < 1 {
			exitwithstatus.Message("%s: generate-config requires a file name", program)
		}
		fileName := arguments[0]

		data := configurationData{
			UserAgent:  "phrasewatchd/" + version,
			Username:   "your-username",
			ClientID:   "your-client-id",
			Subreddits: []string{"all"},
		}
		if len(arguments) > 1 {
			data.Username = arguments[1]
			data.UserAgent = "phrasewatchd/" + version + " by /u/" + arguments[1]
		}
		if len(arguments) > 2 {
			data.Subreddits = arguments[2:]
		}

		if err := generateConfiguration(fileName, data); nil != err {
			fmt.Printf("generate configuration: %q error: %s\n", fileName, err)
			exitwithstatus.Exit(1)
		}
		fmt.Printf("generated configuration: %q\n", fileName)

	case "start", "run":
		return false // continue processing

	case "check", "rates":
		return false // defer processing until configuration is read

	case "version", "v":
		fmt.Printf("%s\n", version)

	default:
		switch command {
		case "help", "h", "?":
		case "", " ":
			fmt.Printf("error: missing command\n")
		default:
			fmt.Printf("error: no such command: %q\n", command)
		}

		fmt.Printf("supported commands:\n\n")
		fmt.Printf("  help                   (h)      - display this message\n\n")
		fmt.Printf("  version                (v)      - display version\n\n")
		fmt.Printf("  generate-config FILE [USER [SUBREDDIT...]]\n")
		fmt.Printf("                         (config) - write a sample configuration to FILE\n\n")
		fmt.Printf("  check                           - read and validate the configuration\n\n")
		fmt.Printf("  rates                           - show the task groups\n\n")
		fmt.Printf("  start                  (run)    - just run the program, same as no arguments\n\n")
		fmt.Printf("usage: %s [--help] [--verbose] [--quiet] --config-file=FILE [[command|help] arguments...]\n", program)
		exitwithstatus.Exit(1)
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// configuration command handler
//
// commands that only need the parsed configuration
func processConfigCommand(arguments []string, options *Configuration) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "check":
		r, err := options.rules()
		if nil != err {
			exitwithstatus.Message("rules error: %s", err)
		}
		if err := scheduler.Validate(options.rates(), controller.TaskNames, controller.RequiredTasks); nil != err {
			exitwithstatus.Message("rates error: %s", err)
		}
		fmt.Printf("configuration OK\n")
		fmt.Printf("  data directory:     %s\n", options.DataDirectory)
		fmt.Printf("  processed file:     %s\n", options.ProcessedFile)
		fmt.Printf("  subreddits:         %v\n", options.Subreddits)
		fmt.Printf("  phrases:            %d\n", r.PhraseCount())
		fmt.Printf("  ignored users:      %d\n", len(options.IgnoredUsers))
		fmt.Printf("  ignored subreddits: %d\n", len(options.IgnoredSubreddits))
		fmt.Printf("  eviction:           %s\n", options.Eviction)

	case "rates":
		printRates(os.Stdout, options.rates())

	default:
		return false
	}
	return true
}

// print the groups in the same numbering as the thread start log lines
func printRates(w io.Writer, rates map[string]time.Duration) {
	fmt.Fprintf(w, "%3d: %-24s (stream)\n", 1, "Comments")
	for i, g := range scheduler.Group(rates) {
		fmt.Fprintf(w, "%3d: %-24s every %s\n", i+2, g.Name(), g.Interval)
	}
}

// expand the configuration template into a new file
func generateConfiguration(fileName string, data configurationData) error {
	tmpl, err := template.New("config").Parse(templates.ConfigurationTemplate)
	if nil != err {
		return err
	}

	f, err := os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if nil != err {
		return err
	}

	if err := tmpl.Execute(f, data); nil != err {
		f.Close()
		os.Remove(fileName)
		return err
	}
	return f.Close()
}
