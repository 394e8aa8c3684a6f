// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/phrasewatch/phrasewatchd/controller"
	"github.com/phrasewatch/phrasewatchd/fault"
	"github.com/phrasewatch/phrasewatchd/redditapi"
	"github.com/phrasewatch/phrasewatchd/rules"
	"github.com/phrasewatch/phrasewatchd/templates"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		processSetupCommand(program, []string{"version"})
		return
	}

	if len(options["help"]) > 0 {
		processSetupCommand(program, []string{"help"})
		return
	}

	// these commands do not require the configuration
	if len(arguments) > 0 && processSetupCommand(program, arguments) {
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]
	theConfiguration, err := getConfiguration(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// these commands require the configuration and
	// perform enquiries on the configuration
	if len(arguments) > 0 && processConfigCommand(arguments, theConfiguration) {
		return
	}

	if len(options["verbose"]) > 0 {
		theConfiguration.Logging.Console = true
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Debugf("subreddits: %v  rates: %v", theConfiguration.Subreddits, theConfiguration.Rates)

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	messages, err := templates.LoadMessages(theConfiguration.MessagesFile)
	if fault.IsErrNotFound(err) {
		log.Infof("using built-in messages: %s", err)
	} else if nil != err {
		log.Criticalf("messages error: %s", err)
		exitwithstatus.Message("messages error: %s", err)
	}

	r, err := theConfiguration.rules()
	if nil != err {
		log.Criticalf("rules error: %s", err)
		exitwithstatus.Message("rules error: %s", err)
	}
	holder := rules.NewHolder(r)

	client, err := redditapi.New(theConfiguration.client(), logger.New("reddit"))
	if nil != err {
		log.Criticalf("client error: %s", err)
		exitwithstatus.Message("client error: %s", err)
	}

	c, err := controller.New(controller.Options{
		Stream:        client,
		Replier:       client,
		Rules:         holder,
		Messages:      messages,
		Rates:         theConfiguration.rates(),
		DataDirectory: theConfiguration.DataDirectory,
		ProcessedFile: theConfiguration.ProcessedFile,
		Eviction:      theConfiguration.eviction(),
		ReplyBatch:    theConfiguration.ReplyBatch,
	}, logger.New("controller"))
	if nil != err {
		log.Criticalf("controller error: %s", err)
		exitwithstatus.Message("controller error: %s", err)
	}

	// rule changes in the configuration file apply without a restart
	channels := newWatcherChannel()
	watcher, err := newFileWatcher(configurationFile, logger.New(FileWatcherLoggerPrefix), channels)
	if nil == err {
		err = watcher.Start()
	}
	if nil != err {
		log.Warnf("configuration file will not be watched: %s", err)
	} else {
		defer watcher.Stop()
		reader := newConfigReader(configurationFile, theConfiguration, holder, channels, logger.New(ReaderLoggerPrefix))
		shutdown := make(chan struct{})
		defer close(shutdown)
		go reader.Run(shutdown)
	}

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	// turn Signals into cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-ch
		log.Infof("received signal: %v", sig)
		if 0 == len(options["quiet"]) {
			fmt.Printf("\nreceived signal: %v\n", sig)
			fmt.Printf("\nshutting down…\n")
		}
		cancel()
	}()

	err = c.Run(ctx)
	if nil != err {
		log.Criticalf("run error: %s", err)
		exitwithstatus.Message("run error: %s", err)
	}

	log.Info("shutting down…")
}
