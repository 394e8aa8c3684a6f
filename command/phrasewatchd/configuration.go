// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/phrasewatch/phrasewatchd/configuration"
	"github.com/phrasewatch/phrasewatchd/controller"
	"github.com/phrasewatch/phrasewatchd/fault"
	"github.com/phrasewatch/phrasewatchd/limitedset"
	"github.com/phrasewatch/phrasewatchd/redditapi"
	"github.com/phrasewatch/phrasewatchd/rules"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultMessagesFile  = "messages.json"
	defaultProcessedFile = "data/" + controller.DefaultProcessedFile

	defaultLogDirectory = "log"
	defaultLogFile      = "phrasewatchd.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size
)

// to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		logger.DefaultTag: "info",
	}
)

// Configuration - the contents of the configuration file
type Configuration struct {
	DataDirectory string `gluamapper:"data_directory" json:"data_directory"`
	PidFile       string `gluamapper:"pidfile" json:"pidfile"`
	MessagesFile  string `gluamapper:"messages_file" json:"messages_file"`
	ProcessedFile string `gluamapper:"processed_file" json:"processed_file"`
	Eviction      string `gluamapper:"eviction" json:"eviction"`

	UserAgent    string `gluamapper:"user_agent" json:"user_agent"`
	Username     string `gluamapper:"username" json:"username"`
	Password     string `gluamapper:"password" json:"password"`
	ClientID     string `gluamapper:"client_id" json:"client_id"`
	ClientSecret string `gluamapper:"client_secret" json:"client_secret"`

	Subreddits        []string `gluamapper:"subreddits" json:"subreddits"`
	Phrases           []string `gluamapper:"phrases" json:"phrases"`
	IgnoredUsers      []string `gluamapper:"ignored_users" json:"ignored_users"`
	IgnoredSubreddits []string `gluamapper:"ignored_subreddits" json:"ignored_subreddits"`
	ReplyMessage      []string `gluamapper:"reply_message" json:"reply_message"`

	Rates             map[string]int `gluamapper:"rates" json:"rates"`
	ReplyBatch        int            `gluamapper:"reply_batch" json:"reply_batch"`
	PollInterval      int            `gluamapper:"poll_interval" json:"poll_interval"`
	RequestsPerMinute int            `gluamapper:"requests_per_minute" json:"requests_per_minute"`

	Logging logger.Configuration `gluamapper:"logging" json:"logging"`
}

// will read decode and verify the configuration
func getConfiguration(configurationFileName string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{

		DataDirectory: defaultDataDirectory,
		PidFile:       "", // no PidFile by default
		MessagesFile:  defaultMessagesFile,
		ProcessedFile: defaultProcessedFile,
		Eviction:      "recent",

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := configuration.Read(configurationFileName, options); err != nil {
		return nil, err
	}

	if _, err := limitedset.ParsePolicy(options.Eviction); nil != err {
		return nil, fmt.Errorf("eviction: %q: %w", options.Eviction, err)
	}

	if "" == options.UserAgent {
		return nil, fmt.Errorf("%w: user_agent", fault.MissingParameters)
	}
	if "" == options.Username || "" == options.Password || "" == options.ClientID {
		return nil, fmt.Errorf("%w: username, password and client_id are required", fault.MissingCredentials)
	}
	if 0 == len(options.Subreddits) {
		return nil, fmt.Errorf("%w: subreddits", fault.MissingParameters)
	}

	for name, seconds := range options.Rates {
		if seconds <= 0 {
			return nil, fmt.Errorf("%w: rates.%s = %d", fault.InvalidInterval, name, seconds)
		}
	}

	// the rules must compile
	if _, err := options.rules(); nil != err {
		return nil, err
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("Path: %q is not a valid directory", options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	}
	options.DataDirectory = filepath.Clean(options.DataDirectory)

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fmt.Errorf("Path: %q is not a directory", options.DataDirectory)
	}

	// force all relevant items to be absolute paths
	// if not, assign them to the data directory
	mustBeAbsolute := []*string{
		&options.MessagesFile,
		&options.ProcessedFile,
	}
	for _, f := range mustBeAbsolute {
		*f = ensureAbsolute(options.DataDirectory, *f)
	}

	// optional absolute paths i.e. blank or an absolute path
	optionalAbsolute := []*string{
		&options.PidFile,
	}
	for _, f := range optionalAbsolute {
		if "" != *f {
			*f = ensureAbsolute(options.DataDirectory, *f)
		}
	}

	// fail if any of these are not simple file names i.e. must
	// not contain path seperator, then add the correct directory
	// prefix, file item is first and corresponding directory is
	// second (or nil if no prefix can be added)
	mustNotBePaths := [][2]*string{
		{&options.Logging.File, nil},
	}
	for _, f := range mustNotBePaths {
		switch filepath.Dir(*f[0]) {
		case "", ".":
			if nil != f[1] {
				*f[0] = ensureAbsolute(*f[1], *f[0])
			}
		default:
			return nil, fmt.Errorf("Files: %q is not plain name", *f[0])
		}
	}

	// make absolute and create directories if they do not already exist
	processedDirectory := filepath.Dir(options.ProcessedFile)
	for _, d := range []*string{
		&options.Logging.Directory,
		&processedDirectory,
	} {
		*d = ensureAbsolute(options.DataDirectory, *d)
		if err := os.MkdirAll(*d, 0700); nil != err {
			return nil, err
		}
	}

	// done
	return options, nil
}

// join a relative path to a directory
func ensureAbsolute(directory string, filePath string) string {
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(directory, filePath)
	}
	return filepath.Clean(filePath)
}

// rates as intervals
func (c *Configuration) rates() map[string]time.Duration {
	rates := make(map[string]time.Duration, len(c.Rates))
	for name, seconds := range c.Rates {
		rates[strings.ToLower(name)] = time.Duration(seconds) * time.Second
	}
	return rates
}

// validated on load
func (c *Configuration) eviction() limitedset.Policy {
	policy, _ := limitedset.ParsePolicy(c.Eviction)
	return policy
}

func (c *Configuration) rules() (*rules.Rules, error) {
	return rules.New(c.Phrases, c.IgnoredUsers, c.IgnoredSubreddits, c.ReplyMessage)
}

func (c *Configuration) client() redditapi.Config {
	return redditapi.Config{
		UserAgent:         c.UserAgent,
		Username:          c.Username,
		Password:          c.Password,
		ClientID:          c.ClientID,
		ClientSecret:      c.ClientSecret,
		Subreddits:        c.Subreddits,
		PollInterval:      time.Duration(c.PollInterval) * time.Second,
		RequestsPerMinute: c.RequestsPerMinute,
	}
}
