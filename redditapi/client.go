// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package redditapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	cache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/phrasewatch/phrasewatchd/fault"
	"github.com/phrasewatch/phrasewatchd/feed"
)

// defaults for unset Config fields
const (
	DefaultAuthURL           = "https://www.reddit.com/api/v1/access_token"
	DefaultBaseURL           = "https://oauth.reddit.com"
	DefaultPollInterval      = 5 * time.Second
	DefaultRetryInterval     = 30 * time.Second
	DefaultRequestsPerMinute = 60

	listingLimit   = 100
	seenExpiration = time.Hour
	tokenKey       = "token"
	tokenMargin    = time.Minute
	requestTimeout = 30 * time.Second
)

// Config - connection parameters
type Config struct {
	UserAgent    string
	Username     string
	Password     string
	ClientID     string
	ClientSecret string
	Subreddits   []string

	PollInterval      time.Duration
	RetryInterval     time.Duration
	RequestsPerMinute int

	AuthURL    string
	BaseURL    string
	HTTPClient *http.Client
}

// Client - implements feed.Stream and feed.Replier
type Client struct {
	sync.Mutex

	log        *logger.L
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
	tokens     *cache.Cache
	seen       *cache.Cache

	buffer   []*feed.Item
	lastPoll time.Time
}

// check interface compliance
var (
	_ feed.Stream  = (*Client)(nil)
	_ feed.Replier = (*Client)(nil)
)

// New - create a client, no network access happens until the first request
func New(config Config, log *logger.L) (*Client, error) {
	if nil == log {
		return nil, fault.InvalidLoggerChannel
	}
	if "" == config.Username || "" == config.Password || "" == config.ClientID {
		return nil, fault.MissingCredentials
	}
	if "" == config.UserAgent || 0 == len(config.Subreddits) {
		return nil, fault.MissingParameters
	}

	if "" == config.AuthURL {
		config.AuthURL = DefaultAuthURL
	}
	if "" == config.BaseURL {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = DefaultRetryInterval
	}
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = DefaultRequestsPerMinute
	}

	httpClient := config.HTTPClient
	if nil == httpClient {
		httpClient = &http.Client{
			Timeout: requestTimeout,
		}
	}

	c := &Client{
		log:        log,
		config:     config,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), 1),
		tokens:     cache.New(cache.NoExpiration, tokenMargin),
		seen:       cache.New(seenExpiration, seenExpiration/2),
	}
	return c, nil
}

// wait for the limiter; a pending reservation is returned if ctx ends first
func (c *Client) limit(ctx context.Context) error {
	r := c.limiter.Reserve()
	if !r.OK() {
		return fault.RequestFailed
	}
	delay := r.Delay()
	if delay <= 0 {
		return nil
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type tokenResponse struct {
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	ExpiresIn   float64 `json:"expires_in"`
	Error       string  `json:"error"`
}

// fetch a bearer token, reusing the cached one until shortly before it expires
func (c *Client) token(ctx context.Context) (string, error) {
	if t, found := c.tokens.Get(tokenKey); found {
		return t.(string), nil
	}

	if err := c.limit(ctx); nil != err {
		return "", err
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", c.config.Username)
	form.Set("password", c.config.Password)

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.AuthURL, strings.NewReader(form.Encode()))
	if nil != err {
		return "", err
	}
	request.SetBasicAuth(c.config.ClientID, c.config.ClientSecret)
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	request.Header.Set("User-Agent", c.config.UserAgent)

	response, err := c.httpClient.Do(request)
	if nil != err {
		return "", err
	}
	defer response.Body.Close()

	if http.StatusOK != response.StatusCode {
		return "", fmt.Errorf("%w: status: %s", fault.AuthenticationFailed, response.Status)
	}

	var reply tokenResponse
	if err := json.NewDecoder(response.Body).Decode(&reply); nil != err {
		return "", fmt.Errorf("%w: %s", fault.AuthenticationFailed, err)
	}
	if "" != reply.Error || "" == reply.AccessToken {
		return "", fmt.Errorf("%w: %q", fault.AuthenticationFailed, reply.Error)
	}

	expires := time.Duration(reply.ExpiresIn) * time.Second
	if expires > 2*tokenMargin {
		expires -= tokenMargin
	}
	if expires <= 0 {
		expires = tokenMargin
	}
	c.tokens.Set(tokenKey, reply.AccessToken, expires)

	c.log.Debugf("token obtained for: %s  expires in: %s", c.config.Username, expires)
	return reply.AccessToken, nil
}

// perform an authenticated request; the response body is read fully
//
// a 401 discards the cached token so that the next request re-authenticates
func (c *Client) do(ctx context.Context, method string, path string, query url.Values, body io.Reader) ([]byte, error) {
	token, err := c.token(ctx)
	if nil != err {
		return nil, err
	}

	if err := c.limit(ctx); nil != err {
		return nil, err
	}

	u := c.config.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	request, err := http.NewRequestWithContext(ctx, method, u, body)
	if nil != err {
		return nil, err
	}
	request.Header.Set("Authorization", "bearer "+token)
	request.Header.Set("User-Agent", c.config.UserAgent)
	if nil != body {
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	response, err := c.httpClient.Do(request)
	if nil != err {
		return nil, err
	}
	defer response.Body.Close()

	data, err := ioutil.ReadAll(response.Body)
	if nil != err {
		return nil, err
	}

	switch response.StatusCode {
	case http.StatusOK:
		return data, nil
	case http.StatusUnauthorized:
		c.tokens.Delete(tokenKey)
	}
	return nil, fmt.Errorf("%w: %s %s: status: %s", fault.RequestFailed, method, path, response.Status)
}
