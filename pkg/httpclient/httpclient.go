// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package httpclient wraps resty.Client with the subset of configuration
// the collaborator clients need: base URL, basic auth, retry, timeout and a
// quiet-by-default logger.
package httpclient

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/stratastor/deaddiskd/internal/constants"
)

const (
	defaultTimeout       = 10 * time.Second
	defaultRetryCount    = 3
	defaultRetryWaitTime = 2 * time.Second
	defaultRetryMaxWait  = 10 * time.Second
	defaultUserAgent     = "deaddiskd"
)

// Client wraps resty.Client with deaddiskd's defaults applied.
type Client struct {
	*resty.Client
	config ClientConfig
}

// ClientConfig holds configuration values for the HTTP client.
type ClientConfig struct {
	BaseURL          string
	Timeout          time.Duration
	RetryCount       int
	RetryWaitTime    time.Duration
	RetryMaxWaitTime time.Duration
	UserAgent        string

	ProxyURL string

	BasicAuth struct {
		Username string
		Password string
	}

	Debug bool
}

// NewClientConfig returns a ClientConfig with sensible defaults.
func NewClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:          defaultTimeout,
		RetryCount:       defaultRetryCount,
		RetryWaitTime:    defaultRetryWaitTime,
		RetryMaxWaitTime: defaultRetryMaxWait,
		UserAgent:        defaultUserAgent + "/" + constants.Version,
	}
}

// NewClient creates a new resty-backed client with the given configuration.
func NewClient(config ClientConfig) *Client {
	c := &Client{Client: resty.New(), config: config}
	c.applyConfig()
	return c
}

func (c *Client) applyConfig() {
	// The transport is installed first so that SetProxy below configures it
	// rather than being discarded by a later SetTransport.
	c.Client.SetTransport(&http.Transport{
		MaxIdleConns:    100,
		IdleConnTimeout: 90 * time.Second,
	})

	if c.config.Timeout > 0 {
		c.Client.SetTimeout(c.config.Timeout)
	}
	if c.config.RetryCount > 0 {
		c.Client.SetRetryCount(c.config.RetryCount)
	}
	if c.config.RetryWaitTime > 0 {
		c.Client.SetRetryWaitTime(c.config.RetryWaitTime)
	}
	if c.config.RetryMaxWaitTime > 0 {
		c.Client.SetRetryMaxWaitTime(c.config.RetryMaxWaitTime)
	}
	if c.config.UserAgent != "" {
		c.Client.SetHeader("User-Agent", c.config.UserAgent)
	}
	if c.config.BaseURL != "" {
		c.Client.SetBaseURL(c.config.BaseURL)
	}
	if c.config.BasicAuth.Username != "" && c.config.BasicAuth.Password != "" {
		c.Client.SetBasicAuth(c.config.BasicAuth.Username, c.config.BasicAuth.Password)
	}
	if c.config.ProxyURL != "" {
		c.Client.SetProxy(c.config.ProxyURL)
	}

	if c.config.Debug {
		c.Client.SetDebug(true)
	} else {
		c.Client.SetDebug(false)
		c.Client.SetLogger(noOpLogger{})
	}
}

type noOpLogger struct{}

func (noOpLogger) Printf(format string, v ...interface{}) {}
func (noOpLogger) Debugf(format string, v ...interface{}) {}
func (noOpLogger) Warnf(format string, v ...interface{})  {}
func (noOpLogger) Errorf(format string, v ...interface{}) {}
