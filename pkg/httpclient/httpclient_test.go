// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package httpclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewClientConfigDefaults(t *testing.T) {
	cfg := NewClientConfig()

	assert.Equal(t, defaultTimeout, cfg.Timeout)
	assert.Equal(t, defaultRetryCount, cfg.RetryCount)
	assert.Equal(t, defaultRetryWaitTime, cfg.RetryWaitTime)
	assert.Equal(t, defaultRetryMaxWait, cfg.RetryMaxWaitTime)
	assert.Contains(t, cfg.UserAgent, defaultUserAgent)
}

func TestNewClientAppliesBaseURLAndAuth(t *testing.T) {
	cfg := NewClientConfig()
	cfg.BaseURL = "https://jira.example.com"
	cfg.BasicAuth.Username = "bot"
	cfg.BasicAuth.Password = "secret"

	c := NewClient(cfg)

	assert.Equal(t, "https://jira.example.com", c.Client.BaseURL)
	assert.Equal(t, "bot", c.Client.UserInfo.Username)
	assert.Equal(t, "secret", c.Client.UserInfo.Password)
}

func TestNewClientWithoutAuthLeavesUserInfoNil(t *testing.T) {
	c := NewClient(NewClientConfig())
	assert.Nil(t, c.Client.UserInfo)
}
