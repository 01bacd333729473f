// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package run

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogLevelFor(t *testing.T) {
	assert.Equal(t, "info", logLevelFor(0))
	assert.Equal(t, "debug", logLevelFor(1))
	assert.Equal(t, "trace", logLevelFor(2))
	assert.Equal(t, "trace", logLevelFor(5))
}

func TestNewRunCmdDefaults(t *testing.T) {
	cmd := NewRunCmd()

	simulate, err := cmd.Flags().GetBool("simulate")
	assert.NoError(t, err)
	assert.False(t, simulate)

	daemonize, err := cmd.Flags().GetBool("daemonize")
	assert.NoError(t, err)
	assert.False(t, daemonize)

	detach, err := cmd.Flags().GetBool("detach")
	assert.NoError(t, err)
	assert.False(t, detach)
}
