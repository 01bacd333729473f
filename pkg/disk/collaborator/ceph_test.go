// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package collaborator

import (
	"context"
	"testing"

	"github.com/stratastor/logger"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) logger.Logger {
	t.Helper()
	l, err := logger.NewTag(logger.Config{LogLevel: "error"}, "ceph-test")
	require.NoError(t, err)
	return l
}

// Simulate mode must never shell out, so RemoveDisk/AddDisk succeed even
// when the ceph CLI isn't installed.
func TestCephBackendSimulateRemoveDiskTakesNoAction(t *testing.T) {
	c := NewCephBackend(newTestLogger(t))
	require.NoError(t, c.RemoveDisk(context.Background(), "/dev/sdb", true))
}

func TestCephBackendSimulateAddDiskTakesNoAction(t *testing.T) {
	c := NewCephBackend(newTestLogger(t))
	require.NoError(t, c.AddDisk(context.Background(), "/dev/sdb", true))
}
