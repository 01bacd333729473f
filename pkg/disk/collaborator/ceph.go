// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package collaborator

import (
	"context"

	"github.com/stratastor/logger"

	"github.com/stratastor/deaddiskd/internal/command"
)

// CephBackend removes and re-admits devices using the ceph orch CLI.
// simulate logs the command it would have run without executing it.
type CephBackend struct {
	logger   logger.Logger
	executor *command.CommandExecutor
	cephBin  string
}

func NewCephBackend(l logger.Logger) *CephBackend {
	return &CephBackend{
		logger:   l,
		executor: command.NewCommandExecutor(true),
		cephBin:  "ceph",
	}
}

// RemoveDisk zaps devicePath with `ceph orch device zap --force`. It does
// not mark the backing OSD out or destroy it first.
func (c *CephBackend) RemoveDisk(ctx context.Context, devicePath string, simulate bool) error {
	args := [][]string{
		{"orch", "device", "zap", devicePath, "--force"},
	}
	return c.run(ctx, "RemoveDisk", devicePath, simulate, args)
}

// AddDisk re-admits a replaced device to the cluster by running
// `ceph orch daemon add osd` for devicePath.
func (c *CephBackend) AddDisk(ctx context.Context, devicePath string, simulate bool) error {
	args := [][]string{
		{"orch", "daemon", "add", "osd", devicePath},
	}
	return c.run(ctx, "AddDisk", devicePath, simulate, args)
}

func (c *CephBackend) run(ctx context.Context, op, devicePath string, simulate bool, commands [][]string) error {
	for _, args := range commands {
		if simulate {
			c.logger.Info("simulate: would run ceph command", "op", op, "device", devicePath, "args", args)
			continue
		}
		if _, err := c.executor.ExecuteWithCombinedOutput(ctx, c.cephBin, args...); err != nil {
			return err
		}
	}
	return nil
}
