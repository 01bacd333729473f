// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"

	"github.com/stratastor/deaddiskd/pkg/disk/probes"
	"github.com/stratastor/deaddiskd/pkg/disk/types"
	rterrors "github.com/stratastor/deaddiskd/pkg/errors"
)

// actionScan runs a SMART health check and records the result. From
// Unscanned only.
func (e *Engine) actionScan(ctx context.Context) (types.State, error) {
	passed, err := probes.SMART(ctx, e.executor, e.probes, e.device.Path)
	if err != nil {
		e.logger.Warn("smart check failed", "device", e.device.Path, "error", err)
		return types.Fail, nil
	}

	if serr := e.store.SaveSMARTResults(e.device.Identity, passed); serr != nil {
		return types.Fail, serr
	}

	if !passed {
		return types.Fail, nil
	}
	return types.Scanned, nil
}

// actionEval decides whether a scanned device is usable: mount it if it
// isn't already mounted, then probe writability. From Scanned only.
func (e *Engine) actionEval(ctx context.Context) (types.State, error) {
	mountPoint, err := probes.CurrentMountPoint(e.device.Path)
	if err != nil {
		return types.Fail, err
	}

	if mountPoint == "" {
		mountPoint, err = probes.Mount(ctx, e.executor, e.probes, "", e.device.Path)
		if err != nil {
			return types.NotMounted, nil
		}
	}

	if err := e.store.SaveMountLocation(e.device.Identity, mountPoint); err != nil {
		return types.Fail, err
	}

	if err := probes.Writability(mountPoint); err != nil {
		return types.WriteFailed, nil
	}
	return types.Good, nil
}

// actionMount mounts a not-yet-mounted device. From NotMounted only.
func (e *Engine) actionMount(ctx context.Context) (types.State, error) {
	mountPoint, err := probes.Mount(ctx, e.executor, e.probes, "", e.device.Path)
	if err != nil {
		return types.MountFailed, nil
	}
	if err := e.store.SaveMountLocation(e.device.Identity, mountPoint); err != nil {
		return types.Fail, err
	}
	return types.Mounted, nil
}

// actionRemount retries mounting a device that was found read-only. From
// ReadOnly only.
func (e *Engine) actionRemount(ctx context.Context) (types.State, error) {
	mountPoint, err := probes.CurrentMountPoint(e.device.Path)
	if err != nil || mountPoint == "" {
		return types.MountFailed, nil
	}
	if err := probes.Remount(ctx, e.executor, e.probes, mountPoint); err != nil {
		return types.MountFailed, nil
	}
	return types.Mounted, nil
}

// actionCheckForCorruption runs a filesystem consistency check. The
// registry dispatches it from WriteFailed and MountFailed. declaredTo is the
// dispatched edge's destination and is returned unchanged when the check
// finds no corruption.
func (e *Engine) actionCheckForCorruption(ctx context.Context, declaredTo types.State) (types.State, error) {
	err := probes.FilesystemCheck(ctx, e.executor, e.probes, e.device)
	if err == nil {
		return declaredTo, nil
	}
	if code, ok := rterrors.GetCode(err); ok && code == rterrors.ProbeCorruption {
		return types.Corrupt, nil
	}
	return types.Fail, nil
}

// actionAttemptRepair runs an in-place filesystem repair. From Corrupt only.
func (e *Engine) actionAttemptRepair(ctx context.Context) (types.State, error) {
	if err := probes.FilesystemRepair(ctx, e.executor, e.probes, e.device); err != nil {
		return types.RepairFailed, nil
	}
	return types.Repaired, nil
}

// actionReformat lays down a fresh filesystem. From RepairFailed only.
func (e *Engine) actionReformat(ctx context.Context) (types.State, error) {
	if err := probes.Reformat(ctx, e.executor, e.probes, e.device); err != nil {
		return types.ReformatFailed, nil
	}
	return types.Reformatted, nil
}

// actionMarkForReplacement flags a device as needing a human to swap it.
// Accepts from either WornOut or Corrupt, per the guard documented for this
// action: a device may be pulled out of service either because its wear
// leveling budget is spent or because repeated corruption makes it
// untrustworthy even after a successful repair cycle.
func (e *Engine) actionMarkForReplacement(from, to types.State) (types.State, error) {
	if from != types.WornOut && from != types.Corrupt {
		return types.Fail, nil
	}
	return to, nil
}
