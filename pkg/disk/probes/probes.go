// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package probes implements the pure device-inspection and repair routines
// the engine's actions invoke: SMART, filesystem check/repair/reformat,
// mount/remount, and a writability check. Every probe shells out to a
// single external tool and maps its exit status to a declared result; none
// of them touch the repair store.
package probes

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/stratastor/deaddiskd/internal/command"
	rterrors "github.com/stratastor/deaddiskd/pkg/errors"
	"github.com/stratastor/deaddiskd/pkg/disk/types"
)

// Paths locates the external binaries the probes invoke.
type Paths struct {
	Smartctl  string
	E2fsck    string
	XFSRepair string
	Mkfs      string
	Mount     string
}

// Executor is the subset of command.CommandExecutor the probes need.
// Narrowing to an interface lets tests substitute a scripted executor
// instead of shelling out to real tools.
type Executor interface {
	ExecuteWithCombinedOutput(ctx context.Context, cmd string, args ...string) ([]byte, error)
}

// SMART runs a SMART health check against device and reports whether it
// passed. It fails with ProbeDeviceUnreachable / ProbeSMARTUnsupported
// rather than ever reporting a false "pass" or "fail" for those cases.
func SMART(ctx context.Context, exec Executor, paths Paths, devicePath string) (bool, error) {
	bin := paths.Smartctl
	if bin == "" {
		bin = "smartctl"
	}

	out, err := exec.ExecuteWithCombinedOutput(ctx, bin, "-H", devicePath)
	code, signaled, ok := command.ExitCode(err)
	if !ok {
		return false, rterrors.New(rterrors.ProbeDeviceUnreachable, devicePath).WithMetadata("error", err.Error())
	}
	if signaled {
		return false, rterrors.New(rterrors.ProbeInterrupted, devicePath)
	}

	outStr := string(out)
	switch {
	case code == 0:
		return true, nil
	case code&0x20 != 0: // bit 5: device open failed, smartctl unable to check status
		return false, rterrors.New(rterrors.ProbeDeviceUnreachable, devicePath)
	case strings.Contains(strings.ToLower(outStr), "unsupported") || strings.Contains(strings.ToLower(outStr), "unavailable"):
		return false, rterrors.New(rterrors.ProbeSMARTUnsupported, devicePath)
	case code&0x8 != 0: // bit 3: disk failing
		return false, nil
	default:
		return false, rterrors.New(rterrors.ProbeToolFailed, devicePath).WithMetadata("exit_code", fmt.Sprintf("%d", code))
	}
}

// FilesystemCheck dispatches on the device's recorded filesystem kind and
// returns nil for a clean filesystem, a ProbeCorruption error for detected
// corruption, a ProbeInterrupted error if the tool was killed by a signal,
// or a ProbeToolFailed/ProbeUnknownFilesystem error otherwise.
func FilesystemCheck(ctx context.Context, exec Executor, paths Paths, dev *types.Device) error {
	switch {
	case dev.Filesystem.IsExt():
		bin := paths.E2fsck
		if bin == "" {
			bin = "e2fsck"
		}
		_, err := exec.ExecuteWithCombinedOutput(ctx, bin, "-n", dev.Path)
		code, signaled, ok := command.ExitCode(err)
		if !ok {
			return rterrors.New(rterrors.ProbeToolFailed, dev.Path).WithMetadata("error", err.Error())
		}
		if signaled {
			return rterrors.New(rterrors.ProbeInterrupted, dev.Path)
		}
		switch code {
		case 0:
			return nil
		case 4:
			return rterrors.New(rterrors.ProbeCorruption, dev.Path)
		default:
			return rterrors.New(rterrors.ProbeToolFailed, dev.Path).WithMetadata("exit_code", fmt.Sprintf("%d", code))
		}

	case dev.Filesystem == types.FilesystemXFS:
		bin := paths.XFSRepair
		if bin == "" {
			bin = "xfs_repair"
		}
		_, err := exec.ExecuteWithCombinedOutput(ctx, bin, "-n", dev.Path)
		code, signaled, ok := command.ExitCode(err)
		if !ok {
			return rterrors.New(rterrors.ProbeToolFailed, dev.Path).WithMetadata("error", err.Error())
		}
		if signaled {
			return rterrors.New(rterrors.ProbeInterrupted, dev.Path)
		}
		switch code {
		case 0:
			return nil
		case 1:
			return rterrors.New(rterrors.ProbeCorruption, dev.Path)
		default:
			return rterrors.New(rterrors.ProbeToolFailed, dev.Path).WithMetadata("exit_code", fmt.Sprintf("%d", code))
		}

	default:
		return rterrors.New(rterrors.ProbeUnknownFilesystem, string(dev.Filesystem))
	}
}

// FilesystemRepair runs an in-place, non-interactive repair. Idempotent: a
// repair invoked on an already-clean filesystem succeeds trivially.
func FilesystemRepair(ctx context.Context, exec Executor, paths Paths, dev *types.Device) error {
	switch {
	case dev.Filesystem.IsExt():
		bin := paths.E2fsck
		if bin == "" {
			bin = "e2fsck"
		}
		_, err := exec.ExecuteWithCombinedOutput(ctx, bin, "-p", dev.Path)
		code, signaled, ok := command.ExitCode(err)
		if !ok || signaled {
			return rterrors.New(rterrors.ProbeRepairFailed, dev.Path)
		}
		if code == 0 || code == 1 || code == 2 {
			return nil
		}
		return rterrors.New(rterrors.ProbeRepairFailed, dev.Path).WithMetadata("exit_code", fmt.Sprintf("%d", code))

	case dev.Filesystem == types.FilesystemXFS:
		bin := paths.XFSRepair
		if bin == "" {
			bin = "xfs_repair"
		}
		_, err := exec.ExecuteWithCombinedOutput(ctx, bin, dev.Path)
		code, signaled, ok := command.ExitCode(err)
		if !ok || signaled || code != 0 {
			return rterrors.New(rterrors.ProbeRepairFailed, dev.Path)
		}
		return nil

	default:
		return rterrors.New(rterrors.ProbeUnknownFilesystem, string(dev.Filesystem))
	}
}

// Reformat lays down a fresh filesystem of dev's recorded kind. Refuses to
// run against a currently-mounted device.
func Reformat(ctx context.Context, exec Executor, paths Paths, dev *types.Device) error {
	if mounted, _ := CurrentMountPoint(dev.Path); mounted != "" {
		return rterrors.New(rterrors.ProbeReformatFailed, dev.Path).WithMetadata("reason", "device is mounted")
	}

	mkfsBin := paths.Mkfs
	if mkfsBin == "" {
		mkfsBin = fmt.Sprintf("mkfs.%s", dev.Filesystem)
	}

	_, err := exec.ExecuteWithCombinedOutput(ctx, mkfsBin, "-f", dev.Path)
	if code, signaled, ok := command.ExitCode(err); !ok || signaled || code != 0 {
		return rterrors.New(rterrors.ProbeReformatFailed, dev.Path).WithMetadata("error", errString(err))
	}
	return nil
}

// Mount creates a fresh temporary directory under base and mounts device
// there, idempotently: if the device is already mounted, its existing
// mount point is returned unchanged.
func Mount(ctx context.Context, exec Executor, paths Paths, base, devicePath string) (string, error) {
	if existing, _ := CurrentMountPoint(devicePath); existing != "" {
		return existing, nil
	}

	if base == "" {
		base = os.TempDir()
	}
	mountPoint, err := os.MkdirTemp(base, "deaddiskd-")
	if err != nil {
		return "", rterrors.New(rterrors.ProbeMountFailed, devicePath).WithMetadata("error", err.Error())
	}

	bin := paths.Mount
	if bin == "" {
		bin = "mount"
	}
	_, err = exec.ExecuteWithCombinedOutput(ctx, bin, devicePath, mountPoint)
	if code, signaled, ok := command.ExitCode(err); !ok || signaled || code != 0 {
		return "", rterrors.New(rterrors.ProbeMountFailed, devicePath).WithMetadata("error", errString(err))
	}
	return mountPoint, nil
}

// Remount issues mount -o remount against an already-mounted device's
// current mount point.
func Remount(ctx context.Context, exec Executor, paths Paths, mountPoint string) error {
	bin := paths.Mount
	if bin == "" {
		bin = "mount"
	}
	_, err := exec.ExecuteWithCombinedOutput(ctx, bin, "-o", "remount", mountPoint)
	if code, signaled, ok := command.ExitCode(err); !ok || signaled || code != 0 {
		return rterrors.New(rterrors.ProbeMountFailed, mountPoint).WithMetadata("error", errString(err))
	}
	return nil
}

// Writability creates a subdirectory under mountPoint, writes a small file
// in create-exclusive mode, and cleans up regardless of outcome.
func Writability(mountPoint string) error {
	dir, err := os.MkdirTemp(mountPoint, "writetest-")
	if err != nil {
		return rterrors.New(rterrors.ProbeWriteFailed, mountPoint).WithMetadata("error", err.Error())
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "probe")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return rterrors.New(rterrors.ProbeWriteFailed, mountPoint).WithMetadata("error", err.Error())
	}
	defer f.Close()

	if _, err := f.Write([]byte("deaddiskd-writability-probe\n")); err != nil {
		return rterrors.New(rterrors.ProbeWriteFailed, mountPoint).WithMetadata("error", err.Error())
	}
	return nil
}

// CurrentMountPoint reports the mount point currently recorded for
// devicePath in /proc/mounts, or "" if the device is not mounted.
func CurrentMountPoint(devicePath string) (string, error) {
	f, err := os.Open("/proc/mounts")
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		if fields[0] == devicePath {
			return fields[1], nil
		}
	}
	return "", scanner.Err()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
