// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package enumerator discovers the block devices a run must consider: every
// disk lsblk reports, minus loopback/LVM/RAM media, plus any device still
// present in the live mount table but no longer reported by the kernel's
// device database (orphan-mounted), merged by device path. It then drives
// one engine per device concurrently and collects their results.
package enumerator

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/stratastor/logger"

	"github.com/stratastor/deaddiskd/internal/command"
	"github.com/stratastor/deaddiskd/pkg/disk/engine"
	"github.com/stratastor/deaddiskd/pkg/disk/probes"
	"github.com/stratastor/deaddiskd/pkg/disk/store"
	"github.com/stratastor/deaddiskd/pkg/disk/transitions"
	"github.com/stratastor/deaddiskd/pkg/disk/types"
	rterrors "github.com/stratastor/deaddiskd/pkg/errors"
)

// lsblkOutput is the shape of `lsblk --json -b -o ...` output this package
// parses; lsblk nests partitions under children. The remediator operates on
// whole disks, so children are only used to tell reported devices apart
// from orphan mounts.
type lsblkOutput struct {
	BlockDevices []lsblkDevice `json:"blockdevices"`
}

type lsblkDevice struct {
	Name       string        `json:"name"`
	Path       string        `json:"path"`
	Type       string        `json:"type"`
	Rota       bool          `json:"rota"`
	Size       string        `json:"size"`
	FSType     string        `json:"fstype"`
	UUID       string        `json:"uuid"`
	Serial     string        `json:"serial"`
	Mountpoint string        `json:"mountpoint"`
	Tran       string        `json:"tran"`
	Children   []lsblkDevice `json:"children,omitempty"`
}

// Enumerator discovers and probes every relevant device on the host.
type Enumerator struct {
	logger   logger.Logger
	executor *command.CommandExecutor
	store    *store.Store
	registry *transitions.Registry
	probes   probes.Paths
	simulate bool

	lsblkPath string
}

func New(l logger.Logger, st *store.Store, probePaths probes.Paths, simulate bool) *Enumerator {
	return &Enumerator{
		logger:    l,
		executor:  command.NewCommandExecutor(true),
		store:     st,
		registry:  transitions.NewRegistry(),
		probes:    probePaths,
		simulate:  simulate,
		lsblkPath: "lsblk",
	}
}

// Discover lists every device this run must consider: the kernel's block
// device table, minus skipped media kinds, plus any orphan-mounted device
// still live in /proc/mounts but absent from the kernel table.
func (en *Enumerator) Discover(ctx context.Context) ([]*types.Device, error) {
	out, err := en.executor.ExecuteWithCombinedOutput(ctx, en.lsblkPath,
		"--json", "-b", "-o", "NAME,PATH,TYPE,ROTA,SIZE,FSTYPE,UUID,SERIAL,MOUNTPOINT,TRAN")
	if err != nil {
		return nil, rterrors.New(rterrors.ProbeToolFailed, "lsblk").WithMetadata("error", err.Error())
	}

	var parsed lsblkOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, rterrors.New(rterrors.ProbeToolFailed, "lsblk").WithMetadata("error", err.Error())
	}

	byPath := make(map[string]*types.Device)
	for _, raw := range parsed.BlockDevices {
		if raw.Type != "disk" {
			continue
		}
		dev := deviceFromLsblk(raw)
		if dev.Media.Skip() {
			en.logger.Debug("skipping device by media kind", "device", dev.Path, "media", dev.Media)
			continue
		}
		byPath[dev.Path] = dev
	}

	// Every path lsblk reported (partitions and skipped media included) is
	// known to the kernel's device table and so is never an orphan.
	reported := make(map[string]*types.Device)
	var collect func([]lsblkDevice)
	collect = func(devs []lsblkDevice) {
		for _, d := range devs {
			reported[d.Path] = byPath[d.Path]
			collect(d.Children)
		}
	}
	collect(parsed.BlockDevices)

	orphans, err := en.orphanMountedDevices(reported)
	if err != nil {
		en.logger.Warn("failed to scan mount table for orphans", "error", err)
	}
	for path, dev := range orphans {
		byPath[path] = dev
	}

	devices := make([]*types.Device, 0, len(byPath))
	for _, dev := range byPath {
		devices = append(devices, dev)
	}
	return devices, nil
}

// orphanMountedDevices returns devices present in /proc/mounts but absent
// from known. Their hardware may have disappeared entirely; they are still
// run through the engine so a vanished disk is scanned and can progress
// toward WaitingForReplacement rather than being silently ignored.
func (en *Enumerator) orphanMountedDevices(known map[string]*types.Device) (map[string]*types.Device, error) {
	f, err := os.Open("/proc/mounts")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	orphans := make(map[string]*types.Device)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		path := fields[0]
		if !strings.HasPrefix(path, "/dev/") {
			continue
		}
		if _, ok := known[path]; ok {
			continue
		}
		orphans[path] = &types.Device{
			Identity:      path,
			Path:          path,
			Name:          strings.TrimPrefix(path, "/dev/"),
			Media:         types.MediaUnknown,
			Filesystem:    types.FilesystemUnknown,
			OrphanMounted: true,
		}
	}
	return orphans, scanner.Err()
}

// deviceIdentity returns the filesystem-superblock UUID lsblk reported, or
// the device path when lsblk has none (not yet formatted, or the blkid
// probe failed). lsblk's UUID column is free-form text, not validated by
// the kernel, so a malformed value (truncated output, a non-UUID label some
// filesystems store there) is treated the same as absent rather than
// trusted as a stable key.
func deviceIdentity(raw lsblkDevice) string {
	if raw.UUID == "" {
		return raw.Path
	}
	id, err := uuid.Parse(raw.UUID)
	if err != nil {
		return raw.Path
	}
	return id.String()
}

func deviceFromLsblk(raw lsblkDevice) *types.Device {
	identity := deviceIdentity(raw)

	size, _ := strconv.ParseUint(raw.Size, 10, 64)

	dev := &types.Device{
		Identity:      identity,
		Path:          raw.Path,
		Name:          raw.Name,
		Media:         mediaKind(raw),
		Filesystem:    filesystemKind(raw.FSType),
		CapacityBytes: size,
		Serial:        raw.Serial,
	}
	return dev
}

func mediaKind(raw lsblkDevice) types.MediaKind {
	switch {
	case raw.Type == "loop":
		return types.MediaLoopback
	case raw.Type == "lvm":
		return types.MediaLVM
	case strings.HasPrefix(raw.Name, "ram"):
		return types.MediaRam
	case raw.Tran == "nvme":
		return types.MediaNVMe
	case !raw.Rota:
		return types.MediaSSD
	case raw.Rota:
		return types.MediaRotational
	default:
		return types.MediaUnknown
	}
}

func filesystemKind(fstype string) types.FilesystemKind {
	switch strings.ToLower(fstype) {
	case "ext2":
		return types.FilesystemExt2
	case "ext3":
		return types.FilesystemExt3
	case "ext4":
		return types.FilesystemExt4
	case "xfs":
		return types.FilesystemXFS
	case "btrfs":
		return types.FilesystemBtrfs
	case "zfs_member":
		return types.FilesystemZFS
	default:
		return types.FilesystemUnknown
	}
}

// RunResult pairs a device with its engine outcome, or the error that
// prevented its engine from completing.
type RunResult struct {
	Device *types.Device
	Result *engine.Result
	Err    error
}

// RunAll discovers every relevant device and drives one engine per device
// concurrently, returning every device's outcome. Unlike a fire-and-forget
// sweep, the per-device results are always returned to the caller so the
// orchestrator can act on exactly which devices ended in
// WaitingForReplacement this run.
func (en *Enumerator) RunAll(ctx context.Context) ([]RunResult, error) {
	devices, err := en.Discover(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]RunResult, len(devices))
	var wg sync.WaitGroup
	for i, dev := range devices {
		wg.Add(1)
		go func(i int, dev *types.Device) {
			defer wg.Done()
			e := engine.New(dev, en.store, en.registry, en.probes, en.logger, en.simulate)
			result, err := e.Run(ctx)
			results[i] = RunResult{Device: dev, Result: result, Err: err}
		}(i, dev)
	}
	wg.Wait()

	return results, nil
}

// DeviceIdentities renders each device as "identity(path)", in the order
// the devices are given.
func DeviceIdentities(devices []*types.Device) []string {
	ids := make([]string, 0, len(devices))
	for _, d := range devices {
		ids = append(ids, fmt.Sprintf("%s(%s)", d.Identity, d.Path))
	}
	return ids
}
