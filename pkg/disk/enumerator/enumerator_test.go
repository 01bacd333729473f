// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package enumerator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stratastor/deaddiskd/pkg/disk/types"
)

func TestMediaKindClassification(t *testing.T) {
	tests := []struct {
		name string
		raw  lsblkDevice
		want types.MediaKind
	}{
		{"loop device", lsblkDevice{Type: "loop"}, types.MediaLoopback},
		{"lvm device", lsblkDevice{Type: "lvm"}, types.MediaLVM},
		{"ram device", lsblkDevice{Name: "ram0", Type: "disk"}, types.MediaRam},
		{"nvme transport", lsblkDevice{Type: "disk", Tran: "nvme"}, types.MediaNVMe},
		{"non-rotational", lsblkDevice{Type: "disk", Rota: false}, types.MediaSSD},
		{"rotational", lsblkDevice{Type: "disk", Rota: true}, types.MediaRotational},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mediaKind(tt.raw))
		})
	}
}

func TestSkippedMediaKindsAreDropped(t *testing.T) {
	for _, m := range []types.MediaKind{types.MediaLoopback, types.MediaLVM, types.MediaRam} {
		assert.True(t, m.Skip(), "%s must be skipped", m)
	}
	for _, m := range []types.MediaKind{types.MediaSSD, types.MediaNVMe, types.MediaRotational, types.MediaUnknown} {
		assert.False(t, m.Skip(), "%s must not be skipped", m)
	}
}

func TestFilesystemKindParsing(t *testing.T) {
	tests := map[string]types.FilesystemKind{
		"ext4":       types.FilesystemExt4,
		"XFS":        types.FilesystemXFS,
		"btrfs":      types.FilesystemBtrfs,
		"zfs_member": types.FilesystemZFS,
		"vfat":       types.FilesystemUnknown,
		"":           types.FilesystemUnknown,
	}
	for raw, want := range tests {
		assert.Equal(t, want, filesystemKind(raw), "fstype %q", raw)
	}
}

func TestDeviceFromLsblkPrefersUUIDAsIdentity(t *testing.T) {
	raw := lsblkDevice{Name: "sdb", Path: "/dev/sdb", Type: "disk", UUID: "4b3f1c5e-7d2a-4e9b-9c3a-1f2e3d4c5b6a", Size: "1000", Serial: "SERIAL1"}
	dev := deviceFromLsblk(raw)

	assert.Equal(t, "4b3f1c5e-7d2a-4e9b-9c3a-1f2e3d4c5b6a", dev.Identity)
	assert.Equal(t, "/dev/sdb", dev.Path)
	assert.Equal(t, uint64(1000), dev.CapacityBytes)
	assert.Equal(t, "SERIAL1", dev.Serial)
}

func TestDeviceFromLsblkFallsBackToPathAsIdentity(t *testing.T) {
	raw := lsblkDevice{Name: "sdc", Path: "/dev/sdc", Type: "disk"}
	dev := deviceFromLsblk(raw)
	assert.Equal(t, "/dev/sdc", dev.Identity)
}

// lsblk's UUID column is unvalidated free text; a value that doesn't parse
// as a UUID must not be trusted as the device's stable identity.
func TestDeviceFromLsblkFallsBackToPathOnMalformedUUID(t *testing.T) {
	raw := lsblkDevice{Name: "sdd", Path: "/dev/sdd", Type: "disk", UUID: "not-a-uuid"}
	dev := deviceFromLsblk(raw)
	assert.Equal(t, "/dev/sdd", dev.Identity)
}
