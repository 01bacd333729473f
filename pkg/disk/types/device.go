// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package types

// MediaKind classifies the physical media backing a block device.
type MediaKind string

const (
	MediaRotational MediaKind = "rotational"
	MediaSSD        MediaKind = "ssd"
	MediaNVMe       MediaKind = "nvme"
	MediaLoopback   MediaKind = "loopback"
	MediaLVM        MediaKind = "lvm"
	MediaRam        MediaKind = "ram"
	MediaUnknown    MediaKind = "unknown"
)

// Skip reports whether the enumerator must drop devices of this media kind.
func (m MediaKind) Skip() bool {
	switch m {
	case MediaLoopback, MediaLVM, MediaRam:
		return true
	default:
		return false
	}
}

// FilesystemKind identifies the filesystem format recorded for a device.
type FilesystemKind string

const (
	FilesystemExt2    FilesystemKind = "ext2"
	FilesystemExt3    FilesystemKind = "ext3"
	FilesystemExt4    FilesystemKind = "ext4"
	FilesystemXFS     FilesystemKind = "xfs"
	FilesystemBtrfs   FilesystemKind = "btrfs"
	FilesystemZFS     FilesystemKind = "zfs"
	FilesystemUnknown FilesystemKind = "unknown"
)

// IsExt reports whether the filesystem kind is one of the ext2/3/4 family,
// which share the e2fsck toolchain.
func (f FilesystemKind) IsExt() bool {
	switch f {
	case FilesystemExt2, FilesystemExt3, FilesystemExt4:
		return true
	default:
		return false
	}
}

// Device identifies one block device for the lifetime of a single run.
// It is constructed once by the enumerator and never mutated afterwards;
// two runs against the same hardware must reproduce the same Identity.
type Device struct {
	// Identity is the stable key used for the repair store: the filesystem
	// superblock UUID when present, otherwise the device Path.
	Identity string

	// Path is the kernel device path, e.g. "/dev/sdb".
	Path string

	// Name is the bare kernel name, e.g. "sdb".
	Name string

	Media      MediaKind
	Filesystem FilesystemKind

	CapacityBytes uint64
	Serial        string

	// OrphanMounted marks a device known to the system mount table but no
	// longer reported by the kernel device database — its underlying
	// hardware may have disappeared. Flagged for checking like any other
	// device per the enumerator's merge step.
	OrphanMounted bool
}
