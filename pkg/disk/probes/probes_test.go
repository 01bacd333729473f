// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package probes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratastor/deaddiskd/pkg/disk/types"
	rterrors "github.com/stratastor/deaddiskd/pkg/errors"
)

// scriptedExecutor hands back a canned outcome per command name instead of
// shelling out, so a probe's exit-code branching can be driven directly.
type scriptedExecutor struct {
	outcomes map[string]scriptedOutcome
	calls    []string
}

type scriptedOutcome struct {
	output   string
	exitCode int
	rawErr   error // a non-RemediatorError, i.e. the command never ran at all
}

func (s *scriptedExecutor) ExecuteWithCombinedOutput(ctx context.Context, cmd string, args ...string) ([]byte, error) {
	s.calls = append(s.calls, cmd)

	o, ok := s.outcomes[cmd]
	if !ok {
		return nil, errors.New("scriptedExecutor: no outcome configured for " + cmd)
	}
	if o.rawErr != nil {
		return nil, o.rawErr
	}
	if o.exitCode == 0 {
		return []byte(o.output), nil
	}
	return []byte(o.output), rterrors.NewCommandError(cmd, o.exitCode, o.output)
}

// --- SMART (S1/S3 scenarios) ---

func TestSMARTPasses(t *testing.T) {
	exec := &scriptedExecutor{outcomes: map[string]scriptedOutcome{
		"smartctl": {exitCode: 0},
	}}
	passed, err := SMART(context.Background(), exec, Paths{}, "/dev/sdb")
	require.NoError(t, err)
	assert.True(t, passed)
}

func TestSMARTReportsDiskFailing(t *testing.T) {
	exec := &scriptedExecutor{outcomes: map[string]scriptedOutcome{
		"smartctl": {exitCode: 0x8}, // bit 3: disk failing
	}}
	passed, err := SMART(context.Background(), exec, Paths{}, "/dev/sdb")
	require.NoError(t, err)
	assert.False(t, passed)
}

func TestSMARTDeviceUnreachableByExitBit(t *testing.T) {
	exec := &scriptedExecutor{outcomes: map[string]scriptedOutcome{
		"smartctl": {exitCode: 0x20}, // bit 5: device open failed
	}}
	_, err := SMART(context.Background(), exec, Paths{}, "/dev/sdb")
	requireCode(t, err, rterrors.ProbeDeviceUnreachable)
}

func TestSMARTUnsupportedByOutput(t *testing.T) {
	exec := &scriptedExecutor{outcomes: map[string]scriptedOutcome{
		"smartctl": {exitCode: 0x2, output: "SMART support is: Unavailable"},
	}}
	_, err := SMART(context.Background(), exec, Paths{}, "/dev/sdb")
	requireCode(t, err, rterrors.ProbeSMARTUnsupported)
}

func TestSMARTUnreachableWhenExecutorNeverRan(t *testing.T) {
	exec := &scriptedExecutor{outcomes: map[string]scriptedOutcome{
		"smartctl": {rawErr: errors.New("exec: \"smartctl\": executable file not found in $PATH")},
	}}
	_, err := SMART(context.Background(), exec, Paths{}, "/dev/sdb")
	requireCode(t, err, rterrors.ProbeDeviceUnreachable)
}

// --- FilesystemCheck (S2 corruption detection) ---

func TestFilesystemCheckExtClean(t *testing.T) {
	exec := &scriptedExecutor{outcomes: map[string]scriptedOutcome{
		"e2fsck": {exitCode: 0},
	}}
	err := FilesystemCheck(context.Background(), exec, Paths{}, &types.Device{Path: "/dev/sdb", Filesystem: types.FilesystemExt4})
	require.NoError(t, err)
}

func TestFilesystemCheckExtCorrupt(t *testing.T) {
	exec := &scriptedExecutor{outcomes: map[string]scriptedOutcome{
		"e2fsck": {exitCode: 4},
	}}
	err := FilesystemCheck(context.Background(), exec, Paths{}, &types.Device{Path: "/dev/sdb", Filesystem: types.FilesystemExt4})
	requireCode(t, err, rterrors.ProbeCorruption)
}

func TestFilesystemCheckExtToolFailure(t *testing.T) {
	exec := &scriptedExecutor{outcomes: map[string]scriptedOutcome{
		"e2fsck": {exitCode: 16},
	}}
	err := FilesystemCheck(context.Background(), exec, Paths{}, &types.Device{Path: "/dev/sdb", Filesystem: types.FilesystemExt4})
	requireCode(t, err, rterrors.ProbeToolFailed)
}

func TestFilesystemCheckXFSClean(t *testing.T) {
	exec := &scriptedExecutor{outcomes: map[string]scriptedOutcome{
		"xfs_repair": {exitCode: 0},
	}}
	err := FilesystemCheck(context.Background(), exec, Paths{}, &types.Device{Path: "/dev/sdc", Filesystem: types.FilesystemXFS})
	require.NoError(t, err)
}

func TestFilesystemCheckXFSCorrupt(t *testing.T) {
	exec := &scriptedExecutor{outcomes: map[string]scriptedOutcome{
		"xfs_repair": {exitCode: 1},
	}}
	err := FilesystemCheck(context.Background(), exec, Paths{}, &types.Device{Path: "/dev/sdc", Filesystem: types.FilesystemXFS})
	requireCode(t, err, rterrors.ProbeCorruption)
}

func TestFilesystemCheckUnreachableTool(t *testing.T) {
	exec := &scriptedExecutor{outcomes: map[string]scriptedOutcome{
		"e2fsck": {rawErr: errors.New("exec: \"e2fsck\": executable file not found in $PATH")},
	}}
	err := FilesystemCheck(context.Background(), exec, Paths{}, &types.Device{Path: "/dev/sdb", Filesystem: types.FilesystemExt4})
	requireCode(t, err, rterrors.ProbeToolFailed)
}

func TestFilesystemCheckUnknownFilesystem(t *testing.T) {
	exec := &scriptedExecutor{}
	err := FilesystemCheck(context.Background(), exec, Paths{}, &types.Device{Path: "/dev/sdd", Filesystem: types.FilesystemUnknown})
	requireCode(t, err, rterrors.ProbeUnknownFilesystem)
	assert.Empty(t, exec.calls, "unknown filesystem kind must not shell out")
}

// --- FilesystemRepair (S2/S3 repair attempt) ---

func TestFilesystemRepairExtSucceedsOnDocumentedCodes(t *testing.T) {
	for _, c := range []int{0, 1, 2} {
		exec := &scriptedExecutor{outcomes: map[string]scriptedOutcome{
			"e2fsck": {exitCode: c},
		}}
		err := FilesystemRepair(context.Background(), exec, Paths{}, &types.Device{Path: "/dev/sdb", Filesystem: types.FilesystemExt4})
		assert.NoErrorf(t, err, "exit code %d should be treated as a successful repair", c)
	}
}

func TestFilesystemRepairExtFailsOnSevereErrors(t *testing.T) {
	exec := &scriptedExecutor{outcomes: map[string]scriptedOutcome{
		"e2fsck": {exitCode: 8},
	}}
	err := FilesystemRepair(context.Background(), exec, Paths{}, &types.Device{Path: "/dev/sdb", Filesystem: types.FilesystemExt4})
	requireCode(t, err, rterrors.ProbeRepairFailed)
}

func TestFilesystemRepairXFSFailure(t *testing.T) {
	exec := &scriptedExecutor{outcomes: map[string]scriptedOutcome{
		"xfs_repair": {exitCode: 1},
	}}
	err := FilesystemRepair(context.Background(), exec, Paths{}, &types.Device{Path: "/dev/sdc", Filesystem: types.FilesystemXFS})
	requireCode(t, err, rterrors.ProbeRepairFailed)
}

// --- Reformat (S3 last resort) ---

func TestReformatSucceeds(t *testing.T) {
	exec := &scriptedExecutor{outcomes: map[string]scriptedOutcome{
		"mkfs.ext4": {exitCode: 0},
	}}
	err := Reformat(context.Background(), exec, Paths{}, &types.Device{Path: "/dev/zzz-not-a-real-device", Filesystem: types.FilesystemExt4})
	require.NoError(t, err)
}

func TestReformatFails(t *testing.T) {
	exec := &scriptedExecutor{outcomes: map[string]scriptedOutcome{
		"mkfs.ext4": {exitCode: 1},
	}}
	err := Reformat(context.Background(), exec, Paths{}, &types.Device{Path: "/dev/zzz-not-a-real-device", Filesystem: types.FilesystemExt4})
	requireCode(t, err, rterrors.ProbeReformatFailed)
}

// --- Mount / Remount ---

func TestMountCreatesTempDirAndMounts(t *testing.T) {
	exec := &scriptedExecutor{outcomes: map[string]scriptedOutcome{
		"mount": {exitCode: 0},
	}}
	mountPoint, err := Mount(context.Background(), exec, Paths{}, t.TempDir(), "/dev/zzz-not-a-real-device")
	require.NoError(t, err)
	assert.NotEmpty(t, mountPoint)
}

func TestMountFailure(t *testing.T) {
	exec := &scriptedExecutor{outcomes: map[string]scriptedOutcome{
		"mount": {exitCode: 32},
	}}
	_, err := Mount(context.Background(), exec, Paths{}, t.TempDir(), "/dev/zzz-not-a-real-device")
	requireCode(t, err, rterrors.ProbeMountFailed)
}

func TestRemountFailure(t *testing.T) {
	exec := &scriptedExecutor{outcomes: map[string]scriptedOutcome{
		"mount": {exitCode: 1},
	}}
	err := Remount(context.Background(), exec, Paths{}, t.TempDir())
	requireCode(t, err, rterrors.ProbeMountFailed)
}

func requireCode(t *testing.T, err error, want rterrors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	got, ok := rterrors.GetCode(err)
	require.True(t, ok, "expected a *RemediatorError, got %T: %v", err, err)
	assert.Equal(t, want, got)
}
