// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/stratastor/deaddiskd/pkg/disk/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repair.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetStateDefaultsToUnscanned(t *testing.T) {
	s := openTestStore(t)

	state, err := s.GetState("/dev/sdz")
	require.NoError(t, err)
	assert.Equal(t, types.Unscanned, state)
}

func TestSaveStateRoundTrips(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveState("/dev/sdb", types.Corrupt))

	state, err := s.GetState("/dev/sdb")
	require.NoError(t, err)
	assert.Equal(t, types.Corrupt, state)
}

func TestSMARTHistoryIsAppendOnly(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveSMARTResults("/dev/sdc", true))
	require.NoError(t, s.SaveSMARTResults("/dev/sdc", false))

	var count int
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSMARTHistory).ForEach(func(k, v []byte) error {
			count++
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	state, err := s.GetState("/dev/sdc")
	require.NoError(t, err)
	assert.Equal(t, types.Unscanned, state, "SMART results must not implicitly change the saved state")
}

func TestTicketLifecycle(t *testing.T) {
	s := openTestStore(t)

	inProgress, err := s.IsDiskInProgress("/dev/sdd")
	require.NoError(t, err)
	assert.False(t, inProgress)

	require.NoError(t, s.RecordNewRepairTicket("TICKET-1", "/dev/sdd"))

	inProgress, err = s.IsDiskInProgress("/dev/sdd")
	require.NoError(t, err)
	assert.True(t, inProgress)

	tickets, err := s.GetOutstandingRepairTickets()
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, "TICKET-1", tickets[0].TicketID)
	assert.Equal(t, "/dev/sdd", tickets[0].DevicePath)

	require.NoError(t, s.ClearTicket("TICKET-1"))

	inProgress, err = s.IsDiskInProgress("/dev/sdd")
	require.NoError(t, err)
	assert.False(t, inProgress)

	tickets, err = s.GetOutstandingRepairTickets()
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestClearUnknownTicketFails(t *testing.T) {
	s := openTestStore(t)
	err := s.ClearTicket("NOPE")
	assert.Error(t, err)
}

func TestMountLocationLatestWins(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveMountLocation("/dev/sde", "/mnt/a"))
	require.NoError(t, s.SaveMountLocation("/dev/sde", "/mnt/b"))

	var mountPoint string
	err := s.db.View(func(tx *bbolt.Tx) error {
		rec, err := s.loadRecord(tx, "/dev/sde")
		if err != nil {
			return err
		}
		mountPoint = rec.LastMountPoint
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "/mnt/b", mountPoint)

	state, err := s.GetState("/dev/sde")
	require.NoError(t, err)
	assert.Equal(t, types.Unscanned, state)
}
