// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package store implements the repair store: a single embedded bbolt
// database file holding three logical tables as buckets — device identity,
// append-only SMART history, and outstanding replacement tickets. All
// writes go through bbolt's serialized Update transactions; reads use View
// and never span a probe invocation.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/stratastor/deaddiskd/pkg/disk/types"
	rterrors "github.com/stratastor/deaddiskd/pkg/errors"
)

var (
	bucketDevices     = []byte("devices")      // device_path -> RepairRecord JSON
	bucketSMARTHistory = []byte("smart_history") // device_path\x00seq -> smartEvent JSON
	bucketTickets     = []byte("tickets")       // ticket_id -> device_path
)

type smartEvent struct {
	Passed    bool  `json:"passed"`
	CheckedAt int64 `json:"checked_at"`
}

// Store is a handle to one open repair store file.
type Store struct {
	db *bbolt.DB
}

// Open creates the schema on first use; subsequent opens are idempotent.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, rterrors.New(rterrors.StoreOpenFailed, path).WithMetadata("error", err.Error())
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDevices, bucketSMARTHistory, bucketTickets} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, rterrors.New(rterrors.StoreSchemaMismatch, path).WithMetadata("error", err.Error())
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) loadRecord(tx *bbolt.Tx, devicePath string) (*types.RepairRecord, error) {
	raw := tx.Bucket(bucketDevices).Get([]byte(devicePath))
	if raw == nil {
		return &types.RepairRecord{DeviceIdentity: devicePath, State: types.Unscanned}, nil
	}
	var rec types.RepairRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, rterrors.New(rterrors.StoreReadFailed, devicePath).WithMetadata("error", err.Error())
	}
	return &rec, nil
}

func (s *Store) saveRecord(tx *bbolt.Tx, rec *types.RepairRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return rterrors.New(rterrors.StoreWriteFailed, rec.DeviceIdentity).WithMetadata("error", err.Error())
	}
	return tx.Bucket(bucketDevices).Put([]byte(rec.DeviceIdentity), raw)
}

// GetState returns the most recently saved state for devicePath, or
// Unscanned if the device has never been seen.
func (s *Store) GetState(devicePath string) (types.State, error) {
	var state types.State
	err := s.db.View(func(tx *bbolt.Tx) error {
		rec, err := s.loadRecord(tx, devicePath)
		if err != nil {
			return err
		}
		state = rec.State
		return nil
	})
	return state, err
}

// SaveState persists the current state for devicePath.
func (s *Store) SaveState(devicePath string, state types.State) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		rec, err := s.loadRecord(tx, devicePath)
		if err != nil {
			return err
		}
		rec.State = state
		return s.saveRecord(tx, rec)
	})
}

// SaveSMARTResults appends a SMART check result to the device's history and
// updates the device record's latest-pass summary.
func (s *Store) SaveSMARTResults(devicePath string, passed bool) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		rec, err := s.loadRecord(tx, devicePath)
		if err != nil {
			return err
		}
		now := time.Now().Unix()
		rec.LastSMARTPassed = passed
		rec.LastSMARTCheckedAt = now
		if err := s.saveRecord(tx, rec); err != nil {
			return err
		}

		hb := tx.Bucket(bucketSMARTHistory)
		seq, err := hb.NextSequence()
		if err != nil {
			return rterrors.New(rterrors.StoreWriteFailed, devicePath).WithMetadata("error", err.Error())
		}
		ev := smartEvent{Passed: passed, CheckedAt: now}
		raw, err := json.Marshal(ev)
		if err != nil {
			return rterrors.New(rterrors.StoreWriteFailed, devicePath).WithMetadata("error", err.Error())
		}
		key := fmt.Sprintf("%s\x00%020d", devicePath, seq)
		return hb.Put([]byte(key), raw)
	})
}

// SaveMountLocation records the device's current mount point; last write wins.
func (s *Store) SaveMountLocation(devicePath, mountPoint string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		rec, err := s.loadRecord(tx, devicePath)
		if err != nil {
			return err
		}
		rec.LastMountPoint = mountPoint
		return s.saveRecord(tx, rec)
	})
}

// IsDiskInProgress reports whether devicePath has an outstanding replacement ticket.
func (s *Store) IsDiskInProgress(devicePath string) (bool, error) {
	var inProgress bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		rec, err := s.loadRecord(tx, devicePath)
		if err != nil {
			return err
		}
		inProgress = rec.InProgress()
		return nil
	})
	return inProgress, err
}

// RecordNewRepairTicket sets devicePath's outstanding ticket id, marking it
// in-progress, and indexes the ticket for GetOutstandingRepairTickets.
func (s *Store) RecordNewRepairTicket(ticketID, devicePath string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		rec, err := s.loadRecord(tx, devicePath)
		if err != nil {
			return err
		}
		rec.OutstandingTicketID = ticketID
		if err := s.saveRecord(tx, rec); err != nil {
			return err
		}
		return tx.Bucket(bucketTickets).Put([]byte(ticketID), []byte(devicePath))
	})
}

// Ticket is one outstanding replacement ticket.
type Ticket struct {
	TicketID   string
	DevicePath string
}

// GetOutstandingRepairTickets lists every open ticket and the device it was
// opened for.
func (s *Store) GetOutstandingRepairTickets() ([]Ticket, error) {
	var tickets []Ticket
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketTickets).ForEach(func(k, v []byte) error {
			tickets = append(tickets, Ticket{TicketID: string(k), DevicePath: string(v)})
			return nil
		})
	})
	return tickets, err
}

// ClearTicket removes ticketID from the outstanding set and clears the
// owning device's in-progress flag. Called once a ticket is resolved and
// the disk has been re-admitted to the cluster.
func (s *Store) ClearTicket(ticketID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		tb := tx.Bucket(bucketTickets)
		devicePath := tb.Get([]byte(ticketID))
		if devicePath == nil {
			return rterrors.New(rterrors.StoreRecordNotFound, ticketID)
		}
		if err := tb.Delete([]byte(ticketID)); err != nil {
			return err
		}

		rec, err := s.loadRecord(tx, string(devicePath))
		if err != nil {
			return err
		}
		rec.OutstandingTicketID = ""
		return s.saveRecord(tx, rec)
	})
}
