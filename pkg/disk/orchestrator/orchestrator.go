// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package orchestrator drives the two workflow operations: pulling newly
// dead disks out of the cluster and filing a ticket for them, and watching
// open tickets for resolution so a replaced disk can be re-admitted. Both
// operations are single-pass; recurring re-invocation is the caller's job.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/stratastor/logger"

	"github.com/stratastor/deaddiskd/pkg/disk/collaborator"
	"github.com/stratastor/deaddiskd/pkg/disk/enumerator"
	"github.com/stratastor/deaddiskd/pkg/disk/store"
	"github.com/stratastor/deaddiskd/pkg/disk/types"
	"github.com/stratastor/deaddiskd/pkg/hostfacts"
)

// EnumeratorRunner is the subset of *enumerator.Enumerator CheckForFailedDisks
// needs. Narrowing to an interface, mirroring collaborator.ClusterBackend and
// collaborator.Ticketing, lets tests drive a fake device sweep instead of a
// real lsblk-backed one.
type EnumeratorRunner interface {
	RunAll(ctx context.Context) ([]enumerator.RunResult, error)
}

// Orchestrator wires the per-device engine sweep to the cluster backend and
// ticketing collaborator.
type Orchestrator struct {
	logger     logger.Logger
	enumerator EnumeratorRunner
	store      *store.Store
	cluster    collaborator.ClusterBackend
	ticketing  collaborator.Ticketing
	facts      *hostfacts.Collector
}

func New(l logger.Logger, en EnumeratorRunner, st *store.Store, cluster collaborator.ClusterBackend, ticketing collaborator.Ticketing, facts *hostfacts.Collector) *Orchestrator {
	return &Orchestrator{
		logger:     l,
		enumerator: en,
		store:      st,
		cluster:    cluster,
		ticketing:  ticketing,
		facts:      facts,
	}
}

// CheckForFailedDisks runs the enumerator's full device sweep, then for
// every device whose engine terminated in WaitingForReplacement and that
// isn't already in the repair queue: removes it from the cluster, opens a
// ticket, and records the ticket in the store. Idempotent across repeated
// invocations via is_disk_in_progress.
func (o *Orchestrator) CheckForFailedDisks(ctx context.Context, simulate bool) error {
	results, err := o.enumerator.RunAll(ctx)
	if err != nil {
		return err
	}

	facts := o.facts.Collect(ctx)

	for _, r := range results {
		if r.Err != nil {
			o.logger.Error("engine run failed", "device", r.Device.Path, "error", r.Err)
			continue
		}
		if r.Result.FinalState != types.WaitingForReplacement {
			continue
		}

		inProgress, err := o.store.IsDiskInProgress(r.Device.Identity)
		if err != nil {
			return err
		}
		if inProgress {
			o.logger.Debug("device already in repair queue", "device", r.Device.Path)
			continue
		}

		o.logger.Info("device needs replacement", "device", r.Device.Path)

		if simulate {
			o.logger.Info("simulate: would remove disk and open a ticket", "device", r.Device.Path)
			continue
		}

		if err := o.cluster.RemoveDisk(ctx, r.Device.Path, simulate); err != nil {
			o.logger.Error("failed to remove disk from cluster", "device", r.Device.Path, "error", err)
			continue
		}

		ticket := collaborator.Ticket{
			Summary:     "Dead disk",
			Description: fmt.Sprintf("A disk on %s failed. Please replace.\nDisk path: %s\nDisk serial: %s", facts.Hostname, r.Device.Path, r.Device.Serial),
			Environment: map[string]string{
				"hostname":     facts.Hostname,
				"server_type":  facts.ProductName,
				"serial":       facts.SerialNumber,
				"architecture": facts.Architecture,
				"kernel":       facts.KernelRelease,
			},
		}

		ticketID, err := o.ticketing.CreateTicket(ctx, ticket)
		if err != nil {
			o.logger.Error("failed to create ticket", "device", r.Device.Path, "error", err)
			continue
		}

		if err := o.store.RecordNewRepairTicket(ticketID, r.Device.Identity); err != nil {
			return err
		}
		o.logger.Info("recorded repair ticket", "ticket", ticketID, "device", r.Device.Path)
	}

	return nil
}

// AddRepairedDisks enumerates outstanding repair tickets and, for any that
// the ticketing collaborator reports resolved, re-admits the device to the
// cluster and clears the ticket.
func (o *Orchestrator) AddRepairedDisks(ctx context.Context, simulate bool) error {
	tickets, err := o.store.GetOutstandingRepairTickets()
	if err != nil {
		return err
	}

	for _, t := range tickets {
		resolved, err := o.ticketing.TicketResolved(ctx, t.TicketID)
		if err != nil {
			o.logger.Error("failed to check ticket status", "ticket", t.TicketID, "error", err)
			continue
		}
		if !resolved {
			continue
		}

		if simulate {
			o.logger.Info("simulate: would re-admit disk and clear ticket", "device", t.DevicePath, "ticket", t.TicketID)
			continue
		}

		if err := o.cluster.AddDisk(ctx, t.DevicePath, simulate); err != nil {
			o.logger.Error("failed to re-admit disk", "device", t.DevicePath, "error", err)
			continue
		}

		if err := o.store.ClearTicket(t.TicketID); err != nil {
			return err
		}
		o.logger.Info("cleared resolved repair ticket", "ticket", t.TicketID, "device", t.DevicePath)
	}

	return nil
}
