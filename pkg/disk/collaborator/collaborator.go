// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package collaborator defines the two external touchpoints the workflow
// orchestrator drives: the storage cluster (to pull a device out of service
// and re-admit it once replaced) and a ticketing system (to hand the
// physical swap to a human and learn when they're done).
package collaborator

import "context"

// ClusterBackend removes a failed device from the storage cluster and
// re-admits its replacement. Implementation is cluster-kind specific;
// selected from configuration.
type ClusterBackend interface {
	RemoveDisk(ctx context.Context, devicePath string, simulate bool) error
	AddDisk(ctx context.Context, devicePath string, simulate bool) error
}

// Ticket is the information the orchestrator hands off when opening a
// replacement ticket.
type Ticket struct {
	Summary     string
	Description string
	Environment map[string]string
}

// Ticketing opens a replacement ticket for a human and reports when it has
// been marked resolved.
type Ticketing interface {
	CreateTicket(ctx context.Context, t Ticket) (ticketID string, err error)
	TicketResolved(ctx context.Context, ticketID string) (bool, error)
}
