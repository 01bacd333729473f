// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package errors

import "maps"

// Device Probe Errors (2300-2399)
const (
	ProbeDeviceUnreachable = 2300 + iota // Device cannot be opened
	ProbeSMARTUnsupported                // SMART not supported on this device
	ProbeUnknownFilesystem               // Filesystem kind has no known probe
	ProbeToolFailed                      // Probe subprocess returned a non-diagnostic exit
	ProbeCorruption                      // Filesystem check reported uncorrected errors
	ProbeInterrupted                     // Probe subprocess was killed by a signal
	ProbeRepairFailed                    // Filesystem repair subprocess failed
	ProbeReformatFailed                  // mkfs subprocess failed
	ProbeMountFailed                     // mount subprocess failed
	ProbeWriteFailed                     // Writability probe failed
)

// Repair Store Errors (2400-2499)
const (
	StoreOpenFailed = 2400 + iota // Failed to open or create the store file
	StoreSchemaMismatch           // Stored schema version is incompatible
	StoreReadFailed               // I/O failure reading a record
	StoreWriteFailed              // I/O failure writing a record
	StoreRecordNotFound           // No record for the requested device
)

// Collaborator Errors (2500-2599): ticketing and cluster backend
const (
	CollaboratorCreateTicketFailed = 2500 + iota
	CollaboratorTicketStatusFailed
	CollaboratorRemoveDiskFailed
	CollaboratorAddDiskFailed
)

func init() {
	diskErrorDefinitions := map[ErrorCode]errorDefinition{
		ProbeDeviceUnreachable: {"device cannot be opened", DomainProbe},
		ProbeSMARTUnsupported:  {"SMART not supported on device", DomainProbe},
		ProbeUnknownFilesystem: {"unknown filesystem kind", DomainProbe},
		ProbeToolFailed:        {"probe subprocess failed", DomainProbe},
		ProbeCorruption:        {"filesystem check reported uncorrected errors", DomainProbe},
		ProbeInterrupted:       {"probe subprocess was interrupted by a signal", DomainProbe},
		ProbeRepairFailed:      {"filesystem repair failed", DomainProbe},
		ProbeReformatFailed:    {"filesystem reformat failed", DomainProbe},
		ProbeMountFailed:       {"mount failed", DomainProbe},
		ProbeWriteFailed:       {"writability probe failed", DomainProbe},

		StoreOpenFailed:     {"failed to open repair store", DomainStore},
		StoreSchemaMismatch: {"repair store schema mismatch", DomainStore},
		StoreReadFailed:     {"failed to read repair store record", DomainStore},
		StoreWriteFailed:    {"failed to write repair store record", DomainStore},
		StoreRecordNotFound: {"no repair record for device", DomainStore},

		CollaboratorCreateTicketFailed: {"failed to create support ticket", DomainCollaborator},
		CollaboratorTicketStatusFailed: {"failed to check ticket status", DomainCollaborator},
		CollaboratorRemoveDiskFailed:   {"cluster backend failed to remove disk", DomainCollaborator},
		CollaboratorAddDiskFailed:      {"cluster backend failed to add disk", DomainCollaborator},
	}

	maps.Copy(errorDefinitions, diskErrorDefinitions)
}
