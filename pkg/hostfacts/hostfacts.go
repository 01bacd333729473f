// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package hostfacts collects the small set of host identity facts that go
// into a replacement ticket body: which machine, which kernel, which chassis
// serial. It does not collect performance or capacity telemetry.
package hostfacts

import (
	"context"
	"runtime"
	"strings"

	"github.com/stratastor/logger"

	"github.com/stratastor/deaddiskd/internal/command"
)

// Facts is the host identity snapshot attached to every replacement ticket.
type Facts struct {
	Hostname     string `json:"hostname"`
	KernelRelease string `json:"kernel_release"`
	Architecture string `json:"architecture"`
	Manufacturer string `json:"manufacturer,omitempty"`
	ProductName  string `json:"product_name,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
}

// Collector gathers Facts by shelling out to hostname, uname and dmidecode.
type Collector struct {
	logger   logger.Logger
	executor *command.CommandExecutor
}

func NewCollector(l logger.Logger) *Collector {
	return &Collector{
		logger:   l,
		executor: command.NewCommandExecutor(true), // dmidecode needs root
	}
}

// Collect gathers a best-effort snapshot: a failed sub-command leaves its
// field empty rather than aborting the whole collection, since a replacement
// ticket with partial facts is still useful.
func (c *Collector) Collect(ctx context.Context) *Facts {
	f := &Facts{Architecture: runtime.GOARCH}

	if out, err := c.executor.ExecuteWithCombinedOutput(ctx, "hostname"); err == nil {
		f.Hostname = strings.TrimSpace(string(out))
	} else {
		c.logger.Warn("failed to read hostname", "error", err)
	}

	if out, err := c.executor.ExecuteWithCombinedOutput(ctx, "uname", "-r"); err == nil {
		f.KernelRelease = strings.TrimSpace(string(out))
	} else {
		c.logger.Warn("failed to read kernel release", "error", err)
	}

	f.Manufacturer = c.dmi(ctx, "system-manufacturer")
	f.ProductName = c.dmi(ctx, "system-product-name")
	f.SerialNumber = c.dmi(ctx, "system-serial-number")

	return f
}

func (c *Collector) dmi(ctx context.Context, field string) string {
	out, err := c.executor.ExecuteWithCombinedOutput(ctx, "dmidecode", "-s", field)
	if err != nil {
		c.logger.Debug("dmidecode field unavailable", "field", field, "error", err)
		return ""
	}
	value := strings.TrimSpace(string(out))
	switch value {
	case "Not Specified", "To be filled by O.E.M.", "Not Available", "Unknown", "":
		return ""
	default:
		return value
	}
}
