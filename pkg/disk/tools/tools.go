// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/stratastor/logger"

	"github.com/stratastor/deaddiskd/internal/command"
	"github.com/stratastor/deaddiskd/pkg/errors"
)

// Paths configures where to find the external binaries the probes and
// actions shell out to. A zero value for any field means "search PATH".
type Paths struct {
	Smartctl  string
	E2fsck    string
	XFSRepair string
	Mkfs      string
	Mount     string
	Losetup   string
}

// ToolStatus represents the availability status of a tool.
type ToolStatus struct {
	Name      string
	Path      string
	Available bool
	Version   string
	Error     string
}

// ToolChecker resolves and caches the location of the external tools the
// remediator depends on, preferring a configured path and falling back to
// the process PATH.
type ToolChecker struct {
	logger    logger.Logger
	executor  *command.CommandExecutor
	toolPaths map[string]string
	cache     map[string]*ToolStatus
	mu        sync.RWMutex
}

func NewToolChecker(l logger.Logger, paths Paths) *ToolChecker {
	tc := &ToolChecker{
		logger:    l,
		executor:  command.NewCommandExecutor(false),
		toolPaths: make(map[string]string),
		cache:     make(map[string]*ToolStatus),
	}
	tc.executor.Timeout = 5 * time.Second

	tc.toolPaths["smartctl"] = paths.Smartctl
	tc.toolPaths["e2fsck"] = paths.E2fsck
	tc.toolPaths["xfs_repair"] = paths.XFSRepair
	tc.toolPaths["mkfs"] = paths.Mkfs
	tc.toolPaths["mount"] = paths.Mount
	tc.toolPaths["losetup"] = paths.Losetup

	return tc
}

// CheckAll checks availability of all configured tools.
func (tc *ToolChecker) CheckAll() map[string]*ToolStatus {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	results := make(map[string]*ToolStatus)
	for tool, path := range tc.toolPaths {
		status := tc.checkTool(tool, path)
		tc.cache[tool] = status
		results[tool] = status
	}
	return results
}

// CheckTool checks availability of a specific tool.
func (tc *ToolChecker) CheckTool(toolName string) (*ToolStatus, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	path, exists := tc.toolPaths[toolName]
	if !exists {
		return nil, errors.New(errors.CommandNotFound, "unknown tool").
			WithMetadata("tool", toolName)
	}

	status := tc.checkTool(toolName, path)
	tc.cache[toolName] = status
	return status, nil
}

func (tc *ToolChecker) checkTool(toolName, configuredPath string) *ToolStatus {
	status := &ToolStatus{Name: toolName, Path: configuredPath}

	if configuredPath != "" {
		if version, err := tc.getToolVersion(configuredPath, toolName); err == nil {
			status.Available = true
			status.Version = version
			status.Path = configuredPath
			return status
		}
	}

	path, err := exec.LookPath(toolName)
	if err != nil {
		status.Available = false
		status.Error = fmt.Sprintf("tool not found in PATH or configured location: %v", err)
		return status
	}

	version, err := tc.getToolVersion(path, toolName)
	if err != nil {
		status.Available = false
		status.Error = fmt.Sprintf("tool found but version check failed: %v", err)
		status.Path = path
		return status
	}

	status.Available = true
	status.Version = version
	status.Path = path
	return status
}

func (tc *ToolChecker) getToolVersion(path, toolName string) (string, error) {
	ctx := context.Background()
	output, err := tc.executor.ExecuteWithCombinedOutput(ctx, path, "--version")
	if err != nil {
		if len(output) == 0 {
			return "", err
		}
	}
	return tc.parseVersion(string(output), toolName), nil
}

func (tc *ToolChecker) parseVersion(output, toolName string) string {
	lines := strings.Split(output, "\n")
	if len(lines) == 0 {
		return "unknown"
	}
	firstLine := strings.TrimSpace(lines[0])

	switch toolName {
	case "smartctl":
		// "smartctl 7.2 2020-12-30 r5155 [x86_64-linux-5.10.0-8-amd64] (local build)"
		if strings.Contains(firstLine, "smartctl") {
			if parts := strings.Fields(firstLine); len(parts) >= 2 {
				return parts[1]
			}
		}
	case "e2fsck":
		// "e2fsck 1.46.5 (30-Dec-2021)"
		if parts := strings.Fields(firstLine); len(parts) >= 2 {
			return parts[1]
		}
	case "xfs_repair":
		// "xfs_repair version 5.13.0"
		if parts := strings.Fields(firstLine); len(parts) >= 3 {
			return parts[2]
		}
	}

	if len(firstLine) > 50 {
		return firstLine[:50] + "..."
	}
	return firstLine
}

// IsAvailable returns whether a tool was found available on the last check.
func (tc *ToolChecker) IsAvailable(toolName string) bool {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	status, exists := tc.cache[toolName]
	return exists && status.Available
}

// GetPath returns the resolved path to a tool.
func (tc *ToolChecker) GetPath(toolName string) (string, error) {
	tc.mu.RLock()
	defer tc.mu.RUnlock()

	status, exists := tc.cache[toolName]
	if !exists {
		return "", errors.New(errors.CommandNotFound, "tool not checked").
			WithMetadata("tool", toolName)
	}
	if !status.Available {
		return "", errors.New(errors.CommandNotFound, status.Error).
			WithMetadata("tool", toolName)
	}
	return status.Path, nil
}

// ValidateRequired returns an error naming every tool in requiredTools that
// is not available.
func (tc *ToolChecker) ValidateRequired(requiredTools []string) error {
	tc.mu.RLock()
	defer tc.mu.RUnlock()

	var missing []string
	for _, tool := range requiredTools {
		status, exists := tc.cache[tool]
		if !exists || !status.Available {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return errors.New(errors.CommandNotFound,
			fmt.Sprintf("required tools not available: %s", strings.Join(missing, ", "))).
			WithMetadata("missing_tools", strings.Join(missing, ", "))
	}
	return nil
}

// GetAllStatuses returns a copy of the cached tool statuses.
func (tc *ToolChecker) GetAllStatuses() map[string]*ToolStatus {
	tc.mu.RLock()
	defer tc.mu.RUnlock()

	result := make(map[string]*ToolStatus, len(tc.cache))
	for k, v := range tc.cache {
		statusCopy := *v
		result[k] = &statusCopy
	}
	return result
}

// Refresh re-checks all tools.
func (tc *ToolChecker) Refresh() map[string]*ToolStatus {
	return tc.CheckAll()
}
