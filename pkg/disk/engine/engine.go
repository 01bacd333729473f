// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package engine drives one device through the transition registry: restore
// its last saved state, dispatch actions until a terminal state or a dead
// end, persisting after every step.
package engine

import (
	"context"

	"github.com/stratastor/logger"

	"github.com/stratastor/deaddiskd/internal/command"
	"github.com/stratastor/deaddiskd/pkg/disk/probes"
	"github.com/stratastor/deaddiskd/pkg/disk/store"
	"github.com/stratastor/deaddiskd/pkg/disk/transitions"
	"github.com/stratastor/deaddiskd/pkg/disk/types"
)

// maxSteps bounds a single run's step count. The canonical graph has no
// path that needs anywhere near this many hops; it exists purely so a bug
// in a future edge never turns into a hang.
const maxSteps = 32

// Engine drives a single device through the transition graph.
type Engine struct {
	device   *types.Device
	store    *store.Store
	registry *transitions.Registry
	probes   probes.Paths
	executor probes.Executor
	logger   logger.Logger
	simulate bool
}

// New constructs an engine for device. Pass simulate=true to have every
// action skip side effects while still persisting the transition path.
func New(device *types.Device, st *store.Store, registry *transitions.Registry, probePaths probes.Paths, l logger.Logger, simulate bool) *Engine {
	return &Engine{
		device:   device,
		store:    st,
		registry: registry,
		probes:   probePaths,
		executor: command.NewCommandExecutor(true),
		logger:   l,
		simulate: simulate,
	}
}

// Restore reads the device's last saved state from the store; absent means
// Unscanned.
func (e *Engine) Restore() (types.State, error) {
	return e.store.GetState(e.device.Identity)
}

// Result is the outcome of a single Run.
type Result struct {
	Device     *types.Device
	FinalState types.State
	Steps      []types.Transition
}

// Run restores the device's state and drives it forward until it reaches a
// terminal state or a state with no outgoing edges, persisting after every
// step. Re-invoking Run immediately afterwards makes no further progress:
// WaitingForReplacement and Good/Fail all halt before any action dispatches.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	current, err := e.Restore()
	if err != nil {
		return nil, err
	}

	result := &Result{Device: e.device, FinalState: current}

	for step := 0; step < maxSteps; step++ {
		if current.Terminal() {
			break
		}

		edge, ok := e.registry.Dispatch(current)
		if !ok {
			break
		}

		next, err := e.invoke(ctx, edge)
		if err != nil {
			e.logger.Error("action failed",
				"device", e.device.Identity, "from", current.String(), "action", edge.Action.String(), "error", err)
			next = types.Fail
		}

		if !e.registry.Declared(current, next) {
			e.logger.Error("action returned undeclared state, forcing Fail",
				"device", e.device.Identity, "from", current.String(), "action", edge.Action.String(), "returned", next.String())
			next = types.Fail
		}

		if err := e.store.SaveState(e.device.Identity, next); err != nil {
			return nil, err
		}

		e.logger.Debug("transition",
			"device", e.device.Identity, "from", current.String(), "to", next.String(), "action", edge.Action.String())

		result.Steps = append(result.Steps, types.Transition{From: current, To: next, Action: edge.Action})
		current = next
		result.FinalState = current
	}

	return result, nil
}

// invoke runs the action named by edge and returns the resulting state. In
// simulate mode every action skips its side effects and returns edge.To
// directly, matching the non-simulated transition path.
func (e *Engine) invoke(ctx context.Context, edge types.Transition) (types.State, error) {
	if e.simulate {
		return edge.To, nil
	}

	switch edge.Action {
	case types.ActionScan:
		return e.actionScan(ctx)
	case types.ActionEval:
		return e.actionEval(ctx)
	case types.ActionMount:
		return e.actionMount(ctx)
	case types.ActionRemount:
		return e.actionRemount(ctx)
	case types.ActionCheckForCorruption:
		return e.actionCheckForCorruption(ctx, edge.To)
	case types.ActionAttemptRepair:
		return e.actionAttemptRepair(ctx)
	case types.ActionReformat:
		return e.actionReformat(ctx)
	case types.ActionCheckWearLeveling:
		return edge.To, nil // reserved hook; no wear-thresholding implemented yet
	case types.ActionMarkForReplacement:
		return e.actionMarkForReplacement(edge.From, edge.To)
	case types.ActionReplace:
		return edge.To, nil
	case types.ActionNoOp:
		return edge.To, nil
	default:
		return types.Fail, nil
	}
}
