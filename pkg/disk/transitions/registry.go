// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package transitions holds the declarative per-device state graph: an edge
// list keyed by from-state, never a topological walk. Evaluation order is
// declaration order — the engine always dispatches the first edge declared
// for the current state and validates the action's return against every
// sibling destination declared for that state.
package transitions

import "github.com/stratastor/deaddiskd/pkg/disk/types"

// Registry is the closed transition graph for one device's lifecycle.
type Registry struct {
	edges map[types.State][]types.Transition
}

// NewRegistry builds the canonical 24-edge graph.
func NewRegistry() *Registry {
	r := &Registry{edges: make(map[types.State][]types.Transition)}
	for _, t := range canonicalEdges {
		r.edges[t.From] = append(r.edges[t.From], t)
	}
	return r
}

// canonicalEdges is the literal transition table. Declaration order within
// a from-state matters: the engine invokes only the first edge's action for
// that state on each step.
var canonicalEdges = []types.Transition{
	{From: types.Unscanned, To: types.Scanned, Action: types.ActionScan},
	{From: types.Unscanned, To: types.Fail, Action: types.ActionScan},

	{From: types.Scanned, To: types.Good, Action: types.ActionEval},
	{From: types.Scanned, To: types.NotMounted, Action: types.ActionScan},
	{From: types.Scanned, To: types.WriteFailed, Action: types.ActionEval},
	{From: types.Scanned, To: types.WornOut, Action: types.ActionCheckWearLeveling},

	{From: types.NotMounted, To: types.Mounted, Action: types.ActionMount},
	{From: types.NotMounted, To: types.MountFailed, Action: types.ActionMount},

	{From: types.MountFailed, To: types.Corrupt, Action: types.ActionCheckForCorruption},

	{From: types.Mounted, To: types.Scanned, Action: types.ActionNoOp},

	{From: types.ReadOnly, To: types.Mounted, Action: types.ActionRemount},
	{From: types.ReadOnly, To: types.MountFailed, Action: types.ActionRemount},

	{From: types.WriteFailed, To: types.Corrupt, Action: types.ActionCheckForCorruption},
	{From: types.WriteFailed, To: types.ReadOnly, Action: types.ActionEval},

	{From: types.Corrupt, To: types.Repaired, Action: types.ActionAttemptRepair},
	{From: types.Corrupt, To: types.RepairFailed, Action: types.ActionAttemptRepair},

	{From: types.RepairFailed, To: types.Reformatted, Action: types.ActionReformat},
	{From: types.RepairFailed, To: types.ReformatFailed, Action: types.ActionReformat},

	{From: types.ReformatFailed, To: types.WaitingForReplacement, Action: types.ActionNoOp},
	{From: types.Reformatted, To: types.Unscanned, Action: types.ActionNoOp},

	{From: types.WornOut, To: types.WaitingForReplacement, Action: types.ActionMarkForReplacement},

	{From: types.Repaired, To: types.Good, Action: types.ActionNoOp},

	{From: types.WaitingForReplacement, To: types.Replaced, Action: types.ActionReplace},
	{From: types.Replaced, To: types.Unscanned, Action: types.ActionNoOp},
}

// Edges returns the declared outgoing edges for a state, in declaration
// order. An empty slice means the state is a dead end in the graph.
func (r *Registry) Edges(from types.State) []types.Transition {
	return r.edges[from]
}

// Dispatch returns the edge whose action the engine must invoke for the
// current state: the first declared edge, by construction.
func (r *Registry) Dispatch(from types.State) (types.Transition, bool) {
	edges := r.edges[from]
	if len(edges) == 0 {
		return types.Transition{}, false
	}
	return edges[0], true
}

// Declared reports whether to is one of the sibling destinations declared
// for from — either the dispatched edge's own To, or a declared failure
// sibling reachable from the same from-state.
func (r *Registry) Declared(from, to types.State) bool {
	for _, e := range r.edges[from] {
		if e.To == to {
			return true
		}
	}
	return false
}
