// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package transitions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratastor/deaddiskd/pkg/disk/types"
)

func TestDispatchPicksFirstDeclaredEdge(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name       string
		from       types.State
		wantTo     types.State
		wantAction types.ActionTag
	}{
		{"unscanned dispatches scan", types.Unscanned, types.Scanned, types.ActionScan},
		{"scanned dispatches eval, not checkwearleveling", types.Scanned, types.Good, types.ActionEval},
		{"not_mounted dispatches mount", types.NotMounted, types.Mounted, types.ActionMount},
		{"corrupt dispatches attemptrepair", types.Corrupt, types.Repaired, types.ActionAttemptRepair},
		{"waiting_for_replacement dispatches replace", types.WaitingForReplacement, types.Replaced, types.ActionReplace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edge, ok := r.Dispatch(tt.from)
			require.True(t, ok)
			assert.Equal(t, tt.wantAction, edge.Action)
			assert.Equal(t, tt.wantTo, edge.To)
		})
	}
}

func TestTerminalStatesHaveNoDispatch(t *testing.T) {
	r := NewRegistry()

	for _, s := range []types.State{types.Good, types.Fail} {
		_, ok := r.Dispatch(s)
		assert.False(t, ok, "%s must be a dead end in the graph", s)
	}
}

func TestDeclaredSiblingsMatchActionSemantics(t *testing.T) {
	r := NewRegistry()

	// Eval, dispatched from Scanned, can legitimately return any of these
	// per its documented semantics; all must be declared siblings.
	for _, to := range []types.State{types.Good, types.WriteFailed} {
		assert.True(t, r.Declared(types.Scanned, to), "Scanned -> %s must be declared", to)
	}
	assert.False(t, r.Declared(types.Scanned, types.Corrupt))
}

func TestEveryStateExceptTerminalsHasAnEdge(t *testing.T) {
	r := NewRegistry()

	all := []types.State{
		types.Unscanned, types.Scanned, types.Corrupt, types.Repaired,
		types.RepairFailed, types.Reformatted, types.ReformatFailed,
		types.Mounted, types.NotMounted, types.MountFailed, types.ReadOnly,
		types.WriteFailed, types.WornOut, types.WaitingForReplacement, types.Replaced,
	}
	for _, s := range all {
		assert.NotEmpty(t, r.Edges(s), "%s should declare at least one outgoing edge", s)
	}
}
