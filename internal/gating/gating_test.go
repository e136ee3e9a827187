package gating

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/dewelsk/vk-testing-backend/internal/model"
)

func boolPtr(b bool) *bool { return &b }

func makeAssignments(procedureID uuid.UUID, levels ...int) []model.Assignment {
	out := make([]model.Assignment, len(levels))
	for i, lvl := range levels {
		out[i] = model.Assignment{
			ID:          uuid.New(),
			ProcedureID: procedureID,
			Level:       lvl,
			TestName:    "Test",
		}
	}
	return out
}

func TestResolve(t *testing.T) {
	procedureID := uuid.New()

	t.Run("lowest level never locked", func(t *testing.T) {
		assignments := makeAssignments(procedureID, 1, 2)
		d := Resolve(assignments, nil, assignments[0])
		assert.False(t, d.Locked)
	})

	t.Run("level 2 locked without level 1 session", func(t *testing.T) {
		assignments := makeAssignments(procedureID, 1, 2)
		d := Resolve(assignments, map[uuid.UUID]*model.TestSession{}, assignments[1])
		assert.True(t, d.Locked)
		assert.Equal(t, assignments[0].ID, d.Blocking.ID)
	})

	t.Run("level 2 locked while level 1 in progress", func(t *testing.T) {
		assignments := makeAssignments(procedureID, 1, 2)
		sessions := map[uuid.UUID]*model.TestSession{
			assignments[0].ID: {Status: model.SessionStatusInProgress},
		}
		assert.True(t, Resolve(assignments, sessions, assignments[1]).Locked)
	})

	t.Run("level 2 locked after failed level 1", func(t *testing.T) {
		assignments := makeAssignments(procedureID, 1, 2)
		sessions := map[uuid.UUID]*model.TestSession{
			assignments[0].ID: {Status: model.SessionStatusCompleted, Passed: boolPtr(false)},
		}
		d := Resolve(assignments, sessions, assignments[1])
		assert.True(t, d.Locked)
		assert.Equal(t, 1, d.Blocking.Level)
	})

	t.Run("level 2 unlocked after passed level 1", func(t *testing.T) {
		assignments := makeAssignments(procedureID, 1, 2)
		sessions := map[uuid.UUID]*model.TestSession{
			assignments[0].ID: {Status: model.SessionStatusCompleted, Passed: boolPtr(true)},
		}
		assert.False(t, Resolve(assignments, sessions, assignments[1]).Locked)
	})

	t.Run("gap in levels does not lock", func(t *testing.T) {
		// Level 3 configured without a level 2: nothing blocks it besides
		// an actually existing previous level.
		assignments := makeAssignments(procedureID, 1, 3)
		sessions := map[uuid.UUID]*model.TestSession{
			assignments[0].ID: {Status: model.SessionStatusCompleted, Passed: boolPtr(true)},
		}
		assert.False(t, Resolve(assignments, sessions, assignments[1]).Locked)
	})

	t.Run("decision is recomputed per call", func(t *testing.T) {
		assignments := makeAssignments(procedureID, 1, 2)
		sessions := map[uuid.UUID]*model.TestSession{
			assignments[0].ID: {Status: model.SessionStatusInProgress},
		}
		assert.True(t, Resolve(assignments, sessions, assignments[1]).Locked)

		sessions[assignments[0].ID].Status = model.SessionStatusCompleted
		sessions[assignments[0].ID].Passed = boolPtr(true)
		assert.False(t, Resolve(assignments, sessions, assignments[1]).Locked)
	})
}
