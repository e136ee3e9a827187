package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dewelsk/vk-testing-backend/internal/model"
)

func TestDashboardBuild(t *testing.T) {
	ctx := context.Background()
	env := newSessionEnv(t)

	candidates := &fakeCandidateStore{candidates: []model.Candidate{
		{ID: env.candidateID, ProcedureID: env.procedureID, Name: "Jana", Surname: "Nováková"},
	}}
	dashboard := NewDashboardService(env.sessions, env.assignments, env.procedures, candidates, env.svc)
	dashboard.now = env.clock.Now

	t.Run("fresh candidate sees level two locked", func(t *testing.T) {
		dash, err := dashboard.Build(ctx, env.candidateID)
		require.NoError(t, err)

		require.Len(t, dash.Tests, 2)
		byLevel := make(map[int]DashboardEntry)
		for _, e := range dash.Tests {
			byLevel[e.Level] = e
		}

		assert.False(t, byLevel[1].Locked)
		assert.True(t, byLevel[2].Locked)
		assert.Equal(t, "Complete level 1: General Knowledge", byLevel[2].LockedReason)
		assert.Nil(t, byLevel[1].SessionID)
	})

	t.Run("running session shows progress and remaining time", func(t *testing.T) {
		state, err := env.svc.Start(ctx, env.candidateID, env.procedureID, env.level1.ID)
		require.NoError(t, err)
		_, err = env.svc.Save(ctx, env.candidateID, state.SessionID, map[string]model.AnswerValue{
			"q1": answerRaw(`"b"`),
		})
		require.NoError(t, err)

		env.clock.Advance(2 * time.Minute)
		dash, err := dashboard.Build(ctx, env.candidateID)
		require.NoError(t, err)

		var level1 DashboardEntry
		for _, e := range dash.Tests {
			if e.Level == 1 {
				level1 = e
			}
		}
		require.NotNil(t, level1.SessionStatus)
		assert.Equal(t, model.SessionStatusInProgress, *level1.SessionStatus)
		assert.Equal(t, 1, level1.AnsweredCount)
		assert.Equal(t, 480, level1.RemainingSeconds)
	})

	t.Run("passing level one unlocks level two", func(t *testing.T) {
		sess, err := env.sessions.GetByCandidateAndAssignment(ctx, env.candidateID, env.level1.ID)
		require.NoError(t, err)
		_, err = env.svc.Submit(ctx, env.candidateID, sess.ID, map[string]model.AnswerValue{
			"q1": answerRaw(`"b"`), "q2": answerRaw(`true`), "q3": answerRaw(`["a","c"]`),
		})
		require.NoError(t, err)

		dash, err := dashboard.Build(ctx, env.candidateID)
		require.NoError(t, err)

		for _, e := range dash.Tests {
			assert.False(t, e.Locked, "level %d should be unlocked", e.Level)
			if e.Level == 1 {
				require.NotNil(t, e.Passed)
				assert.True(t, *e.Passed)
			}
		}
	})

	t.Run("abandoned expired session surfaces as completed", func(t *testing.T) {
		otherID := uuid.New()
		candidates.candidates = append(candidates.candidates, model.Candidate{
			ID: otherID, ProcedureID: env.procedureID, Name: "Peter",
		})

		_, err := env.svc.Start(ctx, otherID, env.procedureID, env.level1.ID)
		require.NoError(t, err)
		env.clock.Advance(time.Hour)

		dash, err := dashboard.Build(ctx, otherID)
		require.NoError(t, err)

		for _, e := range dash.Tests {
			if e.Level == 1 {
				require.NotNil(t, e.SessionStatus)
				assert.Equal(t, model.SessionStatusCompleted, *e.SessionStatus)
				require.NotNil(t, e.Passed)
				assert.False(t, *e.Passed)
			}
		}
	})
}
