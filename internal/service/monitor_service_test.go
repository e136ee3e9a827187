package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dewelsk/vk-testing-backend/internal/model"
	"github.com/dewelsk/vk-testing-backend/internal/repository"
)

type fakeCandidateStore struct {
	candidates []model.Candidate
}

func (f *fakeCandidateStore) GetByID(_ context.Context, id uuid.UUID) (*model.Candidate, error) {
	for i := range f.candidates {
		if f.candidates[i].ID == id {
			return &f.candidates[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCandidateStore) GetByIdentifier(_ context.Context, identifier string) (*model.Candidate, error) {
	for i := range f.candidates {
		if f.candidates[i].Identifier == identifier {
			return &f.candidates[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCandidateStore) ListByProcedure(_ context.Context, procedureID uuid.UUID) ([]model.Candidate, error) {
	var out []model.Candidate
	for _, c := range f.candidates {
		if c.ProcedureID == procedureID {
			out = append(out, c)
		}
	}
	return out, nil
}

func completedSession(candidateID, assignmentID uuid.UUID, score int, passed bool) *model.TestSession {
	max := 10
	done := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	return &model.TestSession{
		ID:           uuid.New(),
		CandidateID:  candidateID,
		AssignmentID: assignmentID,
		Status:       model.SessionStatusCompleted,
		Score:        &score,
		MaxScore:     &max,
		Passed:       &passed,
		CompletedAt:  &done,
	}
}

func TestDeriveStatus(t *testing.T) {
	procedureID := uuid.New()
	assignments := makeLevels(procedureID, 2)
	candidateID := uuid.New()

	t.Run("no sessions means waiting", func(t *testing.T) {
		assert.Equal(t, CandidateStatusWaiting, DeriveStatus(assignments, nil))
	})

	t.Run("running session means testing", func(t *testing.T) {
		sessions := map[uuid.UUID]*model.TestSession{
			assignments[0].ID: {Status: model.SessionStatusInProgress},
		}
		assert.Equal(t, CandidateStatusTesting, DeriveStatus(assignments, sessions))
	})

	t.Run("failed highest level means failed", func(t *testing.T) {
		sessions := map[uuid.UUID]*model.TestSession{
			assignments[0].ID: completedSession(candidateID, assignments[0].ID, 2, false),
		}
		assert.Equal(t, CandidateStatusFailed, DeriveStatus(assignments, sessions))
	})

	t.Run("passed level with next pending means waiting", func(t *testing.T) {
		sessions := map[uuid.UUID]*model.TestSession{
			assignments[0].ID: completedSession(candidateID, assignments[0].ID, 8, true),
		}
		assert.Equal(t, CandidateStatusWaiting, DeriveStatus(assignments, sessions))
	})

	t.Run("passed final level means completed", func(t *testing.T) {
		sessions := map[uuid.UUID]*model.TestSession{
			assignments[0].ID: completedSession(candidateID, assignments[0].ID, 8, true),
			assignments[1].ID: completedSession(candidateID, assignments[1].ID, 9, true),
		}
		assert.Equal(t, CandidateStatusCompleted, DeriveStatus(assignments, sessions))
	})

	t.Run("testing wins over earlier results", func(t *testing.T) {
		sessions := map[uuid.UUID]*model.TestSession{
			assignments[0].ID: completedSession(candidateID, assignments[0].ID, 8, true),
			assignments[1].ID: {Status: model.SessionStatusInProgress},
		}
		assert.Equal(t, CandidateStatusTesting, DeriveStatus(assignments, sessions))
	})
}

func TestMonitorBuild(t *testing.T) {
	ctx := context.Background()
	env := newSessionEnv(t)

	// Four candidates in distinct states: one testing, one failed on level 1,
	// one through both levels, one who never started.
	running := uuid.New()
	failed := uuid.New()
	finished := uuid.New()
	idle := uuid.New()

	candidates := &fakeCandidateStore{candidates: []model.Candidate{
		{ID: running, ProcedureID: env.procedureID, Name: "A"},
		{ID: failed, ProcedureID: env.procedureID, Name: "B"},
		{ID: finished, ProcedureID: env.procedureID, Name: "C"},
		{ID: idle, ProcedureID: env.procedureID, Name: "D"},
	}}

	// Testing candidate has a running level 1 session.
	_, err := env.svc.Start(ctx, running, env.procedureID, env.level1.ID)
	require.NoError(t, err)

	// Failed candidate bombed level 1.
	state, err := env.svc.Start(ctx, failed, env.procedureID, env.level1.ID)
	require.NoError(t, err)
	_, err = env.svc.Submit(ctx, failed, state.SessionID, nil)
	require.NoError(t, err)

	// Finished candidate passed both levels.
	state, err = env.svc.Start(ctx, finished, env.procedureID, env.level1.ID)
	require.NoError(t, err)
	_, err = env.svc.Submit(ctx, finished, state.SessionID, map[string]model.AnswerValue{
		"q1": answerRaw(`"b"`), "q2": answerRaw(`true`), "q3": answerRaw(`["a","c"]`),
	})
	require.NoError(t, err)
	state, err = env.svc.Start(ctx, finished, env.procedureID, env.level2.ID)
	require.NoError(t, err)
	_, err = env.svc.Submit(ctx, finished, state.SessionID, map[string]model.AnswerValue{
		"q1": answerRaw(`false`),
	})
	require.NoError(t, err)

	monitor := NewMonitorService(env.sessions, env.assignments, env.procedures, candidates, env.svc)
	monitor.now = env.clock.Now

	report, err := monitor.Build(ctx, env.procedureID)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Summary.TotalCandidates)
	assert.Equal(t, 1, report.Summary.Testing)
	assert.Equal(t, 1, report.Summary.Failed)
	assert.Equal(t, 1, report.Summary.Completed)
	assert.Equal(t, 1, report.Summary.Waiting)
	assert.Equal(t, report.Summary.TotalCandidates,
		report.Summary.Testing+report.Summary.Failed+report.Summary.Completed+report.Summary.Waiting)
	assert.Len(t, report.Candidates, 4)
}

func TestMonitorBuildFinalizesOverdue(t *testing.T) {
	ctx := context.Background()
	env := newSessionEnv(t)

	candidateID := uuid.New()
	candidates := &fakeCandidateStore{candidates: []model.Candidate{
		{ID: candidateID, ProcedureID: env.procedureID, Name: "Walked", Surname: "Away"},
	}}

	_, err := env.svc.Start(ctx, candidateID, env.procedureID, env.level1.ID)
	require.NoError(t, err)

	// Candidate abandons the test; the allowance runs out with no answers.
	env.clock.Advance(30 * time.Minute)

	monitor := NewMonitorService(env.sessions, env.assignments, env.procedures, candidates, env.svc)
	monitor.now = env.clock.Now

	report, err := monitor.Build(ctx, env.procedureID)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Summary.Testing)
	assert.Equal(t, 1, report.Summary.Failed)
	require.Len(t, report.Candidates, 1)
	assert.Equal(t, CandidateStatusFailed, report.Candidates[0].Status)
}

func makeLevels(procedureID uuid.UUID, n int) []model.Assignment {
	out := make([]model.Assignment, n)
	for i := 0; i < n; i++ {
		out[i] = model.Assignment{ID: uuid.New(), ProcedureID: procedureID, Level: i + 1, TestName: "Test"}
	}
	return out
}
