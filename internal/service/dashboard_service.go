package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dewelsk/vk-testing-backend/internal/gating"
	"github.com/dewelsk/vk-testing-backend/internal/model"
	"github.com/dewelsk/vk-testing-backend/internal/timing"
)

// OverdueFinalizer completes expired sessions encountered during aggregate
// reads. Satisfied by SessionService.
type OverdueFinalizer interface {
	FinalizeOverdue(ctx context.Context, sess *model.TestSession) (*model.TestSession, error)
}

// DashboardService builds the candidate's view of their procedure: every
// level with its lock state and the candidate's progress on it.
type DashboardService struct {
	sessions    SessionStore
	assignments AssignmentStore
	procedures  ProcedureStore
	candidates  CandidateStore
	finalizer   OverdueFinalizer
	logger      zerolog.Logger
	now         func() time.Time
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(
	sessions SessionStore,
	assignments AssignmentStore,
	procedures ProcedureStore,
	candidates CandidateStore,
	finalizer OverdueFinalizer,
) *DashboardService {
	return &DashboardService{
		sessions:    sessions,
		assignments: assignments,
		procedures:  procedures,
		candidates:  candidates,
		finalizer:   finalizer,
		logger:      log.With().Str("component", "dashboard_service").Logger(),
		now:         time.Now,
	}
}

// DashboardEntry is one assignment row on the candidate dashboard.
type DashboardEntry struct {
	AssignmentID     uuid.UUID  `json:"assignment_id"`
	Level            int        `json:"level"`
	TestName         string     `json:"test_name"`
	DurationSeconds  int        `json:"duration_seconds"`
	QuestionCount    int        `json:"question_count"`
	MinScore         int        `json:"min_score"`
	Locked           bool       `json:"locked"`
	LockedReason     string     `json:"locked_reason,omitempty"`
	SessionID        *uuid.UUID `json:"session_id,omitempty"`
	SessionStatus    *model.SessionStatus `json:"session_status,omitempty"`
	AnsweredCount    int        `json:"answered_count"`
	RemainingSeconds int        `json:"remaining_seconds"`
	Score            *int       `json:"score,omitempty"`
	MaxScore         *int       `json:"max_score,omitempty"`
	Passed           *bool      `json:"passed,omitempty"`
}

// Dashboard is the full candidate dashboard payload.
type Dashboard struct {
	Candidate struct {
		ID      uuid.UUID `json:"id"`
		Name    string    `json:"name"`
		Surname string    `json:"surname"`
	} `json:"candidate"`
	Procedure struct {
		ID       uuid.UUID             `json:"id"`
		Position string                `json:"position"`
		Status   model.ProcedureStatus `json:"status"`
	} `json:"procedure"`
	Tests []DashboardEntry `json:"tests"`
}

// Build assembles the dashboard for a candidate. Expired sessions are
// finalized first so lock states and scores reflect reality, then gating is
// recomputed fresh for every level.
func (s *DashboardService) Build(ctx context.Context, candidateID uuid.UUID) (*Dashboard, error) {
	candidate, err := s.candidates.GetByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	procedure, err := s.procedures.GetByID(ctx, candidate.ProcedureID)
	if err != nil {
		return nil, err
	}
	assignments, err := s.assignments.ListByProcedure(ctx, procedure.ID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	sessions, err := s.sessions.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	byAssignment := make(map[uuid.UUID]*model.TestSession, len(sessions))
	for i := range sessions {
		sess, err := s.finalizer.FinalizeOverdue(ctx, &sessions[i])
		if err != nil {
			return nil, err
		}
		byAssignment[sess.AssignmentID] = sess
	}

	dash := &Dashboard{}
	dash.Candidate.ID = candidate.ID
	dash.Candidate.Name = candidate.Name
	dash.Candidate.Surname = candidate.Surname
	dash.Procedure.ID = procedure.ID
	dash.Procedure.Position = procedure.Position
	dash.Procedure.Status = procedure.Status

	for _, a := range assignments {
		entry := DashboardEntry{
			AssignmentID:    a.ID,
			Level:           a.Level,
			TestName:        a.TestName,
			DurationSeconds: a.DurationSeconds,
			QuestionCount:   a.QuestionCount,
			MinScore:        a.MinScore,
		}

		if decision := gating.Resolve(assignments, byAssignment, a); decision.Locked {
			entry.Locked = true
			entry.LockedReason = fmt.Sprintf("Complete level %d: %s", decision.Blocking.Level, decision.Blocking.TestName)
		}

		if sess, ok := byAssignment[a.ID]; ok {
			id := sess.ID
			status := sess.Status
			entry.SessionID = &id
			entry.SessionStatus = &status
			entry.AnsweredCount = sess.AnsweredCount()
			entry.Score = sess.Score
			entry.MaxScore = sess.MaxScore
			entry.Passed = sess.Passed
			if sess.Status == model.SessionStatusInProgress {
				entry.RemainingSeconds = timing.RemainingSeconds(sess.ServerStartTime, sess.DurationSeconds, s.now())
			}
		}

		dash.Tests = append(dash.Tests, entry)
	}
	return dash, nil
}
