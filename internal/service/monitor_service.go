package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dewelsk/vk-testing-backend/internal/model"
	"github.com/dewelsk/vk-testing-backend/internal/timing"
)

// CandidateStatus is the monitoring bucket a candidate falls into. Exactly
// one bucket applies per candidate, resolved in priority order: TESTING,
// then COMPLETED, then FAILED, then WAITING.
type CandidateStatus string

const (
	CandidateStatusWaiting   CandidateStatus = "WAITING"
	CandidateStatusTesting   CandidateStatus = "TESTING"
	CandidateStatusCompleted CandidateStatus = "COMPLETED"
	CandidateStatusFailed    CandidateStatus = "FAILED"
)

// MonitorService builds the admin's live view of a running procedure. Reads
// only; the candidate-side writes it observes are finalized on the way in
// so no stale IN_PROGRESS row ever reaches the report.
type MonitorService struct {
	sessions    SessionStore
	assignments AssignmentStore
	procedures  ProcedureStore
	candidates  CandidateStore
	finalizer   OverdueFinalizer
	logger      zerolog.Logger
	now         func() time.Time
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(
	sessions SessionStore,
	assignments AssignmentStore,
	procedures ProcedureStore,
	candidates CandidateStore,
	finalizer OverdueFinalizer,
) *MonitorService {
	return &MonitorService{
		sessions:    sessions,
		assignments: assignments,
		procedures:  procedures,
		candidates:  candidates,
		finalizer:   finalizer,
		logger:      log.With().Str("component", "monitor_service").Logger(),
		now:         time.Now,
	}
}

// MonitorCandidate is one candidate row in the monitoring report.
type MonitorCandidate struct {
	CandidateID      uuid.UUID       `json:"candidate_id"`
	Name             string          `json:"name"`
	Surname          string          `json:"surname"`
	Status           CandidateStatus `json:"status"`
	CurrentLevel     int             `json:"current_level,omitempty"`
	AnsweredCount    int             `json:"answered_count,omitempty"`
	RemainingSeconds int             `json:"remaining_seconds,omitempty"`
	LastAccessedAt   *time.Time      `json:"last_accessed_at,omitempty"`
	Levels           []MonitorLevel  `json:"levels"`
}

// MonitorLevel is a candidate's outcome on one level.
type MonitorLevel struct {
	Level    int                  `json:"level"`
	TestName string               `json:"test_name"`
	Status   *model.SessionStatus `json:"status,omitempty"`
	Score    *int                 `json:"score,omitempty"`
	MaxScore *int                 `json:"max_score,omitempty"`
	Passed   *bool                `json:"passed,omitempty"`
}

// MonitorSummary counts candidates per bucket. The four buckets always sum
// to TotalCandidates.
type MonitorSummary struct {
	TotalCandidates int `json:"total_candidates"`
	Waiting         int `json:"waiting"`
	Testing         int `json:"testing"`
	Completed       int `json:"completed"`
	Failed          int `json:"failed"`
}

// MonitorReport is the full monitoring payload for one procedure.
type MonitorReport struct {
	ProcedureID uuid.UUID             `json:"procedure_id"`
	Position    string                `json:"position"`
	Status      model.ProcedureStatus `json:"status"`
	GeneratedAt time.Time             `json:"generated_at"`
	Summary     MonitorSummary        `json:"summary"`
	Candidates  []MonitorCandidate    `json:"candidates"`
}

// Build assembles the monitoring report for a procedure.
func (s *MonitorService) Build(ctx context.Context, procedureID uuid.UUID) (*MonitorReport, error) {
	procedure, err := s.procedures.GetByID(ctx, procedureID)
	if err != nil {
		return nil, err
	}
	assignments, err := s.assignments.ListByProcedure(ctx, procedureID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	candidates, err := s.candidates.ListByProcedure(ctx, procedureID)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	sessions, err := s.sessions.ListByProcedure(ctx, procedureID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	// Finalize overdue sessions before bucketing so a candidate who walked
	// away mid-test counts as finished, not testing.
	byCandidate := make(map[uuid.UUID]map[uuid.UUID]*model.TestSession)
	for i := range sessions {
		sess, err := s.finalizer.FinalizeOverdue(ctx, &sessions[i])
		if err != nil {
			return nil, err
		}
		m, ok := byCandidate[sess.CandidateID]
		if !ok {
			m = make(map[uuid.UUID]*model.TestSession)
			byCandidate[sess.CandidateID] = m
		}
		m[sess.AssignmentID] = sess
	}

	report := &MonitorReport{
		ProcedureID: procedure.ID,
		Position:    procedure.Position,
		Status:      procedure.Status,
		GeneratedAt: s.now(),
	}
	report.Summary.TotalCandidates = len(candidates)

	for _, c := range candidates {
		row := s.buildCandidate(c, assignments, byCandidate[c.ID])
		switch row.Status {
		case CandidateStatusTesting:
			report.Summary.Testing++
		case CandidateStatusCompleted:
			report.Summary.Completed++
		case CandidateStatusFailed:
			report.Summary.Failed++
		default:
			report.Summary.Waiting++
		}
		report.Candidates = append(report.Candidates, row)
	}
	return report, nil
}

func (s *MonitorService) buildCandidate(c model.Candidate, assignments []model.Assignment, sessions map[uuid.UUID]*model.TestSession) MonitorCandidate {
	row := MonitorCandidate{
		CandidateID: c.ID,
		Name:        c.Name,
		Surname:     c.Surname,
		Status:      DeriveStatus(assignments, sessions),
	}

	for _, a := range assignments {
		level := MonitorLevel{Level: a.Level, TestName: a.TestName}
		if sess, ok := sessions[a.ID]; ok {
			status := sess.Status
			level.Status = &status
			level.Score = sess.Score
			level.MaxScore = sess.MaxScore
			level.Passed = sess.Passed

			if sess.Status == model.SessionStatusInProgress {
				row.CurrentLevel = a.Level
				row.AnsweredCount = sess.AnsweredCount()
				row.RemainingSeconds = timing.RemainingSeconds(sess.ServerStartTime, sess.DurationSeconds, s.now())
				last := sess.LastAccessedAt
				row.LastAccessedAt = &last
			}
		}
		row.Levels = append(row.Levels, level)
	}
	return row
}

// DeriveStatus resolves a candidate's monitoring bucket from their sessions.
// Expects overdue sessions to be finalized already. A candidate with a
// running session is TESTING; with no sessions, WAITING. Otherwise the
// highest attempted level decides: failed means FAILED, passed means
// COMPLETED when it was the last level and WAITING for the next one
// otherwise.
func DeriveStatus(assignments []model.Assignment, sessions map[uuid.UUID]*model.TestSession) CandidateStatus {
	if len(sessions) == 0 {
		return CandidateStatusWaiting
	}

	var highest *model.Assignment
	for i := range assignments {
		a := &assignments[i]
		sess, ok := sessions[a.ID]
		if !ok {
			continue
		}
		if sess.Status == model.SessionStatusInProgress {
			return CandidateStatusTesting
		}
		if highest == nil || a.Level > highest.Level {
			highest = a
		}
	}
	if highest == nil {
		return CandidateStatusWaiting
	}

	sess := sessions[highest.ID]
	if sess.Passed == nil || !*sess.Passed {
		return CandidateStatusFailed
	}

	for _, a := range assignments {
		if a.Level > highest.Level {
			return CandidateStatusWaiting
		}
	}
	return CandidateStatusCompleted
}
