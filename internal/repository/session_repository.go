package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dewelsk/vk-testing-backend/internal/model"
)

// SessionRepository handles test session data access. All state transitions
// are single conditional UPDATEs guarded by status, so concurrent writers
// race on rows-affected rather than on locks held in the application.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `id, candidate_id, assignment_id, status, server_start_time,
	duration_seconds, answers, question_ids, last_accessed_at,
	score, max_score, passed, completed_at`

func scanSession(row interface{ Scan(dest ...any) error }) (*model.TestSession, error) {
	s := &model.TestSession{}
	var answers, questionIDs []byte
	err := row.Scan(&s.ID, &s.CandidateID, &s.AssignmentID, &s.Status, &s.ServerStartTime,
		&s.DurationSeconds, &answers, &questionIDs, &s.LastAccessedAt,
		&s.Score, &s.MaxScore, &s.Passed, &s.CompletedAt)
	if err != nil {
		return nil, translate(err)
	}
	if err := json.Unmarshal(answers, &s.Answers); err != nil {
		return nil, fmt.Errorf("failed to decode session answers: %w", err)
	}
	if err := json.Unmarshal(questionIDs, &s.QuestionIDs); err != nil {
		return nil, fmt.Errorf("failed to decode session question ids: %w", err)
	}
	return s, nil
}

// Create inserts a new IN_PROGRESS session. The unique constraint on
// (candidate_id, assignment_id) makes concurrent starts race on the insert
// itself; the loser gets created=false and the pre-existing session back.
func (r *SessionRepository) Create(ctx context.Context, candidateID, assignmentID uuid.UUID, durationSeconds int, questionIDs []string) (*model.TestSession, bool, error) {
	qids, err := json.Marshal(questionIDs)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode question ids: %w", err)
	}

	s, err := scanSession(r.pool.QueryRow(ctx,
		`INSERT INTO test_sessions (candidate_id, assignment_id, status, server_start_time,
		                            duration_seconds, answers, question_ids, last_accessed_at)
		 VALUES ($1, $2, 'IN_PROGRESS', NOW(), $3, '{}', $4, NOW())
		 ON CONFLICT (candidate_id, assignment_id) DO NOTHING
		 RETURNING `+sessionColumns,
		candidateID, assignmentID, durationSeconds, qids))
	if err == nil {
		return s, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	// Conflict path: someone else won the insert.
	existing, err := r.GetByCandidateAndAssignment(ctx, candidateID, assignmentID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// GetByID retrieves a session by its UUID.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TestSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM test_sessions WHERE id = $1`, id))
}

// GetByCandidateAndAssignment retrieves the unique session for a
// (candidate, assignment) pair.
func (r *SessionRepository) GetByCandidateAndAssignment(ctx context.Context, candidateID, assignmentID uuid.UUID) (*model.TestSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM test_sessions
		 WHERE candidate_id = $1 AND assignment_id = $2`, candidateID, assignmentID))
}

// ListByCandidate retrieves all sessions of a candidate.
func (r *SessionRepository) ListByCandidate(ctx context.Context, candidateID uuid.UUID) ([]model.TestSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM test_sessions WHERE candidate_id = $1`, candidateID)
	if err != nil {
		return nil, err
	}
	return collectSessions(rows)
}

// ListByProcedure retrieves all sessions belonging to candidates of a
// procedure, for monitoring aggregation.
func (r *SessionRepository) ListByProcedure(ctx context.Context, procedureID uuid.UUID) ([]model.TestSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.candidate_id, s.assignment_id, s.status, s.server_start_time,
		        s.duration_seconds, s.answers, s.question_ids, s.last_accessed_at,
		        s.score, s.max_score, s.passed, s.completed_at
		 FROM test_sessions s
		 JOIN vk_tests a ON a.id = s.assignment_id
		 WHERE a.procedure_id = $1`, procedureID)
	if err != nil {
		return nil, err
	}
	return collectSessions(rows)
}

func collectSessions(rows pgx.Rows) ([]model.TestSession, error) {
	defer rows.Close()
	var sessions []model.TestSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// SaveAnswers overwrites the answer map of a still-running session. Returns
// false when the session is no longer IN_PROGRESS, in which case nothing was
// written.
func (r *SessionRepository) SaveAnswers(ctx context.Context, id uuid.UUID, answers map[string]model.AnswerValue) (bool, error) {
	data, err := json.Marshal(answers)
	if err != nil {
		return false, fmt.Errorf("failed to encode answers: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE test_sessions
		 SET answers = $2, last_accessed_at = NOW()
		 WHERE id = $1 AND status = 'IN_PROGRESS'`, id, data)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Complete finalizes a session with its scored outcome. The status guard
// makes the transition exactly-once: of any concurrent finalizers only one
// sees won=true, and the outcome never changes afterwards.
func (r *SessionRepository) Complete(ctx context.Context, id uuid.UUID, answers map[string]model.AnswerValue, score, maxScore int, passed bool, completedAt time.Time) (bool, error) {
	data, err := json.Marshal(answers)
	if err != nil {
		return false, fmt.Errorf("failed to encode answers: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE test_sessions
		 SET status = 'COMPLETED', answers = $2, score = $3, max_score = $4,
		     passed = $5, completed_at = $6, last_accessed_at = NOW()
		 WHERE id = $1 AND status = 'IN_PROGRESS'`,
		id, data, score, maxScore, passed, completedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// CompleteExpired finalizes a session past its deadline with a score taken
// from the stored answers. Unlike Complete it leaves the answers column
// untouched, so a save racing the finalizer is never overwritten with the
// finalizer's stale snapshot. Same exactly-once status guard as Complete.
func (r *SessionRepository) CompleteExpired(ctx context.Context, id uuid.UUID, score, maxScore int, passed bool, completedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE test_sessions
		 SET status = 'COMPLETED', score = $2, max_score = $3,
		     passed = $4, completed_at = $5, last_accessed_at = NOW()
		 WHERE id = $1 AND status = 'IN_PROGRESS'`,
		id, score, maxScore, passed, completedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// TouchLastAccessed records candidate activity on a running session. A miss
// (already completed) is not an error.
func (r *SessionRepository) TouchLastAccessed(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE test_sessions
		 SET last_accessed_at = NOW()
		 WHERE id = $1 AND status = 'IN_PROGRESS'`, id)
	return err
}
