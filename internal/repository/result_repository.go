package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dewelsk/vk-testing-backend/internal/model"
)

// ResultRepository handles the immutable test result archive.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Insert archives a completed session's outcome. Idempotent per session: the
// unique constraint on session_id swallows duplicate deliveries from the
// archive queue.
func (r *ResultRepository) Insert(ctx context.Context, res *model.TestResult) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO test_results (session_id, candidate_id, assignment_id, answers,
		                           score, max_score, success_rate, passed,
		                           started_at, completed_at, duration_seconds)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (session_id) DO NOTHING`,
		res.SessionID, res.CandidateID, res.AssignmentID, res.Answers,
		res.Score, res.MaxScore, res.SuccessRate, res.Passed,
		res.StartedAt, res.CompletedAt, res.DurationSeconds)
	return err
}

// GetBySession retrieves the archived result of a session, if any.
func (r *ResultRepository) GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.TestResult, error) {
	res := &model.TestResult{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, session_id, candidate_id, assignment_id, answers,
		        score, max_score, success_rate, passed,
		        started_at, completed_at, duration_seconds
		 FROM test_results
		 WHERE session_id = $1`, sessionID,
	).Scan(&res.ID, &res.SessionID, &res.CandidateID, &res.AssignmentID, &res.Answers,
		&res.Score, &res.MaxScore, &res.SuccessRate, &res.Passed,
		&res.StartedAt, &res.CompletedAt, &res.DurationSeconds)
	if err != nil {
		return nil, translate(err)
	}
	return res, nil
}
