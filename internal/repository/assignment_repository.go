package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dewelsk/vk-testing-backend/internal/model"
)

// AssignmentRepository handles test assignment (vk_tests) data access.
// Assignments are read-only from the engine's perspective; they are created
// by the admin tooling before a procedure enters TESTING.
type AssignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository creates a new AssignmentRepository.
func NewAssignmentRepository(pool *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

const assignmentColumns = `a.id, a.procedure_id, a.test_id, a.level, a.duration_seconds,
	a.question_count, a.min_score, a.score_per_question, a.selection_mode,
	a.manual_question_ids, a.created_at, t.name`

func scanAssignment(row interface{ Scan(dest ...any) error }) (*model.Assignment, error) {
	a := &model.Assignment{}
	err := row.Scan(&a.ID, &a.ProcedureID, &a.TestID, &a.Level, &a.DurationSeconds,
		&a.QuestionCount, &a.MinScore, &a.ScorePerQuestion, &a.SelectionMode,
		&a.ManualQuestionIDs, &a.CreatedAt, &a.TestName)
	if err != nil {
		return nil, translate(err)
	}
	return a, nil
}

// GetByID retrieves an assignment joined with its test name.
func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	return scanAssignment(r.pool.QueryRow(ctx,
		`SELECT `+assignmentColumns+`
		 FROM vk_tests a
		 JOIN tests t ON t.id = a.test_id
		 WHERE a.id = $1`, id))
}

// ListByProcedure retrieves all assignments of a procedure ordered by level.
func (r *AssignmentRepository) ListByProcedure(ctx context.Context, procedureID uuid.UUID) ([]model.Assignment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+assignmentColumns+`
		 FROM vk_tests a
		 JOIN tests t ON t.id = a.test_id
		 WHERE a.procedure_id = $1
		 ORDER BY a.level ASC`, procedureID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

// GetTest retrieves the full test (questions included) backing an assignment.
func (r *AssignmentRepository) GetTest(ctx context.Context, testID uuid.UUID) (*model.Test, error) {
	t := &model.Test{}
	var questions []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, questions, created_at FROM tests WHERE id = $1`, testID,
	).Scan(&t.ID, &t.Name, &questions, &t.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	if err := json.Unmarshal(questions, &t.Questions); err != nil {
		return nil, fmt.Errorf("failed to decode test questions: %w", err)
	}
	return t, nil
}
