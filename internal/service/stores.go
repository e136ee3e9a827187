package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dewelsk/vk-testing-backend/internal/model"
)

// Data access contracts consumed by the services. The pgx repositories
// satisfy them implicitly; tests plug in fakes.

// SessionStore persists test sessions.
type SessionStore interface {
	Create(ctx context.Context, candidateID, assignmentID uuid.UUID, durationSeconds int, questionIDs []string) (*model.TestSession, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.TestSession, error)
	GetByCandidateAndAssignment(ctx context.Context, candidateID, assignmentID uuid.UUID) (*model.TestSession, error)
	ListByCandidate(ctx context.Context, candidateID uuid.UUID) ([]model.TestSession, error)
	ListByProcedure(ctx context.Context, procedureID uuid.UUID) ([]model.TestSession, error)
	SaveAnswers(ctx context.Context, id uuid.UUID, answers map[string]model.AnswerValue) (bool, error)
	Complete(ctx context.Context, id uuid.UUID, answers map[string]model.AnswerValue, score, maxScore int, passed bool, completedAt time.Time) (bool, error)
	CompleteExpired(ctx context.Context, id uuid.UUID, score, maxScore int, passed bool, completedAt time.Time) (bool, error)
	TouchLastAccessed(ctx context.Context, id uuid.UUID) error
}

// AssignmentStore reads test assignments and their backing tests.
type AssignmentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error)
	ListByProcedure(ctx context.Context, procedureID uuid.UUID) ([]model.Assignment, error)
	GetTest(ctx context.Context, testID uuid.UUID) (*model.Test, error)
}

// ProcedureStore reads selection procedures.
type ProcedureStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Procedure, error)
}

// CandidateStore reads candidates.
type CandidateStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Candidate, error)
	GetByIdentifier(ctx context.Context, identifier string) (*model.Candidate, error)
	ListByProcedure(ctx context.Context, procedureID uuid.UUID) ([]model.Candidate, error)
}

// AdminStore reads administrator accounts.
type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (*model.Admin, error)
}

// ResultStore persists the immutable result archive.
type ResultStore interface {
	Insert(ctx context.Context, res *model.TestResult) error
	GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.TestResult, error)
}

// PayloadProvider serves the sanitized candidate-facing test document for
// an assignment. Satisfied by TestPayloadService.
type PayloadProvider interface {
	GetPayload(ctx context.Context, assignment *model.Assignment) (*model.TestPayload, error)
}

// ResultQueue hands completed sessions to the archive worker. Enqueue is
// best-effort; a failed enqueue must never fail the submit that produced it.
type ResultQueue interface {
	Enqueue(ctx context.Context, res *model.TestResult) error
}
