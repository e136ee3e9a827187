package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TestResult is the immutable archive row written after a session completes,
// kept for historical reporting independently of the session table.
type TestResult struct {
	ID              uuid.UUID       `json:"id"`
	SessionID       uuid.UUID       `json:"session_id"`
	CandidateID     uuid.UUID       `json:"candidate_id"`
	AssignmentID    uuid.UUID       `json:"assignment_id"`
	Answers         json.RawMessage `json:"answers"`
	Score           int             `json:"score"`
	MaxScore        int             `json:"max_score"`
	SuccessRate     float64         `json:"success_rate"`
	Passed          bool            `json:"passed"`
	StartedAt       time.Time       `json:"started_at"`
	CompletedAt     time.Time       `json:"completed_at"`
	DurationSeconds int             `json:"duration_seconds"`
}
