package model

import (
	"time"

	"github.com/google/uuid"
)

// SelectionMode controls how the question set for a session is chosen from
// the assignment's test at start time.
type SelectionMode string

const (
	SelectionModeRandom     SelectionMode = "RANDOM"
	SelectionModeSequential SelectionMode = "SEQUENTIAL"
	SelectionModeManual     SelectionMode = "MANUAL"
)

// Assignment binds a test to a selection procedure at a given level. Levels
// are totally ordered per procedure starting at 1 and unique per
// (procedure, level). Read-only configuration from the engine's perspective.
type Assignment struct {
	ID                uuid.UUID     `json:"id"`
	ProcedureID       uuid.UUID     `json:"procedure_id"`
	TestID            uuid.UUID     `json:"test_id"`
	Level             int           `json:"level"`
	DurationSeconds   int           `json:"duration_seconds"`
	QuestionCount     int           `json:"question_count"`
	MinScore          int           `json:"min_score"`
	ScorePerQuestion  int           `json:"score_per_question"`
	SelectionMode     SelectionMode `json:"selection_mode"`
	ManualQuestionIDs []string      `json:"manual_question_ids,omitempty"`
	TestName          string        `json:"test_name"`
	CreatedAt         time.Time     `json:"created_at"`
}
