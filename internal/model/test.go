package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// QuestionType enumerates the supported question variants. Scoring dispatches
// on this tag centrally; see the scoring package.
type QuestionType string

const (
	QuestionTypeSingleChoice   QuestionType = "SINGLE_CHOICE"
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTypeTrueFalse      QuestionType = "TRUE_FALSE"
	QuestionTypeOpenEnded      QuestionType = "OPEN_ENDED"
)

// Test represents an authored test definition: an ordered list of questions
// stored as a JSONB document, read-only from the engine's point of view.
type Test struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"created_at"`
}

// QuestionOption is a selectable answer option.
type QuestionOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is a single question within a test definition. The shape of
// Correct depends on Type: a JSON string holding the correct option id
// (SINGLE_CHOICE), a JSON array of option ids (MULTIPLE_CHOICE), a JSON bool
// (TRUE_FALSE), or absent (OPEN_ENDED, graded manually).
type Question struct {
	ID      string           `json:"id"`
	Text    string           `json:"text"`
	Type    QuestionType     `json:"type"`
	Points  int              `json:"points,omitempty"`
	Options []QuestionOption `json:"options,omitempty"`
	Correct json.RawMessage  `json:"correct,omitempty"`
}

// CandidateQuestion is a question stripped of its correctness key, safe to
// deliver to a test-taker.
type CandidateQuestion struct {
	ID      string           `json:"id"`
	Text    string           `json:"text"`
	Type    QuestionType     `json:"type"`
	Points  int              `json:"points,omitempty"`
	Options []QuestionOption `json:"options,omitempty"`
}

// Sanitize strips the correctness key from a question.
func (q Question) Sanitize() CandidateQuestion {
	return CandidateQuestion{
		ID:      q.ID,
		Text:    q.Text,
		Type:    q.Type,
		Points:  q.Points,
		Options: q.Options,
	}
}

// TestPayload is the candidate-facing test document cached in Redis:
// questions without correctness keys (no answer key ever leaves the server).
type TestPayload struct {
	AssignmentID uuid.UUID           `json:"assignment_id"`
	TestID       uuid.UUID           `json:"test_id"`
	Name         string              `json:"name"`
	Questions    []CandidateQuestion `json:"questions"`
}
