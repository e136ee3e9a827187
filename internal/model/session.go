package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates test session states. The only legal transition is
// IN_PROGRESS → COMPLETED; it never reverses.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
)

// AnswerValue is a candidate's answer to one question. Its JSON shape depends
// on the question type: a string option id, an array of option ids, a bool,
// or free text.
type AnswerValue = json.RawMessage

// Answered reports whether a raw answer value carries content. Empty strings,
// empty arrays and JSON null all count as unanswered. The single source of
// truth for emptiness; counting and scoring both go through it.
func Answered(v AnswerValue) bool {
	s := strings.TrimSpace(string(v))
	return s != "" && s != "null" && s != `""` && s != "[]"
}

// TestSession is one timed attempt at an assignment by a candidate. At most
// one session exists per (candidate, assignment), enforced by a DB unique
// constraint, not application logic. Score, MaxScore, Passed and CompletedAt
// are set exactly once, on the IN_PROGRESS → COMPLETED transition.
type TestSession struct {
	ID              uuid.UUID              `json:"id"`
	CandidateID     uuid.UUID              `json:"candidate_id"`
	AssignmentID    uuid.UUID              `json:"assignment_id"`
	Status          SessionStatus          `json:"status"`
	ServerStartTime time.Time              `json:"server_start_time"`
	DurationSeconds int                    `json:"duration_seconds"`
	Answers         map[string]AnswerValue `json:"answers"`
	QuestionIDs     []string               `json:"question_ids"`
	LastAccessedAt  time.Time              `json:"last_accessed_at"`
	Score           *int                   `json:"score,omitempty"`
	MaxScore        *int                   `json:"max_score,omitempty"`
	Passed          *bool                  `json:"passed,omitempty"`
	CompletedAt     *time.Time             `json:"completed_at,omitempty"`
}

// AnsweredCount returns how many questions carry a non-empty answer.
func (s *TestSession) AnsweredCount() int {
	n := 0
	for _, v := range s.Answers {
		if Answered(v) {
			n++
		}
	}
	return n
}

// StartSessionRequest is the payload for starting a test session.
type StartSessionRequest struct {
	AssignmentID uuid.UUID `json:"assignment_id" binding:"required"`
}

// SaveAnswersRequest is the autosave payload. The stored answers map is
// overwritten wholesale. Last write wins, no merge.
type SaveAnswersRequest struct {
	Answers map[string]AnswerValue `json:"answers" binding:"required"`
}

// SubmitSessionRequest is the final submission payload. Answers are optional;
// when present they are merged over the stored map before scoring.
type SubmitSessionRequest struct {
	Answers map[string]AnswerValue `json:"answers"`
}
