// Package scoring grades a question set against submitted answers. Each
// question type has exactly one scorer, dispatched here. Call sites never
// branch on type strings themselves.
package scoring

import (
	"encoding/json"
	"fmt"

	"github.com/dewelsk/vk-testing-backend/internal/model"
)

// Options tunes policy decisions that vary per deployment.
type Options struct {
	// DefaultPoints is applied to questions that declare no points of their
	// own, taken from the assignment's score_per_question.
	DefaultPoints int
	// IncludeOpenEnded counts open-ended question points toward MaxScore.
	// Off by default: automatic results then reflect only what the engine
	// can actually grade, and manually reviewed points are layered on by
	// the commission outside this engine.
	IncludeOpenEnded bool
}

// Result is the outcome of grading one answer set.
type Result struct {
	Score        int      `json:"score"`
	MaxScore     int      `json:"max_score"`
	Passed       bool     `json:"passed"`
	SuccessRate  float64  `json:"success_rate"`
	Correct      int      `json:"correct"`
	Incorrect    int      `json:"incorrect"`
	Unanswered   int      `json:"unanswered"`
	ManualReview []string `json:"manual_review,omitempty"`
}

// Score grades answers against questions. Unanswered questions contribute
// zero and are never an error. Open-ended questions are excluded from the
// automatic score and flagged for manual review.
func Score(questions []model.Question, answers map[string]model.AnswerValue, minScore int, opts Options) Result {
	var res Result

	gradable := 0
	for _, q := range questions {
		pts := effectivePoints(q, opts)

		if q.Type == model.QuestionTypeOpenEnded {
			res.ManualReview = append(res.ManualReview, q.ID)
			if opts.IncludeOpenEnded {
				res.MaxScore += pts
			}
			if !model.Answered(answers[q.ID]) {
				res.Unanswered++
			}
			continue
		}

		gradable++
		res.MaxScore += pts

		raw, ok := answers[q.ID]
		if !ok || !model.Answered(raw) {
			res.Unanswered++
			continue
		}

		if correct(q, raw) {
			res.Correct++
			res.Score += pts
		} else {
			res.Incorrect++
		}
	}

	if gradable > 0 {
		res.SuccessRate = float64(res.Correct) / float64(gradable) * 100
	}
	res.Passed = res.Score >= minScore
	return res
}

// correct dispatches to the per-type comparator. Malformed answers or
// correctness keys simply score zero.
func correct(q model.Question, raw model.AnswerValue) bool {
	switch q.Type {
	case model.QuestionTypeSingleChoice:
		return singleChoiceCorrect(q, raw)
	case model.QuestionTypeMultipleChoice:
		return multipleChoiceCorrect(q, raw)
	case model.QuestionTypeTrueFalse:
		return trueFalseCorrect(q, raw)
	default:
		return false
	}
}

func singleChoiceCorrect(q model.Question, raw model.AnswerValue) bool {
	var submitted, key string
	if json.Unmarshal(raw, &submitted) != nil {
		return false
	}
	if json.Unmarshal(q.Correct, &key) != nil {
		return false
	}
	return submitted == key
}

// multipleChoiceCorrect awards only on exact set equality; any subset or
// superset mismatch scores zero, no partial credit.
func multipleChoiceCorrect(q model.Question, raw model.AnswerValue) bool {
	var submitted, key []string
	if json.Unmarshal(raw, &submitted) != nil {
		return false
	}
	if json.Unmarshal(q.Correct, &key) != nil {
		return false
	}
	if len(submitted) != len(key) {
		return false
	}
	set := make(map[string]struct{}, len(key))
	for _, id := range key {
		set[id] = struct{}{}
	}
	for _, id := range submitted {
		if _, ok := set[id]; !ok {
			return false
		}
		delete(set, id)
	}
	return len(set) == 0
}

func trueFalseCorrect(q model.Question, raw model.AnswerValue) bool {
	var submitted, key bool
	if json.Unmarshal(raw, &submitted) != nil {
		return false
	}
	if json.Unmarshal(q.Correct, &key) != nil {
		return false
	}
	return submitted == key
}

func effectivePoints(q model.Question, opts Options) int {
	if q.Points > 0 {
		return q.Points
	}
	if opts.DefaultPoints > 0 {
		return opts.DefaultPoints
	}
	return 1
}

// AnswerError describes one rejected answer in a save/submit payload.
type AnswerError struct {
	QuestionID string `json:"question_id"`
	Reason     string `json:"reason"`
}

// AnswerErrors is the validation failure for an answer payload.
type AnswerErrors []AnswerError

func (e AnswerErrors) Error() string {
	if len(e) == 1 {
		return fmt.Sprintf("invalid answer for question %s: %s", e[0].QuestionID, e[0].Reason)
	}
	return fmt.Sprintf("%d invalid answers", len(e))
}

// Fields renders the errors as a field map for the API response envelope.
func (e AnswerErrors) Fields() map[string]string {
	fields := make(map[string]string, len(e))
	for _, ae := range e {
		fields[ae.QuestionID] = ae.Reason
	}
	return fields
}

// ValidateAnswers rejects answers that reference unknown questions or whose
// JSON shape does not match the question's type. Returns nil when the whole
// payload is acceptable.
func ValidateAnswers(questions []model.Question, answers map[string]model.AnswerValue) error {
	byID := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	var errs AnswerErrors
	for qid, raw := range answers {
		q, ok := byID[qid]
		if !ok {
			errs = append(errs, AnswerError{QuestionID: qid, Reason: "unknown question"})
			continue
		}
		if !model.Answered(raw) {
			continue // clearing an answer is always allowed
		}
		if reason := shapeMismatch(q, raw); reason != "" {
			errs = append(errs, AnswerError{QuestionID: qid, Reason: reason})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func shapeMismatch(q model.Question, raw model.AnswerValue) string {
	switch q.Type {
	case model.QuestionTypeSingleChoice:
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return "expected an option id string"
		}
	case model.QuestionTypeMultipleChoice:
		var ids []string
		if json.Unmarshal(raw, &ids) != nil {
			return "expected an array of option ids"
		}
	case model.QuestionTypeTrueFalse:
		var b bool
		if json.Unmarshal(raw, &b) != nil {
			return "expected a boolean"
		}
	case model.QuestionTypeOpenEnded:
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return "expected a text answer"
		}
	default:
		return "unsupported question type"
	}
	return ""
}
