package scoring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dewelsk/vk-testing-backend/internal/model"
)

func raw(s string) model.AnswerValue { return json.RawMessage(s) }

var mixedQuestions = []model.Question{
	{ID: "q1", Type: model.QuestionTypeSingleChoice, Points: 2, Correct: raw(`"b"`)},
	{ID: "q2", Type: model.QuestionTypeTrueFalse, Points: 1, Correct: raw(`true`)},
	{ID: "q3", Type: model.QuestionTypeMultipleChoice, Points: 3, Correct: raw(`["a","c"]`)},
	{ID: "q4", Type: model.QuestionTypeOpenEnded, Points: 5},
}

func TestScore(t *testing.T) {
	t.Run("all correct passes", func(t *testing.T) {
		answers := map[string]model.AnswerValue{
			"q1": raw(`"b"`),
			"q2": raw(`true`),
			"q3": raw(`["c","a"]`), // order must not matter
			"q4": raw(`"some essay"`),
		}
		res := Score(mixedQuestions, answers, 5, Options{})

		assert.Equal(t, 6, res.Score)
		assert.Equal(t, 6, res.MaxScore)
		assert.True(t, res.Passed)
		assert.Equal(t, 3, res.Correct)
		assert.Equal(t, []string{"q4"}, res.ManualReview)
		assert.InDelta(t, 100.0, res.SuccessRate, 0.001)
	})

	t.Run("partial answers fail below min score", func(t *testing.T) {
		answers := map[string]model.AnswerValue{
			"q1": raw(`"a"`), // wrong
			"q2": raw(`true`),
		}
		res := Score(mixedQuestions, answers, 4, Options{})

		assert.Equal(t, 1, res.Score)
		assert.False(t, res.Passed)
		assert.Equal(t, 1, res.Correct)
		assert.Equal(t, 1, res.Incorrect)
		assert.Equal(t, 2, res.Unanswered) // q3 and q4
	})

	t.Run("multiple choice requires exact set", func(t *testing.T) {
		cases := map[string]string{
			"subset":    `["a"]`,
			"superset":  `["a","c","d"]`,
			"different": `["b","d"]`,
			"duplicate": `["a","a"]`,
		}
		for name, submitted := range cases {
			answers := map[string]model.AnswerValue{"q3": raw(submitted)}
			res := Score(mixedQuestions, answers, 0, Options{})
			assert.Equal(t, 0, res.Score, "case %s should score zero", name)
		}
	})

	t.Run("open ended excluded from max score by default", func(t *testing.T) {
		res := Score(mixedQuestions, nil, 0, Options{})
		assert.Equal(t, 6, res.MaxScore)

		res = Score(mixedQuestions, nil, 0, Options{IncludeOpenEnded: true})
		assert.Equal(t, 11, res.MaxScore)
	})

	t.Run("default points apply to unweighted questions", func(t *testing.T) {
		questions := []model.Question{
			{ID: "q1", Type: model.QuestionTypeTrueFalse, Correct: raw(`false`)},
		}
		answers := map[string]model.AnswerValue{"q1": raw(`false`)}

		res := Score(questions, answers, 0, Options{DefaultPoints: 4})
		assert.Equal(t, 4, res.Score)

		res = Score(questions, answers, 0, Options{})
		assert.Equal(t, 1, res.Score)
	})

	t.Run("empty values count as unanswered", func(t *testing.T) {
		answers := map[string]model.AnswerValue{
			"q1": raw(`""`),
			"q2": raw(`null`),
			"q3": raw(`[]`),
		}
		res := Score(mixedQuestions, answers, 0, Options{})
		assert.Equal(t, 0, res.Score)
		assert.Equal(t, 4, res.Unanswered)
	})

	t.Run("malformed answer scores zero without error", func(t *testing.T) {
		answers := map[string]model.AnswerValue{
			"q2": raw(`"not-a-bool"`),
		}
		res := Score(mixedQuestions, answers, 0, Options{})
		assert.Equal(t, 0, res.Score)
		assert.Equal(t, 1, res.Incorrect)
	})

	t.Run("min score zero always passes", func(t *testing.T) {
		res := Score(mixedQuestions, nil, 0, Options{})
		assert.True(t, res.Passed)
	})
}

func TestValidateAnswers(t *testing.T) {
	t.Run("accepts well formed payload", func(t *testing.T) {
		answers := map[string]model.AnswerValue{
			"q1": raw(`"a"`),
			"q3": raw(`["a","b"]`),
			"q4": raw(`"free text"`),
		}
		assert.NoError(t, ValidateAnswers(mixedQuestions, answers))
	})

	t.Run("rejects unknown question", func(t *testing.T) {
		err := ValidateAnswers(mixedQuestions, map[string]model.AnswerValue{
			"q99": raw(`"a"`),
		})
		var errs AnswerErrors
		require.ErrorAs(t, err, &errs)
		assert.Equal(t, "unknown question", errs.Fields()["q99"])
	})

	t.Run("rejects shape mismatches", func(t *testing.T) {
		err := ValidateAnswers(mixedQuestions, map[string]model.AnswerValue{
			"q1": raw(`["a"]`),   // array where string expected
			"q2": raw(`"yes"`),   // string where bool expected
			"q3": raw(`"a"`),     // string where array expected
		})
		var errs AnswerErrors
		require.ErrorAs(t, err, &errs)
		assert.Len(t, errs, 3)
	})

	t.Run("clearing an answer is allowed", func(t *testing.T) {
		answers := map[string]model.AnswerValue{
			"q1": raw(`null`),
			"q3": raw(`[]`),
		}
		assert.NoError(t, ValidateAnswers(mixedQuestions, answers))
	})
}
