package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dewelsk/vk-testing-backend/internal/config"
	"github.com/dewelsk/vk-testing-backend/internal/gating"
	"github.com/dewelsk/vk-testing-backend/internal/model"
	"github.com/dewelsk/vk-testing-backend/internal/scoring"
	"github.com/dewelsk/vk-testing-backend/internal/timing"
)

// SessionService owns the test session lifecycle: start, state reads,
// autosave, submission and result access. All timing decisions use the
// server clock captured at session creation; expiry is detected lazily on
// the next read or write, never by a background job.
type SessionService struct {
	sessions    SessionStore
	assignments AssignmentStore
	procedures  ProcedureStore
	payloads    PayloadProvider
	queue       ResultQueue
	cfg         *config.Config
	logger      zerolog.Logger

	// now is swappable in tests.
	now func() time.Time
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	sessions SessionStore,
	assignments AssignmentStore,
	procedures ProcedureStore,
	payloads PayloadProvider,
	queue ResultQueue,
	cfg *config.Config,
) *SessionService {
	return &SessionService{
		sessions:    sessions,
		assignments: assignments,
		procedures:  procedures,
		payloads:    payloads,
		queue:       queue,
		cfg:         cfg,
		logger:      log.With().Str("component", "session_service").Logger(),
		now:         time.Now,
	}
}

// SessionState is the candidate-facing view of a session. Questions carry no
// correctness keys and RemainingSeconds is computed against the server clock
// at read time.
type SessionState struct {
	SessionID        uuid.UUID                        `json:"session_id"`
	AssignmentID     uuid.UUID                        `json:"assignment_id"`
	TestName         string                           `json:"test_name"`
	Level            int                              `json:"level"`
	Status           model.SessionStatus              `json:"status"`
	RemainingSeconds int                              `json:"remaining_seconds"`
	DurationSeconds  int                              `json:"duration_seconds"`
	Questions        []model.CandidateQuestion        `json:"questions"`
	Answers          map[string]model.AnswerValue     `json:"answers"`
	AnsweredCount    int                              `json:"answered_count"`
	Score            *int                             `json:"score,omitempty"`
	MaxScore         *int                             `json:"max_score,omitempty"`
	Passed           *bool                            `json:"passed,omitempty"`
	CompletedAt      *time.Time                       `json:"completed_at,omitempty"`
}

// SaveReceipt acknowledges an autosave.
type SaveReceipt struct {
	SessionID        uuid.UUID `json:"session_id"`
	AnsweredCount    int       `json:"answered_count"`
	RemainingSeconds int       `json:"remaining_seconds"`
	SavedAt          time.Time `json:"saved_at"`
}

// Outcome is the final result of a completed session.
type Outcome struct {
	SessionID    uuid.UUID `json:"session_id"`
	AssignmentID uuid.UUID `json:"assignment_id"`
	Status       model.SessionStatus `json:"status"`
	Score        int       `json:"score"`
	MaxScore     int       `json:"max_score"`
	SuccessRate  float64   `json:"success_rate"`
	Passed       bool      `json:"passed"`
	CompletedAt  time.Time `json:"completed_at"`
	ManualReview []string  `json:"manual_review,omitempty"`
}

// Start begins a session for an assignment. The procedure must be in
// TESTING, the assignment must belong to the candidate's procedure, and the
// previous level must be passed. The question set is fixed at start time and
// persisted with the session. Concurrent starts race on the database insert;
// the loser gets ErrAlreadyStarted.
func (s *SessionService) Start(ctx context.Context, candidateID, procedureID, assignmentID uuid.UUID) (*SessionState, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment.ProcedureID != procedureID {
		return nil, ErrNotAssigned
	}

	procedure, err := s.procedures.GetByID(ctx, procedureID)
	if err != nil {
		return nil, err
	}
	if procedure.Status != model.ProcedureStatusTesting {
		return nil, ErrTestingNotOpen
	}

	siblings, err := s.assignments.ListByProcedure(ctx, procedureID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	sessions, err := s.sessionsByAssignment(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	// An overdue previous level must finalize here, before gating, so a
	// candidate whose very next request is a start is not locked out of a
	// level their real results already unlocked.
	for id, prev := range sessions {
		final, err := s.FinalizeOverdue(ctx, prev)
		if err != nil {
			return nil, err
		}
		sessions[id] = final
	}
	if decision := gating.Resolve(siblings, sessions, *assignment); decision.Locked {
		return nil, ErrLevelLocked
	}

	test, err := s.assignments.GetTest(ctx, assignment.TestID)
	if err != nil {
		return nil, fmt.Errorf("load test: %w", err)
	}
	questionIDs := selectQuestionIDs(test, assignment)

	sess, created, err := s.sessions.Create(ctx, candidateID, assignmentID, assignment.DurationSeconds, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if !created {
		return nil, ErrAlreadyStarted
	}

	s.logger.Info().
		Str("session_id", sess.ID.String()).
		Str("candidate_id", candidateID.String()).
		Str("assignment_id", assignmentID.String()).
		Int("questions", len(questionIDs)).
		Msg("session started")

	questions, err := s.candidateQuestions(ctx, assignment, sess.QuestionIDs)
	if err != nil {
		return nil, err
	}
	return s.buildState(sess, assignment, questions), nil
}

// Get returns the current state of a session. If the time allowance ran out
// while the session was still IN_PROGRESS, the session is finalized here
// from its stored answers before the state is built.
func (s *SessionService) Get(ctx context.Context, candidateID, sessionID uuid.UUID) (*SessionState, error) {
	sess, assignment, err := s.loadOwned(ctx, candidateID, sessionID)
	if err != nil {
		return nil, err
	}

	if sess.Status == model.SessionStatusInProgress {
		if timing.Expired(sess.ServerStartTime, sess.DurationSeconds, s.now()) {
			test, err := s.assignments.GetTest(ctx, assignment.TestID)
			if err != nil {
				return nil, fmt.Errorf("load test: %w", err)
			}
			sess, err = s.finalizeExpired(ctx, sess, assignment, test)
			if err != nil {
				return nil, err
			}
		} else if err := s.sessions.TouchLastAccessed(ctx, sess.ID); err != nil {
			s.logger.Warn().Err(err).Str("session_id", sess.ID.String()).Msg("touch last accessed failed")
		}
	}

	questions, err := s.candidateQuestions(ctx, assignment, sess.QuestionIDs)
	if err != nil {
		return nil, err
	}
	return s.buildState(sess, assignment, questions), nil
}

// Save overwrites the session's answers. Rejected once the session is
// completed or its time allowance is spent; an expired session is finalized
// from the previously stored answers before the rejection is returned.
func (s *SessionService) Save(ctx context.Context, candidateID, sessionID uuid.UUID, answers map[string]model.AnswerValue) (*SaveReceipt, error) {
	sess, assignment, err := s.loadOwned(ctx, candidateID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == model.SessionStatusCompleted {
		return nil, ErrAlreadyCompleted
	}

	test, err := s.assignments.GetTest(ctx, assignment.TestID)
	if err != nil {
		return nil, fmt.Errorf("load test: %w", err)
	}

	if timing.Expired(sess.ServerStartTime, sess.DurationSeconds, s.now()) {
		if _, err := s.finalizeExpired(ctx, sess, assignment, test); err != nil {
			return nil, err
		}
		return nil, ErrTimeExpired
	}

	if err := scoring.ValidateAnswers(questionsFor(test, sess.QuestionIDs), answers); err != nil {
		return nil, err
	}

	saved, err := s.sessions.SaveAnswers(ctx, sess.ID, answers)
	if err != nil {
		return nil, fmt.Errorf("save answers: %w", err)
	}
	if !saved {
		// Lost a race against a finalizer.
		return nil, ErrAlreadyCompleted
	}

	sess.Answers = answers
	return &SaveReceipt{
		SessionID:        sess.ID,
		AnsweredCount:    sess.AnsweredCount(),
		RemainingSeconds: timing.RemainingSeconds(sess.ServerStartTime, sess.DurationSeconds, s.now()),
		SavedAt:          s.now(),
	}, nil
}

// Submit finalizes a session. Idempotent: submitting a completed session
// returns the stored outcome without error. A submit that arrives after the
// time allowance is scored from the stored answers; the late payload is
// discarded. Of any concurrent finalizers exactly one writes the outcome,
// the rest read it back.
func (s *SessionService) Submit(ctx context.Context, candidateID, sessionID uuid.UUID, answers map[string]model.AnswerValue) (*Outcome, error) {
	sess, assignment, err := s.loadOwned(ctx, candidateID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == model.SessionStatusCompleted {
		return outcomeFromSession(sess), nil
	}

	test, err := s.assignments.GetTest(ctx, assignment.TestID)
	if err != nil {
		return nil, fmt.Errorf("load test: %w", err)
	}
	questions := questionsFor(test, sess.QuestionIDs)

	now := s.now()
	if timing.Expired(sess.ServerStartTime, sess.DurationSeconds, now) {
		final, err := s.finalizeExpired(ctx, sess, assignment, test)
		if err != nil {
			return nil, err
		}
		return outcomeFromSession(final), nil
	}

	merged := mergeAnswers(sess.Answers, answers)
	if err := scoring.ValidateAnswers(questions, merged); err != nil {
		return nil, err
	}

	res := scoring.Score(questions, merged, assignment.MinScore, s.scoringOptions(assignment))

	won, err := s.sessions.Complete(ctx, sess.ID, merged, res.Score, res.MaxScore, res.Passed, now)
	if err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	if !won {
		// Another finalizer got there first; its outcome stands.
		stored, err := s.sessions.GetByID(ctx, sess.ID)
		if err != nil {
			return nil, err
		}
		return outcomeFromSession(stored), nil
	}

	s.logger.Info().
		Str("session_id", sess.ID.String()).
		Int("score", res.Score).
		Int("max_score", res.MaxScore).
		Bool("passed", res.Passed).
		Msg("session submitted")

	s.archive(ctx, sess, merged, res, now)

	out := &Outcome{
		SessionID:    sess.ID,
		AssignmentID: sess.AssignmentID,
		Status:       model.SessionStatusCompleted,
		Score:        res.Score,
		MaxScore:     res.MaxScore,
		SuccessRate:  res.SuccessRate,
		Passed:       res.Passed,
		CompletedAt:  now,
		ManualReview: res.ManualReview,
	}
	return out, nil
}

// Result returns the stored outcome of a completed session.
func (s *SessionService) Result(ctx context.Context, candidateID, sessionID uuid.UUID) (*Outcome, error) {
	sess, assignment, err := s.loadOwned(ctx, candidateID, sessionID)
	if err != nil {
		return nil, err
	}

	if sess.Status == model.SessionStatusInProgress {
		if !timing.Expired(sess.ServerStartTime, sess.DurationSeconds, s.now()) {
			return nil, ErrNotCompleted
		}
		test, err := s.assignments.GetTest(ctx, assignment.TestID)
		if err != nil {
			return nil, fmt.Errorf("load test: %w", err)
		}
		sess, err = s.finalizeExpired(ctx, sess, assignment, test)
		if err != nil {
			return nil, err
		}
	}

	return outcomeFromSession(sess), nil
}

// FinalizeOverdue completes an expired IN_PROGRESS session from its stored
// answers and returns the stored row. Sessions that are completed or still
// within their allowance come back unchanged. Used by aggregate reads
// (dashboard, monitoring) that must not report stale IN_PROGRESS states.
func (s *SessionService) FinalizeOverdue(ctx context.Context, sess *model.TestSession) (*model.TestSession, error) {
	if sess.Status != model.SessionStatusInProgress {
		return sess, nil
	}
	if !timing.Expired(sess.ServerStartTime, sess.DurationSeconds, s.now()) {
		return sess, nil
	}
	assignment, err := s.assignments.GetByID(ctx, sess.AssignmentID)
	if err != nil {
		return nil, fmt.Errorf("load assignment: %w", err)
	}
	test, err := s.assignments.GetTest(ctx, assignment.TestID)
	if err != nil {
		return nil, fmt.Errorf("load test: %w", err)
	}
	return s.finalizeExpired(ctx, sess, assignment, test)
}

// ─── Internals ──────────────────────────────────────────────────────────────

func (s *SessionService) loadOwned(ctx context.Context, candidateID, sessionID uuid.UUID) (*model.TestSession, *model.Assignment, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if sess.CandidateID != candidateID {
		return nil, nil, ErrForbidden
	}
	assignment, err := s.assignments.GetByID(ctx, sess.AssignmentID)
	if err != nil {
		return nil, nil, fmt.Errorf("load assignment: %w", err)
	}
	return sess, assignment, nil
}

// finalizeExpired completes an expired session from its stored answers. The
// completion timestamp is the deadline itself, not the read that detected
// it. The row is re-read first and the update never touches the answers
// column, so a save landing between the caller's snapshot and the update is
// neither dropped from the score nor overwritten. The conditional update
// makes the transition exactly-once under concurrent detection; losers read
// the winner's row back.
func (s *SessionService) finalizeExpired(ctx context.Context, sess *model.TestSession, assignment *model.Assignment, test *model.Test) (*model.TestSession, error) {
	current, err := s.sessions.GetByID(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	if current.Status != model.SessionStatusInProgress {
		return current, nil
	}

	questions := questionsFor(test, current.QuestionIDs)
	res := scoring.Score(questions, current.Answers, assignment.MinScore, s.scoringOptions(assignment))
	deadline := current.ServerStartTime.Add(time.Duration(current.DurationSeconds) * time.Second)

	won, err := s.sessions.CompleteExpired(ctx, current.ID, res.Score, res.MaxScore, res.Passed, deadline)
	if err != nil {
		return nil, fmt.Errorf("finalize expired session: %w", err)
	}
	if won {
		s.logger.Info().
			Str("session_id", current.ID.String()).
			Int("score", res.Score).
			Bool("passed", res.Passed).
			Msg("expired session finalized")
		s.archive(ctx, current, current.Answers, res, deadline)
	}

	stored, err := s.sessions.GetByID(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// archive enqueues the completed session for the result archive worker.
// Best-effort: a queue failure is logged, never surfaced, since the session
// row already holds the authoritative outcome.
func (s *SessionService) archive(ctx context.Context, sess *model.TestSession, answers map[string]model.AnswerValue, res scoring.Result, completedAt time.Time) {
	data, err := json.Marshal(answers)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sess.ID.String()).Msg("encode answers for archive failed")
		return
	}
	result := &model.TestResult{
		SessionID:       sess.ID,
		CandidateID:     sess.CandidateID,
		AssignmentID:    sess.AssignmentID,
		Answers:         data,
		Score:           res.Score,
		MaxScore:        res.MaxScore,
		SuccessRate:     res.SuccessRate,
		Passed:          res.Passed,
		StartedAt:       sess.ServerStartTime,
		CompletedAt:     completedAt,
		DurationSeconds: sess.DurationSeconds,
	}
	if err := s.queue.Enqueue(ctx, result); err != nil {
		s.logger.Error().Err(err).Str("session_id", sess.ID.String()).Msg("enqueue result archive failed")
	}
}

func (s *SessionService) scoringOptions(assignment *model.Assignment) scoring.Options {
	return scoring.Options{
		DefaultPoints:    assignment.ScorePerQuestion,
		IncludeOpenEnded: s.cfg.IncludeOpenEndedInMaxScore,
	}
}

func (s *SessionService) sessionsByAssignment(ctx context.Context, candidateID uuid.UUID) (map[uuid.UUID]*model.TestSession, error) {
	list, err := s.sessions.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	byAssignment := make(map[uuid.UUID]*model.TestSession, len(list))
	for i := range list {
		byAssignment[list[i].AssignmentID] = &list[i]
	}
	return byAssignment, nil
}

// candidateQuestions resolves the session's question set through the
// sanitized payload cache, keeping answer keys out of the hot read path.
func (s *SessionService) candidateQuestions(ctx context.Context, assignment *model.Assignment, questionIDs []string) ([]model.CandidateQuestion, error) {
	payload, err := s.payloads.GetPayload(ctx, assignment)
	if err != nil {
		return nil, fmt.Errorf("load test payload: %w", err)
	}
	byID := make(map[string]model.CandidateQuestion, len(payload.Questions))
	for _, q := range payload.Questions {
		byID[q.ID] = q
	}
	questions := make([]model.CandidateQuestion, 0, len(questionIDs))
	for _, id := range questionIDs {
		if q, ok := byID[id]; ok {
			questions = append(questions, q)
		}
	}
	return questions, nil
}

func (s *SessionService) buildState(sess *model.TestSession, assignment *model.Assignment, sanitized []model.CandidateQuestion) *SessionState {
	state := &SessionState{
		SessionID:        sess.ID,
		AssignmentID:     sess.AssignmentID,
		TestName:         assignment.TestName,
		Level:            assignment.Level,
		Status:           sess.Status,
		DurationSeconds:  sess.DurationSeconds,
		Questions:        sanitized,
		Answers:          sess.Answers,
		AnsweredCount:    sess.AnsweredCount(),
		Score:            sess.Score,
		MaxScore:         sess.MaxScore,
		Passed:           sess.Passed,
		CompletedAt:      sess.CompletedAt,
	}
	if sess.Status == model.SessionStatusInProgress {
		state.RemainingSeconds = timing.RemainingSeconds(sess.ServerStartTime, sess.DurationSeconds, s.now())
	}
	return state
}

func outcomeFromSession(sess *model.TestSession) *Outcome {
	out := &Outcome{
		SessionID:    sess.ID,
		AssignmentID: sess.AssignmentID,
		Status:       sess.Status,
	}
	if sess.Score != nil {
		out.Score = *sess.Score
	}
	if sess.MaxScore != nil {
		out.MaxScore = *sess.MaxScore
	}
	if sess.Passed != nil {
		out.Passed = *sess.Passed
	}
	if sess.CompletedAt != nil {
		out.CompletedAt = *sess.CompletedAt
	}
	if out.MaxScore > 0 {
		out.SuccessRate = float64(out.Score) / float64(out.MaxScore) * 100
	}
	return out
}

// questionsFor maps the session's persisted question id list back onto the
// test definition, preserving the order fixed at start time. Ids that no
// longer resolve are skipped.
func questionsFor(test *model.Test, questionIDs []string) []model.Question {
	byID := make(map[string]model.Question, len(test.Questions))
	for _, q := range test.Questions {
		byID[q.ID] = q
	}
	questions := make([]model.Question, 0, len(questionIDs))
	for _, id := range questionIDs {
		if q, ok := byID[id]; ok {
			questions = append(questions, q)
		}
	}
	return questions
}

// selectQuestionIDs picks the session's question set per the assignment's
// selection mode. A non-positive or oversized question count means the whole
// test is used.
func selectQuestionIDs(test *model.Test, assignment *model.Assignment) []string {
	all := make([]string, len(test.Questions))
	for i, q := range test.Questions {
		all[i] = q.ID
	}

	count := assignment.QuestionCount
	if count <= 0 || count > len(all) {
		count = len(all)
	}

	switch assignment.SelectionMode {
	case model.SelectionModeManual:
		known := make(map[string]struct{}, len(all))
		for _, id := range all {
			known[id] = struct{}{}
		}
		ids := make([]string, 0, len(assignment.ManualQuestionIDs))
		for _, id := range assignment.ManualQuestionIDs {
			if _, ok := known[id]; ok {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			return ids
		}
		return all[:count]
	case model.SelectionModeRandom:
		shuffled := make([]string, len(all))
		copy(shuffled, all)
		rand.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		return shuffled[:count]
	default: // SEQUENTIAL
		return all[:count]
	}
}

// mergeAnswers overlays submitted answers on the stored map without
// mutating either input.
func mergeAnswers(stored, submitted map[string]model.AnswerValue) map[string]model.AnswerValue {
	merged := make(map[string]model.AnswerValue, len(stored)+len(submitted))
	for k, v := range stored {
		merged[k] = v
	}
	for k, v := range submitted {
		merged[k] = v
	}
	return merged
}
