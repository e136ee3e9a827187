package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dewelsk/vk-testing-backend/internal/config"
	"github.com/dewelsk/vk-testing-backend/internal/model"
)

// TestPayloadService caches the sanitized, candidate-facing test document
// per assignment in Redis. Correctness keys are stripped before the payload
// ever reaches the cache, so a leaked cache entry exposes no answer key.
// Reads fall back to the database on a miss and heal the cache in passing.
type TestPayloadService struct {
	assignments AssignmentStore
	rdb         *redis.Client
	logger      zerolog.Logger
}

// NewTestPayloadService creates a new TestPayloadService.
func NewTestPayloadService(assignments AssignmentStore, rdb *redis.Client) *TestPayloadService {
	return &TestPayloadService{
		assignments: assignments,
		rdb:         rdb,
		logger:      log.With().Str("component", "test_payload_service").Logger(),
	}
}

// GetPayload returns the sanitized test payload for an assignment, from
// cache when possible.
func (s *TestPayloadService) GetPayload(ctx context.Context, assignment *model.Assignment) (*model.TestPayload, error) {
	key := config.CacheKey.AssignmentPayloadKey(assignment.ID.String())

	cached, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		payload := &model.TestPayload{}
		if err := json.Unmarshal([]byte(cached), payload); err == nil {
			return payload, nil
		}
		s.logger.Warn().Str("key", key).Msg("corrupt cached payload, rebuilding")
	} else if !errors.Is(err, redis.Nil) {
		s.logger.Warn().Err(err).Str("key", key).Msg("payload cache read failed, falling back to db")
	}

	payload, err := s.buildPayload(ctx, assignment)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, key, payload)
	return payload, nil
}

// WarmProcedure pre-builds the payload cache for every assignment of a
// procedure. Called before a procedure enters TESTING so the first wave of
// session starts never stampedes the database.
func (s *TestPayloadService) WarmProcedure(ctx context.Context, procedureID uuid.UUID) error {
	assignments, err := s.assignments.ListByProcedure(ctx, procedureID)
	if err != nil {
		return fmt.Errorf("list assignments: %w", err)
	}
	for i := range assignments {
		payload, err := s.buildPayload(ctx, &assignments[i])
		if err != nil {
			return fmt.Errorf("build payload for assignment %s: %w", assignments[i].ID, err)
		}
		s.cache(ctx, config.CacheKey.AssignmentPayloadKey(assignments[i].ID.String()), payload)
	}
	s.logger.Info().Int("assignments", len(assignments)).Msg("payload cache warmed")
	return nil
}

func (s *TestPayloadService) buildPayload(ctx context.Context, assignment *model.Assignment) (*model.TestPayload, error) {
	test, err := s.assignments.GetTest(ctx, assignment.TestID)
	if err != nil {
		return nil, fmt.Errorf("load test: %w", err)
	}
	questions := make([]model.CandidateQuestion, 0, len(test.Questions))
	for _, q := range test.Questions {
		questions = append(questions, q.Sanitize())
	}
	return &model.TestPayload{
		AssignmentID: assignment.ID,
		TestID:       test.ID,
		Name:         test.Name,
		Questions:    questions,
	}, nil
}

// cache is best-effort: a write failure degrades to DB reads, nothing more.
func (s *TestPayloadService) cache(ctx context.Context, key string, payload *model.TestPayload) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("encode payload failed")
		return
	}
	if err := s.rdb.Set(ctx, key, data, 0).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("payload cache write failed")
	}
}
