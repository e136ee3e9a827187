package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/dewelsk/vk-testing-backend/internal/config"
	"github.com/dewelsk/vk-testing-backend/internal/database"
	"github.com/dewelsk/vk-testing-backend/internal/logger"
	"github.com/dewelsk/vk-testing-backend/internal/model"
	"github.com/dewelsk/vk-testing-backend/internal/repository"
	"github.com/dewelsk/vk-testing-backend/internal/service"
)

// Seeds one demo selection procedure with two test levels and three
// candidates, then warms the payload cache. Intended for local development
// only.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Procedure ─────────────────────────────────────────────────────
	var procedureID uuid.UUID
	err = pool.QueryRow(ctx,
		`INSERT INTO procedures (identifier, position, status)
		 VALUES ('VK-2026-001', 'Junior Analyst', 'TESTING')
		 RETURNING id`,
	).Scan(&procedureID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create procedure")
	}

	// ─── Tests ─────────────────────────────────────────────────────────
	level1Questions := []model.Question{
		{
			ID: "q1", Text: "2 + 2 = ?", Type: model.QuestionTypeSingleChoice,
			Options: []model.QuestionOption{{ID: "a", Text: "3"}, {ID: "b", Text: "4"}, {ID: "c", Text: "5"}},
			Correct: json.RawMessage(`"b"`),
		},
		{
			ID: "q2", Text: "Water boils at 100 °C at sea level.", Type: model.QuestionTypeTrueFalse,
			Correct: json.RawMessage(`true`),
		},
		{
			ID: "q3", Text: "Which of these are prime numbers?", Type: model.QuestionTypeMultipleChoice,
			Options: []model.QuestionOption{{ID: "a", Text: "2"}, {ID: "b", Text: "4"}, {ID: "c", Text: "7"}, {ID: "d", Text: "9"}},
			Correct: json.RawMessage(`["a","c"]`),
		},
	}
	level2Questions := []model.Question{
		{
			ID: "q1", Text: "Describe a situation where you resolved a conflict in a team.", Type: model.QuestionTypeOpenEnded,
		},
		{
			ID: "q2", Text: "A process holding one resource while waiting for another can cause a:",
			Type:    model.QuestionTypeSingleChoice,
			Options: []model.QuestionOption{{ID: "a", Text: "Deadlock"}, {ID: "b", Text: "Cache miss"}, {ID: "c", Text: "Page fault"}},
			Correct: json.RawMessage(`"a"`),
		},
	}

	test1ID := seedTest(ctx, pool, log, "General Knowledge", level1Questions)
	test2ID := seedTest(ctx, pool, log, "Professional Assessment", level2Questions)

	// ─── Assignments ───────────────────────────────────────────────────
	seedAssignment(ctx, pool, log, procedureID, test1ID, 1, 600, 3, 2)
	seedAssignment(ctx, pool, log, procedureID, test2ID, 2, 900, 2, 1)

	// ─── Candidates ────────────────────────────────────────────────────
	candidateRepo := repository.NewCandidateRepository(pool)
	demoCandidates := []struct{ identifier, name, surname string }{
		{"candidate1", "Jana", "Nováková"},
		{"candidate2", "Peter", "Horváth"},
		{"candidate3", "Eva", "Kováčová"},
	}
	for _, d := range demoCandidates {
		hash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), cfg.BcryptCost)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to hash password")
		}
		c := &model.Candidate{
			ProcedureID:  procedureID,
			Identifier:   d.identifier,
			Name:         d.name,
			Surname:      d.surname,
			PasswordHash: string(hash),
			Active:       true,
		}
		if err := candidateRepo.Create(ctx, c); err != nil {
			log.Fatal().Err(err).Str("identifier", d.identifier).Msg("Failed to create candidate")
		}
	}

	// ─── Warm payload cache ────────────────────────────────────────────
	assignmentRepo := repository.NewAssignmentRepository(pool)
	payloadService := service.NewTestPayloadService(assignmentRepo, rdb)
	if err := payloadService.WarmProcedure(ctx, procedureID); err != nil {
		log.Warn().Err(err).Msg("Payload cache warm failed")
	}

	fmt.Printf("Demo procedure seeded: %s (candidates: candidate1..3 / demo1234)\n", procedureID)
}

func seedTest(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, name string, questions []model.Question) uuid.UUID {
	data, err := json.Marshal(questions)
	if err != nil {
		log.Fatal().Err(err).Str("test", name).Msg("Failed to encode questions")
	}

	var id uuid.UUID
	err = pool.QueryRow(ctx,
		`INSERT INTO tests (name, questions) VALUES ($1, $2) RETURNING id`,
		name, data,
	).Scan(&id)
	if err != nil {
		log.Fatal().Err(err).Str("test", name).Msg("Failed to create test")
	}
	return id
}

func seedAssignment(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, procedureID, testID uuid.UUID, level, durationSeconds, questionCount, minScore int) {
	_, err := pool.Exec(ctx,
		`INSERT INTO vk_tests (procedure_id, test_id, level, duration_seconds,
		                       question_count, min_score, score_per_question, selection_mode)
		 VALUES ($1, $2, $3, $4, $5, $6, 1, 'SEQUENTIAL')`,
		procedureID, testID, level, durationSeconds, questionCount, minScore)
	if err != nil {
		log.Fatal().Err(err).Int("level", level).Msg("Failed to create assignment")
	}
}
