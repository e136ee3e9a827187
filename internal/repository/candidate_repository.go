package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dewelsk/vk-testing-backend/internal/model"
)

// CandidateRepository handles candidate data access.
type CandidateRepository struct {
	pool *pgxpool.Pool
}

// NewCandidateRepository creates a new CandidateRepository.
func NewCandidateRepository(pool *pgxpool.Pool) *CandidateRepository {
	return &CandidateRepository{pool: pool}
}

const candidateColumns = `id, procedure_id, identifier, name, surname, password_hash, active, registered_at`

func scanCandidate(row interface{ Scan(dest ...any) error }) (*model.Candidate, error) {
	c := &model.Candidate{}
	err := row.Scan(&c.ID, &c.ProcedureID, &c.Identifier, &c.Name, &c.Surname,
		&c.PasswordHash, &c.Active, &c.RegisteredAt)
	if err != nil {
		return nil, translate(err)
	}
	return c, nil
}

// GetByID retrieves a candidate by UUID.
func (r *CandidateRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Candidate, error) {
	return scanCandidate(r.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id))
}

// GetByIdentifier retrieves a candidate by their login identifier.
func (r *CandidateRepository) GetByIdentifier(ctx context.Context, identifier string) (*model.Candidate, error) {
	return scanCandidate(r.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE identifier = $1`, identifier))
}

// ListByProcedure retrieves all active candidates of a procedure, ordered by
// registration time.
func (r *CandidateRepository) ListByProcedure(ctx context.Context, procedureID uuid.UUID) ([]model.Candidate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+candidateColumns+`
		 FROM candidates
		 WHERE procedure_id = $1 AND active = TRUE
		 ORDER BY registered_at ASC`, procedureID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []model.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, *c)
	}
	return candidates, rows.Err()
}

// Create inserts a new candidate. Used by seeding tooling; candidate
// management itself lives outside this service.
func (r *CandidateRepository) Create(ctx context.Context, c *model.Candidate) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO candidates (procedure_id, identifier, name, surname, password_hash, active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, registered_at`,
		c.ProcedureID, c.Identifier, c.Name, c.Surname, c.PasswordHash, c.Active,
	).Scan(&c.ID, &c.RegisteredAt)
}
