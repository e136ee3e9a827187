package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dewelsk/vk-testing-backend/internal/model"
)

// ProcedureRepository handles selection procedure (VK) data access.
type ProcedureRepository struct {
	pool *pgxpool.Pool
}

// NewProcedureRepository creates a new ProcedureRepository.
func NewProcedureRepository(pool *pgxpool.Pool) *ProcedureRepository {
	return &ProcedureRepository{pool: pool}
}

// GetByID retrieves a procedure by its UUID.
func (r *ProcedureRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Procedure, error) {
	p := &model.Procedure{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, identifier, position, status, created_at, updated_at
		 FROM procedures
		 WHERE id = $1`, id,
	).Scan(&p.ID, &p.Identifier, &p.Position, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}
