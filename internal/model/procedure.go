package model

import (
	"time"

	"github.com/google/uuid"
)

// ProcedureStatus enumerates the lifecycle states of a selection procedure.
type ProcedureStatus string

const (
	ProcedureStatusPreparation ProcedureStatus = "PREPARATION"
	ProcedureStatusTesting     ProcedureStatus = "TESTING"
	ProcedureStatusEvaluation  ProcedureStatus = "EVALUATION"
	ProcedureStatusClosed      ProcedureStatus = "CLOSED"
)

// Procedure represents a selection procedure (VK), a staged hiring process
// containing level-ordered test assignments.
type Procedure struct {
	ID         uuid.UUID       `json:"id"`
	Identifier string          `json:"identifier"`
	Position   string          `json:"position"`
	Status     ProcedureStatus `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
