package model

import (
	"time"

	"github.com/google/uuid"
)

// Candidate represents a test-taker registered in a selection procedure.
type Candidate struct {
	ID           uuid.UUID `json:"id"`
	ProcedureID  uuid.UUID `json:"procedure_id"`
	Identifier   string    `json:"identifier"`
	Name         string    `json:"name"`
	Surname      string    `json:"surname"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	RegisteredAt time.Time `json:"registered_at"`
}

// CandidateLoginRequest is the payload for candidate authentication.
type CandidateLoginRequest struct {
	Identifier string `json:"identifier" binding:"required,min=1,max=64"`
	Password   string `json:"password" binding:"required,min=1,max=128"`
}
