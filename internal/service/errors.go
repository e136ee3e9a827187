package service

import "errors"

// Domain errors returned by the services. Handlers map them to HTTP error
// codes; everything unlisted surfaces as an internal error.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("candidate account is inactive")

	ErrTestingNotOpen   = errors.New("procedure is not in the testing phase")
	ErrNotAssigned      = errors.New("assignment does not belong to the candidate's procedure")
	ErrLevelLocked      = errors.New("previous level has not been passed")
	ErrAlreadyStarted   = errors.New("session already exists for this assignment")
	ErrTimeExpired      = errors.New("session time limit has expired")
	ErrAlreadyCompleted = errors.New("session is already completed")
	ErrNotCompleted     = errors.New("session is not completed yet")
	ErrForbidden        = errors.New("resource belongs to another candidate")
)
