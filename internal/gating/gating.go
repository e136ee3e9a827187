// Package gating decides whether an assignment level is reachable for a
// candidate. The decision is derived fresh from the candidate's sessions on
// every call and never cached, because a session completing between two
// reads changes the answer.
package gating

import (
	"github.com/google/uuid"

	"github.com/dewelsk/vk-testing-backend/internal/model"
)

// Decision is the gating outcome for one assignment. When Locked, Blocking
// names the assignment that must be passed first.
type Decision struct {
	Locked   bool
	Blocking *model.Assignment
}

// Resolve determines whether target is locked for a candidate, given all of
// the procedure's assignments and the candidate's sessions keyed by
// assignment id. The lowest level is never locked; level L requires a
// COMPLETED and passed session at level L−1. A gap in configured levels
// does not lock; only an existing, unpassed previous level does.
func Resolve(assignments []model.Assignment, sessions map[uuid.UUID]*model.TestSession, target model.Assignment) Decision {
	if target.Level <= 1 {
		return Decision{}
	}

	var previous *model.Assignment
	for i := range assignments {
		if assignments[i].ProcedureID == target.ProcedureID && assignments[i].Level == target.Level-1 {
			previous = &assignments[i]
			break
		}
	}
	if previous == nil {
		return Decision{}
	}

	sess, ok := sessions[previous.ID]
	if !ok || sess.Status != model.SessionStatusCompleted || sess.Passed == nil || !*sess.Passed {
		return Decision{Locked: true, Blocking: previous}
	}
	return Decision{}
}
