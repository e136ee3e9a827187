package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden           ErrCode = "FORBIDDEN"
	ErrCandidateAccessOnly ErrCode = "CANDIDATE_ACCESS_ONLY"
	ErrAdminAccessOnly     ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrInvalidAnswers ErrCode = "INVALID_ANSWERS"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Session-specific ──────────────────────────────────────────────
	ErrTestingNotOpen   ErrCode = "TESTING_NOT_OPEN"
	ErrLevelLocked      ErrCode = "LEVEL_LOCKED"
	ErrAlreadyStarted   ErrCode = "ALREADY_STARTED"
	ErrTimeExpired      ErrCode = "TIME_EXPIRED"
	ErrAlreadyCompleted ErrCode = "ALREADY_COMPLETED"
	ErrNotCompleted     ErrCode = "NOT_COMPLETED"
	ErrNotAssigned      ErrCode = "NOT_ASSIGNED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Incorrect identifier or password."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."
	case ErrTokenExpired:
		return "Authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrCandidateAccessOnly:
		return "This resource is restricted to candidates."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Check the field details."
	case ErrInvalidID:
		return "The provided ID is not valid."
	case ErrInvalidPayload:
		return "The request payload could not be parsed."
	case ErrInvalidAnswers:
		return "One or more answers are not valid for this test."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The requested resource was not found."
	case ErrConflict:
		return "The request conflicts with the current state."

	// ─── Session-specific ──────────────────────────────────────────────
	case ErrTestingNotOpen:
		return "The selection procedure is not open for testing."
	case ErrLevelLocked:
		return "This test level is locked. Complete and pass the previous level first."
	case ErrAlreadyStarted:
		return "A session for this test already exists."
	case ErrTimeExpired:
		return "The time limit for this test has expired."
	case ErrAlreadyCompleted:
		return "This test session has already been completed."
	case ErrNotCompleted:
		return "This test session has not been completed yet."
	case ErrNotAssigned:
		return "This test does not belong to your selection procedure."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unknown error occurred."
	}
}
