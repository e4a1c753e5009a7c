package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrEmailTaken         ErrCode = "EMAIL_ALREADY_REGISTERED"
	ErrEmailNotVerified   ErrCode = "EMAIL_NOT_VERIFIED"
	ErrOTPInvalid         ErrCode = "OTP_INVALID"
	ErrOTPExpired         ErrCode = "OTP_EXPIRED"
	ErrOTPSendFailed      ErrCode = "OTP_SEND_FAILED"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden          ErrCode = "FORBIDDEN"
	ErrPermissionDenied   ErrCode = "PERMISSION_DENIED"
	ErrCandidateOnly      ErrCode = "CANDIDATE_ACCESS_ONLY"
	ErrAdminAccessOnly    ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrNoCorrectOption ErrCode = "NO_CORRECT_OPTION"
	ErrNoTestCases     ErrCode = "NO_TEST_CASES"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"
	ErrDependencyExists ErrCode = "DEPENDENCY_EXISTS"

	// ─── Assessment-specific ───────────────────────────────────────────
	ErrAssessmentUnavailable ErrCode = "ASSESSMENT_NOT_AVAILABLE"
	ErrNoActiveSession       ErrCode = "NO_ACTIVE_SESSION"
	ErrAttemptCompleted      ErrCode = "ATTEMPT_ALREADY_COMPLETED"
	ErrSubmissionFailed      ErrCode = "SUBMISSION_FAILED"
	ErrEmptyStructure        ErrCode = "EMPTY_STRUCTURE"

	// ─── Code runner ───────────────────────────────────────────────────
	ErrSandboxUnavailable ErrCode = "SANDBOX_UNAVAILABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "Invalid email or password."
	case ErrEmailTaken:
		return "This email is already registered."
	case ErrEmailNotVerified:
		return "Please verify your email first."
	case ErrOTPInvalid:
		return "Invalid OTP."
	case ErrOTPExpired:
		return "OTP has expired. Please request a new one."
	case ErrOTPSendFailed:
		return "Failed to send verification email."
	case ErrSessionActive:
		return "You are already logged in on another device."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	case ErrForbidden:
		return "You do not have access to this resource."
	case ErrPermissionDenied:
		return "Permission denied."
	case ErrCandidateOnly:
		return "This resource is restricted to candidates."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."

	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid identifier format."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrNoCorrectOption:
		return "An MCQ question needs at least one correct option."
	case ErrNoTestCases:
		return "A coding question needs at least one test case."

	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrDependencyExists:
		return "This record is still referenced by other data."

	case ErrAssessmentUnavailable:
		return "This assessment is currently not available."
	case ErrNoActiveSession:
		return "No active session for this assessment."
	case ErrAttemptCompleted:
		return "This assessment has already been submitted."
	case ErrSubmissionFailed:
		return "Submission failed. Your answers are kept; please retry."
	case ErrEmptyStructure:
		return "The assessment structure declares no sections."

	case ErrSandboxUnavailable:
		return "The code execution sandbox is unavailable."

	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
