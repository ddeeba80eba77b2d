package tutorAuth

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/tutorAuth/principal"
)

var (
	// ErrEngineNotReady is returned by every Engine method on a zero Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrUnsupported is returned when a role does not participate in a flow
	// (for example Admin registration).
	ErrUnsupported  = errors.New("operation not supported for role")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials covers unknown e-mail, federated-only accounts and
	// wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrOTPInvalid covers missing, expired and mismatching codes alike.
	ErrOTPInvalid        = errors.New("invalid or expired otp")
	ErrResetTokenInvalid = errors.New("reset token invalid or expired")
	ErrAccountUnverified = errors.New("account unverified")
	ErrAccountBlocked    = errors.New("account blocked")
	ErrAlreadyRegistered = errors.New("already registered")
	ErrAlreadyVerified   = errors.New("already verified")
	ErrPrincipalNotFound = errors.New("principal not found")
	ErrInvalidGoogleData = errors.New("invalid google data")
	ErrValidation        = errors.New("validation failed")
	// ErrDependency marks a failure of a collaborator (store, OTP ledger,
	// mailer, token signer). Its details never reach clients.
	ErrDependency = errors.New("dependency failure")
	// ErrSeedInProduction is returned by SeedAdmin when the engine runs in
	// production mode.
	ErrSeedInProduction = errors.New("admin seeding is disabled in production")
)

// ValidationError carries the field that failed and the client-facing
// message. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ErrorClass groups engine errors by how a transport should report them.
type ErrorClass int

const (
	ClassNone ErrorClass = iota
	ClassValidation
	ClassAuthentication
	ClassAuthorization
	ClassConflict
	ClassDependency
	ClassUnsupported
)

func (c ErrorClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassValidation:
		return "validation"
	case ClassAuthentication:
		return "authentication"
	case ClassAuthorization:
		return "authorization"
	case ClassConflict:
		return "conflict"
	case ClassDependency:
		return "dependency"
	case ClassUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Classify maps err onto its class. Unknown errors are treated as
// dependency failures.
func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrInvalidGoogleData),
		errors.Is(err, ErrPrincipalNotFound):
		return ClassValidation
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrOTPInvalid),
		errors.Is(err, ErrResetTokenInvalid),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrAccountUnverified):
		return ClassAuthentication
	case errors.Is(err, ErrAccountBlocked),
		errors.Is(err, ErrSeedInProduction):
		return ClassAuthorization
	case errors.Is(err, ErrAlreadyRegistered),
		errors.Is(err, ErrAlreadyVerified):
		return ClassConflict
	case errors.Is(err, ErrUnsupported),
		errors.Is(err, principal.ErrUnknownRole):
		return ClassUnsupported
	default:
		return ClassDependency
	}
}

// PublicMessage returns the client-facing message for err. Dependency
// failures always collapse to a generic message.
func PublicMessage(role principal.Role, err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, ErrAccountUnverified):
		return "Please verify your email first."
	case errors.Is(err, ErrAccountBlocked):
		return "Your account has been blocked by the administrator. Please contact support."
	case errors.Is(err, ErrAlreadyRegistered):
		return fmt.Sprintf("%s already registered", role)
	case errors.Is(err, ErrAlreadyVerified):
		return fmt.Sprintf("%s already verified", role)
	case errors.Is(err, ErrPrincipalNotFound):
		return fmt.Sprintf("%s not found", role)
	case errors.Is(err, ErrOTPInvalid):
		return "Invalid or expired OTP"
	case errors.Is(err, ErrResetTokenInvalid):
		return "Token is invalid or Expired"
	case errors.Is(err, ErrInvalidGoogleData):
		return "Invalid Google data"
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, ErrSeedInProduction):
		return "Admin seeding is disabled in production"
	case errors.Is(err, ErrUnsupported), errors.Is(err, principal.ErrUnknownRole):
		return "Not found"
	default:
		return "Internal server error"
	}
}
