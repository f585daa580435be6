package services

import "errors"

// Expected, user-facing failure conditions. Handlers map these onto HTTP
// status codes; anything else coming out of a service is a server error.
var (
	// Registration core
	ErrClassNotFound     = errors.New("class not found")
	ErrClassFull         = errors.New("this class is already full")
	ErrAlreadyRegistered = errors.New("you are already registered for this class")
	ErrNotRegistered     = errors.New("you are not registered for this class")
	ErrClassNotOpen      = errors.New("this class is not open for registration")

	// Users and admin management
	ErrUserNotFound    = errors.New("user not found")
	ErrUserInactive    = errors.New("user account is disabled")
	ErrAdminNotFound   = errors.New("admin not found")
	ErrLastAdmin       = errors.New("cannot remove or disable the last admin")
	ErrSelfRevoke      = errors.New("cannot remove yourself")
	ErrEmailTaken      = errors.New("email is already in use")

	// Requests and evaluations
	ErrRequestNotFound     = errors.New("class request not found")
	ErrEvaluationExists    = errors.New("you have already submitted an evaluation for this class")
	ErrEvaluationNotClosed = errors.New("evaluations are only accepted for closed classes")
)

// PermissionError reports an authorization failure with its context.
type PermissionError struct {
	Actor    string
	Resource string
	Action   string
	Reason   string
}

func (e *PermissionError) Error() string {
	return "permission denied: " + e.Action + " " + e.Resource + ": " + e.Reason
}

func NewPermissionError(actor, resource, action, reason string) *PermissionError {
	return &PermissionError{Actor: actor, Resource: resource, Action: action, Reason: reason}
}

// IsPermissionError reports whether err is a PermissionError.
func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}
