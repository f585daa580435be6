package services

import (
	"context"

	"github.com/HSL-KM/class-registration-service/internal/models"
	"github.com/HSL-KM/class-registration-service/internal/repositories"
	"github.com/HSL-KM/class-registration-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Identity is the authenticated caller, resolved by the auth middleware and
// trusted by every service. The registration core never reads the caller's
// email from a request body.
type Identity struct {
	UserID     *uint    `json:"user_id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Roles      []string `json:"roles"`
	AdminLevel int      `json:"admin_level"`
	IPAddress  string   `json:"-"`
}

// IsAdmin reports whether the caller holds any admin sub-level.
func (i Identity) IsAdmin() bool {
	return i.AdminLevel > 0
}

// Use validator DTO types for request payloads
type CreateClassRequest = validator.ClassCreateRequest
type UpdateClassRequest = validator.ClassUpdateRequest
type CloseClassRequest = validator.ClassCloseRequest
type SubmitClassRequest = validator.ClassRequestCreate
type UpdateClassRequestPayload = validator.ClassRequestUpdate
type SubmitEvaluationRequest = validator.EvaluationSubmitRequest
type UpdateProfileRequest = validator.ProfileUpdateRequest
type AppointAdminRequest = validator.AppointAdminRequest

// RegistrationResult is the outcome of a successful Register or Cancel call.
type RegistrationResult struct {
	Message string   `json:"message"`
	ClassID string   `json:"class_id"`
	Roster  []string `json:"-"`
}

type ClassListResponse struct {
	Classes []*models.ClassSession `json:"classes"`
	Total   int64                  `json:"total"`
	Page    int                    `json:"page"`
	Size    int                    `json:"size"`
}

// RegistrantInfo is one roster entry joined with the user profile.
type RegistrantInfo struct {
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Phone *string  `json:"phone"`
	Roles []string `json:"roles"`
}

// EvaluationSummary is the admin view of a class's evaluations.
type EvaluationSummary struct {
	Evaluations []EvaluationEntry `json:"evaluations"`
	Suggestions []string          `json:"suggestions"`
}

type EvaluationEntry struct {
	Name          string   `json:"name"`
	UserRoles     []string `json:"user_roles"`
	ScoreContent  int      `json:"score_content"`
	ScoreMaterial int      `json:"score_material"`
	ScoreDuration int      `json:"score_duration"`
	ScoreFormat   int      `json:"score_format"`
	ScoreSpeaker  int      `json:"score_speaker"`
	Comments      *string  `json:"comments"`
}

// CheckOrCreateResult is the OAuth-callback follow-up response.
type CheckOrCreateResult struct {
	Status string       `json:"status"` // "ok" or "profile_incomplete"
	User   *models.User `json:"user"`
}

type ActivityLogPage struct {
	Logs  []*models.ActivityLog `json:"logs"`
	Total int64                 `json:"total"`
}

// ===== SERVICE INTERFACES =====

// RegistrationService is the registration/cancellation core. Both operations
// run the lock-read-check-write transaction described on ClassRepository.
type RegistrationService interface {
	Register(ctx context.Context, classID string, identity Identity) (*RegistrationResult, error)
	Cancel(ctx context.Context, classID string, identity Identity) (*RegistrationResult, error)
}

type ClassService interface {
	Create(ctx context.Context, req *CreateClassRequest, actor Identity) (*models.ClassSession, error)
	Update(ctx context.Context, classID string, req *UpdateClassRequest, actor Identity) (*models.ClassSession, error)
	Delete(ctx context.Context, classID string, actor Identity) error
	Close(ctx context.Context, classID string, req *CloseClassRequest, actor Identity) error
	SetPromoted(ctx context.Context, classID string, promoted bool, actor Identity) error

	GetByClassID(ctx context.Context, classID string) (*models.ClassSession, error)
	List(ctx context.Context, filters repositories.ClassFilters, actor Identity) (*ClassListResponse, error)
	ListPromoted(ctx context.Context) ([]*models.ClassSession, error)
	ListClosedRegisteredBy(ctx context.Context, email string) ([]*models.ClassSession, error)

	Registrants(ctx context.Context, classID string) ([]RegistrantInfo, error)
	ExportRegistrants(ctx context.Context, classID string) ([]byte, error)
}

type UserService interface {
	CheckOrCreate(ctx context.Context, email string) (*CheckOrCreateResult, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error)
	UpdateProfile(ctx context.Context, req *UpdateProfileRequest, actor Identity) (*models.User, error)
	UpdateRoles(ctx context.Context, id uint, roles []string, actor Identity) (*models.User, error)
	UpdateStatus(ctx context.Context, id uint, isActive bool, actor Identity) error
	Delete(ctx context.Context, id uint, actor Identity) error

	ListAdmins(ctx context.Context) ([]*models.User, error)
	AppointAdmin(ctx context.Context, req *AppointAdminRequest, actor Identity) error
	ChangeAdminLevel(ctx context.Context, userID uint, level int, actor Identity) error
	RevokeAdmin(ctx context.Context, userID uint, actor Identity) error
}

type ClassRequestService interface {
	Submit(ctx context.Context, req *SubmitClassRequest, actor Identity) (*models.ClassRequest, error)
	Update(ctx context.Context, requestID uint, req *UpdateClassRequestPayload, actor Identity) error
	Delete(ctx context.Context, requestID uint, actor Identity) error
	List(ctx context.Context, filters repositories.RequestFilters) ([]*models.ClassRequest, int64, error)
	Resolve(ctx context.Context, requestID uint, action string, reason *string, actor Identity) error
}

type EvaluationService interface {
	Submit(ctx context.Context, req *SubmitEvaluationRequest, actor Identity) error
	EvaluatedClassIDs(ctx context.Context, email string) ([]string, error)
	SummaryByClass(ctx context.Context, classID string) (*EvaluationSummary, error)
}

type ActivityService interface {
	// LogActivity records an audit entry. It is best-effort: failures are
	// logged and swallowed, never surfaced to the caller.
	LogActivity(ctx context.Context, actor Identity, actionType, targetType string, targetID *string, details map[string]interface{})

	List(ctx context.Context, filters repositories.ActivityLogFilters) (*ActivityLogPage, error)
	ExportXLSX(ctx context.Context, filters repositories.ActivityLogFilters) ([]byte, error)
}

// NotificationService dispatches notification events after a committed state
// change. Every method is fire-and-forget from the caller's perspective.
type NotificationService interface {
	SendRegistrationConfirmation(ctx context.Context, email string, class *models.ClassSession, name string) error
	SendAdminRegistrationNotice(ctx context.Context, adminEmails []string, class *models.ClassSession, registrant RegistrantInfo, roster []RegistrantInfo) error
	SendAdminCancellationNotice(ctx context.Context, adminEmails []string, name, email string, class *models.ClassSession, remaining []RegistrantInfo) error
	SendClassRequestSubmitted(ctx context.Context, adminEmails []string, request *models.ClassRequest) error
	SendClassRequestResolved(ctx context.Context, request *models.ClassRequest, approved bool) error
}

// ServiceManager wires all services and owns their lifecycle.
type ServiceManager interface {
	Registration() RegistrationService
	Class() ClassService
	User() UserService
	ClassRequest() ClassRequestService
	Evaluation() EvaluationService
	Activity() ActivityService
	Notification() NotificationService

	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
	HealthCheck(ctx context.Context) error
}
