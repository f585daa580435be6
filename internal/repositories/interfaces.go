package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/HSL-KM/class-registration-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type ClassFilters struct {
	Status         *models.ClassStatus `json:"status"`
	CreatedByEmail *string             `json:"created_by_email"`
	Promoted       *bool               `json:"promoted"`
	Search         string              `json:"search"`
	Limit          int                 `json:"limit"`
	Offset         int                 `json:"offset"`
	SortBy         string              `json:"sort_by"`    // "created_at", "start_date", "title"
	SortOrder      string              `json:"sort_order"` // "asc", "desc"
}

type UserFilters struct {
	Search   string `json:"search"` // prefix match on name or email
	IsActive *bool  `json:"is_active"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
}

type RequestFilters struct {
	Status    *models.RequestStatus `json:"status"`
	UserEmail *string               `json:"user_email"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
}

type ActivityLogFilters struct {
	Search     string     `json:"search"` // matches user_name or user_email
	ActionType string     `json:"action_type"`
	DateFrom   *time.Time `json:"date_from"`
	DateTo     *time.Time `json:"date_to"`
	Limit      int        `json:"limit"`
	Offset     int        `json:"offset"`
}

// ===== REPOSITORY INTERFACES =====

// ClassRepository owns the classes table. GetByClassIDForUpdate is the entry
// point of the registration transaction: it must be called with the tx handle
// passed by WithTransaction and acquires an exclusive row lock.
type ClassRepository interface {
	Create(ctx context.Context, tx *gorm.DB, class *models.ClassSession) error
	GetByClassID(ctx context.Context, tx *gorm.DB, classID string) (*models.ClassSession, error)
	GetByClassIDForUpdate(ctx context.Context, tx *gorm.DB, classID string) (*models.ClassSession, error)
	Update(ctx context.Context, tx *gorm.DB, class *models.ClassSession) error
	UpdateRoster(ctx context.Context, tx *gorm.DB, classID string, roster []string) error
	Delete(ctx context.Context, tx *gorm.DB, classID string) error

	List(ctx context.Context, tx *gorm.DB, filters ClassFilters) ([]*models.ClassSession, int64, error)
	ListPromoted(ctx context.Context, tx *gorm.DB) ([]*models.ClassSession, error)
	ListClosedRegisteredBy(ctx context.Context, tx *gorm.DB, email string) ([]*models.ClassSession, error)

	ExistsByClassID(ctx context.Context, tx *gorm.DB, classID string) (bool, error)
}

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*models.User, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	List(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)

	// Admin-role management
	ListAdmins(ctx context.Context, tx *gorm.DB) ([]*models.User, error)
	AdminEmails(ctx context.Context, tx *gorm.DB) ([]string, error)
	CountActiveAdmins(ctx context.Context, tx *gorm.DB) (int64, error)
	UpsertAdminPermission(ctx context.Context, tx *gorm.DB, userID uint, level int) error
	DeleteAdminPermission(ctx context.Context, tx *gorm.DB, userID uint) error
}

type ClassRequestRepository interface {
	Create(ctx context.Context, tx *gorm.DB, req *models.ClassRequest) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ClassRequest, error)
	Update(ctx context.Context, tx *gorm.DB, req *models.ClassRequest) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, filters RequestFilters) ([]*models.ClassRequest, int64, error)
}

type EvaluationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, eval *models.Evaluation) error
	ExistsByClassAndUser(ctx context.Context, tx *gorm.DB, classID, userEmail string) (bool, error)
	ListByClass(ctx context.Context, tx *gorm.DB, classID string) ([]*models.Evaluation, error)
	EvaluatedClassIDs(ctx context.Context, tx *gorm.DB, userEmail string) ([]string, error)
}

type ActivityLogRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *models.ActivityLog) error
	List(ctx context.Context, tx *gorm.DB, filters ActivityLogFilters) ([]*models.ActivityLog, int64, error)
	ListAll(ctx context.Context, tx *gorm.DB, filters ActivityLogFilters) ([]*models.ActivityLog, error)
}
