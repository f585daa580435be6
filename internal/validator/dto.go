package validator

import (
	"github.com/HSL-KM/class-registration-service/internal/models"
)

// ClassCreateRequest represents the request structure for creating a class session
type ClassCreateRequest struct {
	Title           string             `json:"title" validate:"required,min=1,max=255"`
	Speaker         []string           `json:"speaker" validate:"required,min=1,dive,required"`
	Description     *string            `json:"description" validate:"omitempty,max=2000"`
	StartDate       string             `json:"start_date" validate:"required,date_value"`
	EndDate         string             `json:"end_date" validate:"required,date_value"`
	StartTime       string             `json:"start_time" validate:"required,time_value"`
	EndTime         string             `json:"end_time" validate:"required,time_value"`
	Format          models.ClassFormat `json:"format" validate:"required,oneof=ONLINE ONSITE"`
	JoinLink        *string            `json:"join_link" validate:"omitempty,url,max=500"`
	Location        *string            `json:"location" validate:"omitempty,max=255"`
	Language        string             `json:"language" validate:"omitempty,oneof=TH EN"`
	MaxParticipants int                `json:"max_participants" validate:"required,min=1,max=999"`
	TargetGroups    []string           `json:"target_groups"`
	Materials       []string           `json:"materials"`
}

// ClassUpdateRequest mirrors the create payload; the class keeps its public id.
type ClassUpdateRequest struct {
	Title           string             `json:"title" validate:"required,min=1,max=255"`
	Speaker         []string           `json:"speaker" validate:"required,min=1,dive,required"`
	Description     *string            `json:"description" validate:"omitempty,max=2000"`
	StartDate       string             `json:"start_date" validate:"required,date_value"`
	EndDate         string             `json:"end_date" validate:"required,date_value"`
	StartTime       string             `json:"start_time" validate:"required,time_value"`
	EndTime         string             `json:"end_time" validate:"required,time_value"`
	Format          models.ClassFormat `json:"format" validate:"required,oneof=ONLINE ONSITE"`
	JoinLink        *string            `json:"join_link" validate:"omitempty,url,max=500"`
	Location        *string            `json:"location" validate:"omitempty,max=255"`
	Language        string             `json:"language" validate:"omitempty,oneof=TH EN"`
	MaxParticipants int                `json:"max_participants" validate:"required,min=1,max=999"`
	TargetGroups    []string           `json:"target_groups"`
	ExistingFiles   []string           `json:"existing_files"`
	Materials       []string           `json:"materials"`
}

// ClassCloseRequest closes a class and attaches post-class materials.
type ClassCloseRequest struct {
	VideoLink         *string  `json:"video_link" validate:"omitempty,url,max=500"`
	Materials         []string `json:"materials"`
	ExistingMaterials []string `json:"existing_materials"`
	IsEditing         bool     `json:"is_editing"`
}

// PromoteRequest toggles a class on the promoted shelf.
type PromoteRequest struct {
	Promoted bool `json:"promoted"`
}

// ClassRequestCreate represents a user-submitted class-opening request
type ClassRequestCreate struct {
	Title     string             `json:"title" validate:"required,min=1,max=255"`
	Reason    *string            `json:"reason" validate:"omitempty,max=2000"`
	StartDate *string            `json:"start_date" validate:"omitempty,date_value"`
	EndDate   *string            `json:"end_date" validate:"omitempty,date_value"`
	StartTime *string            `json:"start_time" validate:"omitempty,time_value"`
	EndTime   *string            `json:"end_time" validate:"omitempty,time_value"`
	Format    models.ClassFormat `json:"format" validate:"omitempty,oneof=ONLINE ONSITE"`
	Speaker   *string            `json:"speaker" validate:"omitempty,max=255"`
}

// ClassRequestUpdate re-submits a request; the service resets it to pending.
type ClassRequestUpdate = ClassRequestCreate

// RequestActionRequest is the admin approve/reject payload.
type RequestActionRequest struct {
	Action string  `json:"action" validate:"required,oneof=approve reject"`
	Reason *string `json:"reason" validate:"omitempty,max=2000"`
}

// EvaluationSubmitRequest scores a completed class.
type EvaluationSubmitRequest struct {
	ClassID       string  `json:"class_id" validate:"required,class_id"`
	ScoreContent  int     `json:"score_content" validate:"required,min=1,max=5"`
	ScoreMaterial int     `json:"score_material" validate:"required,min=1,max=5"`
	ScoreDuration int     `json:"score_duration" validate:"required,min=1,max=5"`
	ScoreFormat   int     `json:"score_format" validate:"required,min=1,max=5"`
	ScoreSpeaker  int     `json:"score_speaker" validate:"required,min=1,max=5"`
	Comment       *string `json:"comment" validate:"omitempty,max=2000"`
}

// ProfileUpdateRequest completes or edits the caller's own profile.
type ProfileUpdateRequest struct {
	Name              string   `json:"name" validate:"required,min=1,max=255"`
	Roles             []string `json:"roles" validate:"required,min=1"`
	Phone             *string  `json:"phone" validate:"omitempty,max=20"`
	PDPAConsent       bool     `json:"pdpa"`
	OriginalName      *string  `json:"original_name" validate:"omitempty,max=255"`
	NameUpdatedByUser bool     `json:"name_updated_by_user"`
}

// AppointAdminRequest grants the admin role with a sub-level.
type AppointAdminRequest struct {
	UserID     uint `json:"user_id" validate:"required"`
	AdminLevel int  `json:"admin_level" validate:"required,min=1,max=3"`
}

// AdminLevelRequest changes an existing admin's sub-level.
type AdminLevelRequest struct {
	AdminLevel int `json:"admin_level" validate:"required,min=1,max=3"`
}

// RolesUpdateRequest replaces a user's role list.
type RolesUpdateRequest struct {
	Roles []string `json:"roles" validate:"required"`
}

// StatusUpdateRequest toggles a user's active flag.
type StatusUpdateRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// CheckOrCreateUserRequest is the OAuth-callback follow-up payload.
type CheckOrCreateUserRequest struct {
	Email string `json:"email" validate:"required,email"`
}
