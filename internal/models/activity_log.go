package models

import (
	"time"

	"gorm.io/datatypes"
)

// Action types recorded in the audit trail. Kept as plain strings so new
// actions do not need a schema change.
const (
	ActionLoginSuccess       = "LOGIN_SUCCESS"
	ActionCreateUser         = "CREATE_USER"
	ActionCreateClass        = "CREATE_CLASS"
	ActionUpdateClass        = "UPDATE_CLASS"
	ActionDeleteClass        = "DELETE_CLASS"
	ActionCloseClass         = "CLOSE_CLASS"
	ActionUpdateClosedClass  = "UPDATE_CLOSED_CLASS"
	ActionPromoteClass       = "PROMOTE_CLASS"
	ActionUnpromoteClass     = "UNPROMOTE_CLASS"
	ActionRegisterClass      = "REGISTER_CLASS"
	ActionCancelRegistration = "CANCEL_CLASS_REGISTRATION"
	ActionSubmitRequest      = "SUBMIT_CLASS_REQUEST"
	ActionUpdateRequest      = "UPDATE_CLASS_REQUEST"
	ActionDeleteRequest      = "DELETE_CLASS_REQUEST"
	ActionApproveRequest     = "APPROVE_CLASS_REQUEST"
	ActionRejectRequest      = "REJECT_CLASS_REQUEST"
	ActionSubmitEvaluation   = "SUBMIT_EVALUATION"
	ActionAppointAdmin       = "APPOINT_ADMIN"
	ActionChangeAdminLevel   = "CHANGE_ADMIN_LEVEL"
	ActionRevokeAdmin        = "REVOKE_ADMIN"
)

// Target types for audit entries.
const (
	TargetClass   = "CLASS"
	TargetUser    = "USER"
	TargetRequest = "REQUEST"
	TargetSession = "SESSION"
)

type ActivityLog struct {
	ID uint `json:"id" gorm:"primaryKey"`

	UserID    *uint  `json:"user_id" gorm:"index"`
	UserName  string `json:"user_name" gorm:"size:255"`
	UserEmail string `json:"user_email" gorm:"size:255;index"`

	ActionType string  `json:"action_type" gorm:"not null;size:50;index"`
	TargetType string  `json:"target_type" gorm:"size:20"`
	TargetID   *string `json:"target_id" gorm:"size:64"`

	Details   datatypes.JSON `json:"details" gorm:"type:jsonb"`
	IPAddress string         `json:"ip_address" gorm:"size:45"`

	Timestamp time.Time `json:"timestamp" gorm:"autoCreateTime;index"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
