package models

import (
	"time"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// ClassRequest is a user-submitted proposal for a class the library does not
// offer yet. Admins approve or reject it from the administration panel.
type ClassRequest struct {
	ID     uint   `json:"request_id" gorm:"primaryKey;column:request_id"`
	Title  string `json:"title" gorm:"not null;size:255" validate:"required,min=1,max=255"`
	Reason *string `json:"reason" gorm:"type:text" validate:"omitempty,max=2000"`

	StartDate *string `json:"start_date" gorm:"size:10"`
	EndDate   *string `json:"end_date" gorm:"size:10"`
	StartTime *string `json:"start_time" gorm:"size:8"`
	EndTime   *string `json:"end_time" gorm:"size:8"`

	Format           ClassFormat `json:"format" gorm:"size:10;default:ONLINE" validate:"omitempty,oneof=ONLINE ONSITE"`
	SuggestedSpeaker *string     `json:"suggested_speaker" gorm:"size:255"`

	RequestedByEmail string  `json:"requested_by_email" gorm:"column:user_email;not null;index;size:255"`
	RequestedByName  *string `json:"requested_by_name" gorm:"size:255"`

	Status          RequestStatus `json:"status" gorm:"size:10;default:pending;index"`
	RejectionReason *string       `json:"rejection_reason" gorm:"type:text"`
	AdminComment    *string       `json:"admin_comment" gorm:"type:text"`
	ActionByEmail   *string       `json:"action_by_email" gorm:"size:255"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ClassRequest) TableName() string {
	return "class_requests"
}
