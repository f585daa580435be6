package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ClassStatus string

const (
	ClassDraft  ClassStatus = "draft"
	ClassOpen   ClassStatus = "open"
	ClassClosed ClassStatus = "closed"
)

type ClassFormat string

const (
	FormatOnline ClassFormat = "ONLINE"
	FormatOnsite ClassFormat = "ONSITE"
)

// UnlimitedParticipants is the capacity sentinel carried over from the legacy
// schema: a class with max_participants == 999 accepts any number of registrants.
const UnlimitedParticipants = 999

type ClassSession struct {
	ID uint `json:"id" gorm:"primaryKey"`

	// Public identifier, a unique 6-digit numeric string generated at creation time.
	ClassID string `json:"class_id" gorm:"uniqueIndex;not null;size:6"`

	Title       string         `json:"title" gorm:"not null;size:255;index" validate:"required,min=1,max=255"`
	Speaker     datatypes.JSON `json:"speaker" gorm:"type:jsonb"` // ordered list of speaker names
	Description *string        `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`

	StartDate string `json:"start_date" gorm:"size:10"` // YYYY-MM-DD
	EndDate   string `json:"end_date" gorm:"size:10"`
	StartTime string `json:"start_time" gorm:"size:8"` // HH:MM or HH:MM:SS
	EndTime   string `json:"end_time" gorm:"size:8"`

	Format   ClassFormat `json:"format" gorm:"size:10;default:ONLINE" validate:"omitempty,oneof=ONLINE ONSITE"`
	JoinLink *string     `json:"join_link" gorm:"size:500"`
	Location *string     `json:"location" gorm:"size:255"`
	Language string      `json:"language" gorm:"size:5;default:TH"`

	MaxParticipants int            `json:"max_participants" gorm:"not null;default:999" validate:"required,min=1,max=999"`
	TargetGroups    datatypes.JSON `json:"target_groups" gorm:"type:jsonb"`

	Status   ClassStatus `json:"status" gorm:"size:10;default:open;index" validate:"omitempty,oneof=draft open closed"`
	Promoted bool        `json:"promoted" gorm:"default:false;index"`

	// Ordered list of participant emails. Mutated only inside the registration
	// transaction under a row lock; never written from cached state.
	RegisteredUsers datatypes.JSON `json:"registered_users" gorm:"type:jsonb"`

	Materials datatypes.JSON `json:"materials" gorm:"type:jsonb"` // stored file names
	VideoLink *string        `json:"video_link" gorm:"size:500"`

	CreatedByEmail string         `json:"created_by_email" gorm:"not null;index;size:255"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	// Computed fields (not stored)
	RegisteredCount int `json:"registered_count" gorm:"-"`
}

func (ClassSession) TableName() string {
	return "classes"
}

// Roster decodes the registered_users column. Legacy rows can hold NULL,
// a double-encoded string, or garbage; all of those decode to an empty roster.
func (c *ClassSession) Roster() []string {
	return decodeEmailList(c.RegisteredUsers)
}

// SetRoster re-encodes the participant list. Encoding a plain string slice
// cannot fail, so the error is discarded.
func (c *ClassSession) SetRoster(emails []string) {
	if emails == nil {
		emails = []string{}
	}
	raw, _ := json.Marshal(emails)
	c.RegisteredUsers = raw
}

// Unlimited reports whether the class carries the open-capacity sentinel.
func (c *ClassSession) Unlimited() bool {
	return c.MaxParticipants == UnlimitedParticipants
}

// Speakers decodes the speaker column into a list of names.
func (c *ClassSession) Speakers() []string {
	return decodeEmailList(c.Speaker)
}

func decodeEmailList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	// Double-encoded value ("\"[...]\"") left behind by the old importer.
	var nested string
	if err := json.Unmarshal(raw, &nested); err == nil {
		if err := json.Unmarshal([]byte(nested), &list); err == nil {
			return list
		}
	}
	return []string{}
}
