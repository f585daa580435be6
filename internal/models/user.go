package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RoleAdmin is the role name that grants access to the administration surface.
// Sub-levels live in admin_permissions.
const RoleAdmin = "admin"

type User struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Name  string `json:"name" gorm:"size:255"`
	Email string `json:"email" gorm:"uniqueIndex;not null;size:255" validate:"required,email"`

	// Role names as a JSON array. The relation to classes is by email only,
	// matching the registered_users roster.
	Roles datatypes.JSON `json:"roles" gorm:"type:jsonb"`

	Phone *string `json:"phone" gorm:"size:20"`
	Photo *string `json:"photo" gorm:"size:255"`

	PDPAConsent      bool `json:"pdpa" gorm:"column:pdpa;default:false"`
	ProfileCompleted bool `json:"profile_completed" gorm:"default:false"`
	IsActive         bool `json:"is_active" gorm:"default:true;index"`

	// Set when the user edits the display name imported from the directory.
	OriginalName      *string `json:"original_name" gorm:"size:255"`
	NameUpdatedByUser bool    `json:"name_updated_by_user" gorm:"default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	AdminPermission *AdminPermission `json:"admin_permission,omitempty" gorm:"foreignKey:UserID"`
}

func (User) TableName() string {
	return "users"
}

// RoleNames decodes the roles column; malformed values decode to no roles.
func (u *User) RoleNames() []string {
	if len(u.Roles) == 0 {
		return []string{}
	}
	var roles []string
	if err := json.Unmarshal(u.Roles, &roles); err != nil {
		return []string{}
	}
	return roles
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.RoleNames() {
		if r == role {
			return true
		}
	}
	return false
}

func (u *User) SetRoles(roles []string) {
	if roles == nil {
		roles = []string{}
	}
	raw, _ := json.Marshal(roles)
	u.Roles = raw
}

// AdminLevel returns the granted admin sub-level, 0 when the user is not an admin.
func (u *User) AdminLevel() int {
	if u.AdminPermission == nil {
		return 0
	}
	return u.AdminPermission.AdminLevel
}

type AdminPermission struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	AdminLevel int       `json:"admin_level" gorm:"not null;default:1" validate:"min=1,max=3"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (AdminPermission) TableName() string {
	return "admin_permissions"
}
