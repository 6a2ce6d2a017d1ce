package models

import (
	"time"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

type User struct {
	ID           uint64 `gorm:"primarykey" json:"id"`
	Username     string `gorm:"type:varchar(30);uniqueIndex;not null" json:"username"`
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"`
	Role         Role   `gorm:"type:varchar(20);not null;default:'user'" json:"role"`

	// Verification state. Admin-provisioned accounts start verified but keep
	// a live token until the one-time password setup completes.
	EmailVerified         bool       `gorm:"not null;default:false" json:"email_verified"`
	VerificationToken     *string    `gorm:"type:varchar(64);index" json:"-"`
	VerificationExpiry    *time.Time `json:"-"`
	AdminProvisioned      bool       `gorm:"not null;default:false" json:"admin_provisioned"`
	RequiresPasswordSetup bool       `gorm:"not null;default:false" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Sessions      []Session      `gorm:"foreignKey:UserID" json:"-"`
	Notifications []Notification `gorm:"foreignKey:UserID" json:"-"`
}

// CanLogin reports whether the account may authenticate at all. Unverified
// self-registered accounts are locked out until they confirm their email.
func (u *User) CanLogin() bool {
	return u.EmailVerified || u.AdminProvisioned
}
