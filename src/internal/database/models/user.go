package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultLocale is used for users that never picked a language.
const DefaultLocale = "en"

// User represents a login belonging to an account
type User struct {
	ID               uuid.UUID  `gorm:"type:varchar(36);primaryKey" json:"id"`
	AccountID        uuid.UUID  `gorm:"type:varchar(36);index;not null" json:"account_id"`
	Email            string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FirstName        string     `gorm:"size:100" json:"first_name"`
	LastName         string     `gorm:"size:100" json:"last_name"`
	PasswordHash     string     `gorm:"size:255;not null" json:"-"`
	Locale           string     `gorm:"size:10;default:'en'" json:"locale"`
	TwoFactorEnabled bool       `gorm:"default:false" json:"two_factor_enabled"`
	TwoFactorSecret  string     `gorm:"size:64" json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Relations
	Account Account `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate hooks
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Locale == "" {
		u.Locale = DefaultLocale
	}
	return nil
}
