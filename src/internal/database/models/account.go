package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account is the tenant boundary. Every user, contact and tag belongs to
// exactly one account.
type Account struct {
	ID        uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Users    []User    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Contacts []Contact `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Tags     []Tag     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate hooks
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
