package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact is a person tracked by an account
type Contact struct {
	ID        uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"id"`
	AccountID uuid.UUID `gorm:"type:varchar(36);index;not null" json:"account_id"`
	FirstName string    `gorm:"size:50;not null" json:"first_name"`
	LastName  string    `gorm:"size:100" json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Tags []Tag `gorm:"many2many:contact_tag;" json:"tags,omitempty"`
}

// BeforeCreate hooks
func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
