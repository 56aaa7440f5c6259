package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TagNameMaxLength is the longest name a tag may carry
const TagNameMaxLength = 250

// Tag labels contacts within a single account
type Tag struct {
	ID        uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"id"`
	AccountID uuid.UUID `gorm:"type:varchar(36);index;not null" json:"account_id"`
	Name      string    `gorm:"size:250;not null" json:"name"`
	NameSlug  string    `gorm:"size:250;index" json:"name_slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Contacts []Contact `gorm:"many2many:contact_tag;" json:"-"`
}

// ContactTag represents the many-to-many relationship between contacts and tags
type ContactTag struct {
	ContactID uuid.UUID `gorm:"type:varchar(36);primaryKey"`
	TagID     uuid.UUID `gorm:"type:varchar(36);primaryKey"`
	AccountID uuid.UUID `gorm:"type:varchar(36);index"`
	CreatedAt time.Time
}

// TableName keeps the join table name shared with the many2many tags.
func (ContactTag) TableName() string {
	return "contact_tag"
}

// BeforeCreate hooks
func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
