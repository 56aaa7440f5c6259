package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casapps/cascontacts/src/internal/database/models"
	apperrors "github.com/casapps/cascontacts/src/internal/errors"
	"github.com/casapps/cascontacts/src/internal/utils"
)

// ContactInput is the writable part of a contact
type ContactInput struct {
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"max=100"`
}

// SetTagsInput names the tags to attach; missing ones are created
type SetTagsInput struct {
	Tags []string `json:"tags" validate:"required,min=1,dive,required,max=250"`
}

// UnsetTagsInput lists the tag ids to detach
type UnsetTagsInput struct {
	Tags []string `json:"tags" validate:"required,min=1,dive,required"`
}

// ContactService handles contacts and their tags
type ContactService struct {
	db        *gorm.DB
	validator *apperrors.Validator
}

// NewContactService creates a new contact service
func NewContactService(db *gorm.DB, validator *apperrors.Validator) *ContactService {
	if validator == nil {
		validator = apperrors.NewValidator()
	}
	return &ContactService{
		db:        db,
		validator: validator,
	}
}

// Create stores a contact for the account
func (s *ContactService) Create(ctx context.Context, accountID uuid.UUID, input *ContactInput) (*models.Contact, error) {
	if err := s.validator.Struct(ctx, input); err != nil {
		return nil, err
	}

	contact := &models.Contact{
		AccountID: accountID,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(contact).Error
	})
	if err != nil {
		return nil, writeError("failed to create contact", err)
	}

	contact.Tags = []models.Tag{}
	return contact, nil
}

// Get returns a contact of the account with its tags
func (s *ContactService) Get(ctx context.Context, accountID uuid.UUID, id string) (*models.Contact, error) {
	return s.load(s.db.WithContext(ctx), accountID, id)
}

// SetTags attaches tags by name. Names are matched within the account and
// created when missing; already attached tags are left alone.
func (s *ContactService) SetTags(ctx context.Context, accountID uuid.UUID, id string, input *SetTagsInput) (*models.Contact, error) {
	if err := s.validator.Struct(ctx, input); err != nil {
		return nil, err
	}

	var contact *models.Contact
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.load(tx, accountID, id)
		if err != nil {
			return err
		}

		for _, raw := range input.Tags {
			name := strings.TrimSpace(raw)
			if name == "" {
				continue
			}

			tag, err := s.findOrCreateTag(tx, accountID, name)
			if err != nil {
				return err
			}

			link := models.ContactTag{
				ContactID: c.ID,
				TagID:     tag.ID,
				AccountID: accountID,
				CreatedAt: time.Now().UTC(),
			}
			var existing int64
			if err := tx.Model(&models.ContactTag{}).
				Where("contact_id = ? AND tag_id = ?", c.ID, tag.ID).
				Count(&existing).Error; err != nil {
				return apperrors.DatabaseError("failed to check tag", err)
			}
			if existing > 0 {
				continue
			}
			if err := tx.Create(&link).Error; err != nil {
				return writeError("failed to attach tag", err)
			}
		}

		contact, err = s.load(tx, accountID, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return contact, nil
}

// UnsetTags detaches the listed tags. Ids that are not attached are ignored.
func (s *ContactService) UnsetTags(ctx context.Context, accountID uuid.UUID, id string, input *UnsetTagsInput) (*models.Contact, error) {
	if err := s.validator.Struct(ctx, input); err != nil {
		return nil, err
	}

	tagIDs := make([]uuid.UUID, 0, len(input.Tags))
	for _, raw := range input.Tags {
		tagID, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperrors.BadParameters(err)
		}
		tagIDs = append(tagIDs, tagID)
	}

	return s.detach(ctx, accountID, id, tagIDs)
}

// UnsetAllTags detaches every tag from the contact
func (s *ContactService) UnsetAllTags(ctx context.Context, accountID uuid.UUID, id string) (*models.Contact, error) {
	return s.detach(ctx, accountID, id, nil)
}

func (s *ContactService) detach(ctx context.Context, accountID uuid.UUID, id string, tagIDs []uuid.UUID) (*models.Contact, error) {
	var contact *models.Contact
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.load(tx, accountID, id)
		if err != nil {
			return err
		}

		query := tx.Where("contact_id = ? AND account_id = ?", c.ID, accountID)
		if tagIDs != nil {
			query = query.Where("tag_id IN ?", tagIDs)
		}
		if err := query.Delete(&models.ContactTag{}).Error; err != nil {
			return apperrors.DatabaseError("failed to detach tags", err)
		}

		contact, err = s.load(tx, accountID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *ContactService) findOrCreateTag(tx *gorm.DB, accountID uuid.UUID, name string) (*models.Tag, error) {
	var tag models.Tag
	err := tx.Where("account_id = ? AND name = ?", accountID, name).First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.DatabaseError("failed to look up tag", err)
	}

	tag = models.Tag{
		AccountID: accountID,
		Name:      name,
		NameSlug:  utils.Slugify(name),
	}
	if err := tx.Create(&tag).Error; err != nil {
		return nil, writeError("failed to create tag", err)
	}
	return &tag, nil
}

func (s *ContactService) load(db *gorm.DB, accountID uuid.UUID, id string) (*models.Contact, error) {
	contactID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.NotFoundError("contact")
	}

	var contact models.Contact
	err = db.Preload("Tags", func(db *gorm.DB) *gorm.DB {
		return db.Where("tags.account_id = ?", accountID).Order("tags.name ASC")
	}).Where("id = ? AND account_id = ?", contactID, accountID).First(&contact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFoundError("contact")
	}
	if err != nil {
		return nil, apperrors.DatabaseError("failed to load contact", err)
	}

	if contact.Tags == nil {
		contact.Tags = []models.Tag{}
	}
	return &contact, nil
}
