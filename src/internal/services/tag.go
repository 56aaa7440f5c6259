package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casapps/cascontacts/src/internal/cache"
	"github.com/casapps/cascontacts/src/internal/database/models"
	apperrors "github.com/casapps/cascontacts/src/internal/errors"
	"github.com/casapps/cascontacts/src/internal/utils"
)

// DefaultPerPage is used when a listing does not ask for a size
const DefaultPerPage = 15

// Keys a client may send back from a serialized tag. They are owned by the
// server and silently dropped.
var serverControlledTagKeys = map[string]bool{
	"id":         true,
	"object":     true,
	"account":    true,
	"account_id": true,
	"name_slug":  true,
	"created_at": true,
	"updated_at": true,
}

// TagInput is the writable part of a tag
type TagInput struct {
	Name string `json:"name" validate:"required,max=250"`

	// problems that only surface once validation has passed
	badParams error
}

// ParseTagInput reads a tag payload. Syntax errors fail immediately; unknown
// columns and a non-string name are held back so that field validation is
// always reported first.
func ParseTagInput(raw []byte) (*TagInput, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) || len(strings.TrimSpace(string(raw))) == 0 {
			return nil, apperrors.InvalidJSON(err)
		}
		return nil, apperrors.BadParameters(err)
	}

	input := &TagInput{}
	var unknown []string

	for key, value := range fields {
		switch {
		case key == "name":
			input.Name, input.badParams = decodeName(value)
		case serverControlledTagKeys[key]:
		default:
			unknown = append(unknown, key)
		}
	}

	if len(unknown) > 0 && input.badParams == nil {
		sort.Strings(unknown)
		input.badParams = fmt.Errorf("unknown tag fields: %s", strings.Join(unknown, ", "))
	}

	return input, nil
}

// decodeName accepts a JSON string or null. Other scalars are stringified
// so length rules still apply, and flagged as bad parameters.
func decodeName(value json.RawMessage) (string, error) {
	var name *string
	if err := json.Unmarshal(value, &name); err == nil {
		if name == nil {
			return "", nil
		}
		return *name, nil
	}

	var other interface{}
	if err := json.Unmarshal(value, &other); err != nil {
		return "", err
	}
	switch v := other.(type) {
	case float64, bool:
		return fmt.Sprint(v), fmt.Errorf("name must be a string, got %T", v)
	default:
		return "", fmt.Errorf("name must be a string, got %T", v)
	}
}

// TagService handles tag business logic. Every operation is scoped to one
// account; tags of other accounts behave as if they did not exist.
type TagService struct {
	db        *gorm.DB
	cache     *cache.Manager
	validator *apperrors.Validator
	logger    *slog.Logger

	// beforeCache runs between the store read and the cache fill in Get
	beforeCache func()
}

// NewTagService creates a new tag service
func NewTagService(db *gorm.DB, cacheManager *cache.Manager, validator *apperrors.Validator) *TagService {
	if validator == nil {
		validator = apperrors.NewValidator()
	}
	return &TagService{
		db:        db,
		cache:     cacheManager,
		validator: validator,
		logger:    slog.Default().With("service", "tags"),
	}
}

// List returns the account's tags in insertion order
func (s *TagService) List(ctx context.Context, accountID uuid.UUID, params PageParams) (*Page[models.Tag], error) {
	params = params.normalize(DefaultPerPage)

	query := s.db.WithContext(ctx).Model(&models.Tag{}).
		Where("account_id = ?", accountID).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.DatabaseError("failed to count tags", err)
	}

	tags := make([]models.Tag, 0, params.Limit)
	if err := query.Order("created_at ASC").Order("id ASC").
		Offset(params.offset()).Limit(params.Limit).
		Find(&tags).Error; err != nil {
		return nil, apperrors.DatabaseError("failed to list tags", err)
	}

	return &Page[models.Tag]{
		Items:       tags,
		Total:       total,
		CurrentPage: params.Page,
		PerPage:     params.Limit,
	}, nil
}

// Get returns one tag of the account
func (s *TagService) Get(ctx context.Context, accountID uuid.UUID, id string) (*models.Tag, error) {
	tagID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.NotFoundError("tag")
	}
	key := cache.TagKey(accountID.String(), tagID.String())

	var cached models.Tag
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil && cached.AccountID == accountID {
		return &cached, nil
	}

	tag, err := s.find(s.db.WithContext(ctx), accountID, tagID.String())
	if err != nil {
		return nil, err
	}

	if s.beforeCache != nil {
		s.beforeCache()
	}
	if err := s.cache.SetJSON(ctx, key, tag); err != nil {
		s.logger.Warn("failed to cache tag", "tag_id", tag.ID, "error", err)
		return tag, nil
	}

	// A write that committed between the read and the fill has already run
	// its eviction, so confirm the cached copy is still current.
	current, err := s.find(s.db.WithContext(ctx), accountID, tagID.String())
	if err != nil {
		s.forget(ctx, accountID, tagID)
		return nil, err
	}
	if current.Name != tag.Name || !current.UpdatedAt.Equal(tag.UpdatedAt) {
		s.forget(ctx, accountID, tagID)
	}

	return current, nil
}

// Create stores a new tag for the account
func (s *TagService) Create(ctx context.Context, accountID uuid.UUID, input *TagInput) (*models.Tag, error) {
	if err := s.check(ctx, input); err != nil {
		return nil, err
	}

	tag := &models.Tag{
		AccountID: accountID,
		Name:      input.Name,
		NameSlug:  utils.Slugify(input.Name),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(tag).Error
	})
	if err != nil {
		return nil, writeError("failed to create tag", err)
	}

	s.logger.Debug("tag created", "account_id", accountID, "tag_id", tag.ID)
	return tag, nil
}

// Update renames a tag of the account and refreshes its slug
func (s *TagService) Update(ctx context.Context, accountID uuid.UUID, id string, input *TagInput) (*models.Tag, error) {
	tag, err := s.find(s.db.WithContext(ctx), accountID, id)
	if err != nil {
		return nil, err
	}

	if err := s.check(ctx, input); err != nil {
		return nil, err
	}

	tag.Name = input.Name
	tag.NameSlug = utils.Slugify(input.Name)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Save(tag).Error
	})
	if err != nil {
		return nil, writeError("failed to update tag", err)
	}

	s.forget(ctx, accountID, tag.ID)
	return tag, nil
}

// Delete detaches the tag from every contact and removes it
func (s *TagService) Delete(ctx context.Context, accountID uuid.UUID, id string) (uuid.UUID, error) {
	var deleted uuid.UUID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tag, err := s.find(tx, accountID, id)
		if err != nil {
			return err
		}

		if err := tx.Where("tag_id = ?", tag.ID).Delete(&models.ContactTag{}).Error; err != nil {
			return apperrors.DatabaseError("failed to detach tag", err)
		}
		if err := tx.Where("account_id = ?", accountID).Delete(tag).Error; err != nil {
			return apperrors.DatabaseError("failed to delete tag", err)
		}

		deleted = tag.ID
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.forget(ctx, accountID, deleted)
	return deleted, nil
}

// Contacts lists the account's contacts carrying the tag
func (s *TagService) Contacts(ctx context.Context, accountID uuid.UUID, id string, params PageParams) (*Page[models.Contact], error) {
	db := s.db.WithContext(ctx)

	tag, err := s.find(db, accountID, id)
	if err != nil {
		return nil, err
	}

	params = params.normalize(DefaultPerPage)

	query := db.Model(&models.Contact{}).
		Joins("JOIN contact_tag ON contact_tag.contact_id = contacts.id").
		Where("contact_tag.tag_id = ? AND contacts.account_id = ?", tag.ID, accountID).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.DatabaseError("failed to count contacts", err)
	}

	contacts := make([]models.Contact, 0, params.Limit)
	if err := query.Order("contacts.created_at ASC").Order("contacts.id ASC").
		Offset(params.offset()).Limit(params.Limit).
		Find(&contacts).Error; err != nil {
		return nil, apperrors.DatabaseError("failed to list contacts", err)
	}

	return &Page[models.Contact]{
		Items:       contacts,
		Total:       total,
		CurrentPage: params.Page,
		PerPage:     params.Limit,
	}, nil
}

// check runs field validation, then reports payload problems
func (s *TagService) check(ctx context.Context, input *TagInput) error {
	if input == nil {
		input = &TagInput{}
	}
	if err := s.validator.Struct(ctx, input); err != nil {
		return err
	}
	if input.badParams != nil {
		return apperrors.BadParameters(input.badParams)
	}
	return nil
}

func (s *TagService) find(db *gorm.DB, accountID uuid.UUID, id string) (*models.Tag, error) {
	tagID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.NotFoundError("tag")
	}

	var tag models.Tag
	err = db.Where("id = ? AND account_id = ?", tagID, accountID).First(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFoundError("tag")
	}
	if err != nil {
		return nil, apperrors.DatabaseError("failed to load tag", err)
	}

	return &tag, nil
}

func (s *TagService) forget(ctx context.Context, accountID, tagID uuid.UUID) {
	if err := s.cache.Delete(ctx, cache.TagKey(accountID.String(), tagID.String())); err != nil {
		s.logger.Warn("failed to evict tag", "tag_id", tagID, "error", err)
	}
}
