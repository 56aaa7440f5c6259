package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casapps/cascontacts/src/internal/database/models"
	apperrors "github.com/casapps/cascontacts/src/internal/errors"
)

func TestContactService(t *testing.T) {
	db := setupTestDB(t)
	svc := NewContactService(db, nil)
	account := createAccount(t, db)
	other := createAccount(t, db)

	t.Run("Create", func(t *testing.T) {
		contact, err := svc.Create(bg, account, &ContactInput{FirstName: " Ada ", LastName: "Lovelace"})
		require.NoError(t, err)
		assert.Equal(t, "Ada", contact.FirstName)
		assert.Equal(t, account, contact.AccountID)
		assert.NotNil(t, contact.Tags)
	})

	t.Run("Create requires first name", func(t *testing.T) {
		_, err := svc.Create(bg, account, &ContactInput{LastName: "Hopper"})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("Get is account scoped", func(t *testing.T) {
		contact := createContact(t, db, account, "Grace")

		_, err := svc.Get(bg, other, contact.ID.String())
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		got, err := svc.Get(bg, account, contact.ID.String())
		require.NoError(t, err)
		assert.Equal(t, "Grace", got.FirstName)
	})

	t.Run("SetTags creates and reuses tags", func(t *testing.T) {
		contact := createContact(t, db, account, "Linus")

		got, err := svc.SetTags(bg, account, contact.ID.String(), &SetTagsInput{Tags: []string{"Kernel", " Finland "}})
		require.NoError(t, err)
		require.Len(t, got.Tags, 2)

		// Repeating a name attaches nothing new
		got, err = svc.SetTags(bg, account, contact.ID.String(), &SetTagsInput{Tags: []string{"Kernel"}})
		require.NoError(t, err)
		assert.Len(t, got.Tags, 2)

		var tags []models.Tag
		require.NoError(t, db.Where("account_id = ?", account).Order("name").Find(&tags).Error)
		require.Len(t, tags, 2)
		assert.Equal(t, "finland", tags[0].NameSlug)
		assert.Equal(t, "kernel", tags[1].NameSlug)

		var link models.ContactTag
		require.NoError(t, db.First(&link, "contact_id = ?", contact.ID).Error)
		assert.Equal(t, account, link.AccountID)
	})

	t.Run("SetTags validates names", func(t *testing.T) {
		contact := createContact(t, db, account, "Barbara")

		_, err := svc.SetTags(bg, account, contact.ID.String(), &SetTagsInput{})
		assert.ErrorIs(t, err, apperrors.ErrValidation)

		_, err = svc.SetTags(bg, other, contact.ID.String(), &SetTagsInput{Tags: []string{"x"}})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("UnsetTags and UnsetAllTags", func(t *testing.T) {
		contact := createContact(t, db, account, "Margaret")

		got, err := svc.SetTags(bg, account, contact.ID.String(), &SetTagsInput{Tags: []string{"Apollo", "NASA", "MIT"}})
		require.NoError(t, err)
		require.Len(t, got.Tags, 3)

		got, err = svc.UnsetTags(bg, account, contact.ID.String(), &UnsetTagsInput{Tags: []string{got.Tags[0].ID.String()}})
		require.NoError(t, err)
		assert.Len(t, got.Tags, 2)

		_, err = svc.UnsetTags(bg, account, contact.ID.String(), &UnsetTagsInput{Tags: []string{"nope"}})
		assert.ErrorIs(t, err, apperrors.ErrBadParameters)

		got, err = svc.UnsetAllTags(bg, account, contact.ID.String())
		require.NoError(t, err)
		assert.Empty(t, got.Tags)

		// Tags survive being detached
		var count int64
		require.NoError(t, db.Model(&models.Tag{}).Where("name = ?", "Apollo").Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("UnsetAllTags on missing contact", func(t *testing.T) {
		_, err := svc.UnsetAllTags(bg, account, uuid.NewString())
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}
