package handlers

import (
	"net/http"
	"strings"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casapps/cascontacts/src/internal/database/models"
	apperrors "github.com/casapps/cascontacts/src/internal/errors"
	"github.com/casapps/cascontacts/src/internal/services"
)

func newContext(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func testConfig() *viper.Viper {
	cfg := viper.New()
	cfg.Set("api.limit_per_page", 15)
	cfg.Set("api.max_limit_per_page", 100)
	return cfg
}

func TestPageParams(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		page   int
		limit  int
		errors bool
	}{
		{"defaults", "", 1, 15, false},
		{"explicit", "?page=3&limit=20", 3, 20, false},
		{"garbage falls back", "?page=abc&limit=-4", 1, 15, false},
		{"maximum allowed", "?limit=100", 1, 100, false},
		{"over maximum", "?limit=101", 1, 101, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := pageParams(newContext("/api/tags"+tt.query), testConfig())
			if tt.errors {
				var customErr *apperrors.CustomError
				require.ErrorAs(t, err, &customErr)
				assert.Equal(t, apperrors.ErrorCodeLimitTooBig, customErr.ErrorCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.page, params.Page)
			assert.Equal(t, tt.limit, params.Limit)
		})
	}
}

func TestNewCollection(t *testing.T) {
	c := newContext("/api/tags?page=2&limit=2&sort=name")
	accountID := uuid.New()

	page := &services.Page[models.Tag]{
		Items: []models.Tag{
			{ID: uuid.New(), AccountID: accountID, Name: "c"},
			{ID: uuid.New(), AccountID: accountID, Name: "d"},
		},
		Total:       5,
		CurrentPage: 2,
		PerPage:     2,
	}

	collection := newCollection(c, page, newTagResource)

	assert.Len(t, collection.Data, 2)
	assert.Equal(t, "http://example.com/api/tags", collection.Meta.Path)
	assert.Equal(t, 3, collection.Meta.LastPage)
	require.NotNil(t, collection.Meta.From)
	assert.Equal(t, 3, *collection.Meta.From)
	require.NotNil(t, collection.Meta.To)
	assert.Equal(t, 4, *collection.Meta.To)

	assert.Equal(t, "http://example.com/api/tags?limit=2&page=1&sort=name", collection.Links.First)
	assert.Equal(t, "http://example.com/api/tags?limit=2&page=3&sort=name", collection.Links.Last)
	require.NotNil(t, collection.Links.Prev)
	require.NotNil(t, collection.Links.Next)
	assert.Contains(t, *collection.Links.Next, "page=3")
}

func TestNewCollectionEmpty(t *testing.T) {
	c := newContext("/api/tags")
	page := &services.Page[models.Tag]{CurrentPage: 1, PerPage: 15}

	collection := newCollection(c, page, newTagResource)

	assert.NotNil(t, collection.Data)
	assert.Empty(t, collection.Data)
	assert.Nil(t, collection.Meta.From)
	assert.Nil(t, collection.Meta.To)
	assert.Equal(t, 1, collection.Meta.LastPage)
	assert.Nil(t, collection.Links.Prev)
	assert.Nil(t, collection.Links.Next)
}

func TestTagResourceTimestamps(t *testing.T) {
	paris := time.FixedZone("CET", 3600)
	tag := models.Tag{
		ID:        uuid.New(),
		AccountID: uuid.New(),
		Name:      "VIP Client",
		NameSlug:  "vip-client",
		CreatedAt: time.Date(2024, 3, 1, 10, 30, 0, 0, paris),
		UpdatedAt: time.Date(2024, 3, 1, 10, 30, 0, 0, paris),
	}

	resource := newTagResource(tag)

	assert.Equal(t, "tag", resource.Object)
	assert.Equal(t, tag.AccountID, resource.Account.ID)
	assert.Equal(t, "2024-03-01T09:30:00Z", resource.CreatedAt)
}

func TestReadTagInputLargeBody(t *testing.T) {
	name := strings.Repeat("a", 70000)
	body := `{"name":"` + name + `"}`

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/tags", strings.NewReader(body))
	c := e.NewContext(req, httptest.NewRecorder())

	input, err := readTagInput(c)
	require.NoError(t, err)
	assert.Len(t, input.Name, 70000)
}

func TestReadTagInputOverBodyLimit(t *testing.T) {
	body := `{"name":"` + strings.Repeat("a", 2048) + `"}`

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/tags", strings.NewReader(body))
	c := e.NewContext(req, httptest.NewRecorder())

	limited := middleware.BodyLimit("1K")(func(c echo.Context) error {
		_, err := readTagInput(c)
		return err
	})

	var httpErr *echo.HTTPError
	require.ErrorAs(t, limited(c), &httpErr)
	assert.Equal(t, http.StatusRequestEntityTooLarge, httpErr.Code)
}
