package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"

	"github.com/casapps/cascontacts/src/internal/database/models"
	apperrors "github.com/casapps/cascontacts/src/internal/errors"
	"github.com/casapps/cascontacts/src/internal/services"
)

// TagHandler handles tag endpoints
type TagHandler struct {
	tags   *services.TagService
	config *viper.Viper
}

// NewTagHandler creates a new tag handler
func NewTagHandler(tags *services.TagService, config *viper.Viper) *TagHandler {
	return &TagHandler{
		tags:   tags,
		config: config,
	}
}

// List handles GET /api/tags
func (h *TagHandler) List(c echo.Context) error {
	accountID, err := currentAccount(c)
	if err != nil {
		return err
	}

	params, err := pageParams(c, h.config)
	if err != nil {
		return err
	}

	page, err := h.tags.List(c.Request().Context(), accountID, params)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, newCollection(c, page, newTagResource))
}

// Get handles GET /api/tags/:id
func (h *TagHandler) Get(c echo.Context) error {
	accountID, err := currentAccount(c)
	if err != nil {
		return err
	}

	tag, err := h.tags.Get(c.Request().Context(), accountID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, Single[TagResource]{Data: newTagResource(*tag)})
}

// Create handles POST /api/tags
func (h *TagHandler) Create(c echo.Context) error {
	accountID, err := currentAccount(c)
	if err != nil {
		return err
	}

	input, err := readTagInput(c)
	if err != nil {
		return err
	}

	tag, err := h.tags.Create(c.Request().Context(), accountID, input)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, Single[TagResource]{Data: newTagResource(*tag)})
}

// Update handles PUT and PATCH /api/tags/:id
func (h *TagHandler) Update(c echo.Context) error {
	accountID, err := currentAccount(c)
	if err != nil {
		return err
	}

	input, err := readTagInput(c)
	if err != nil {
		return err
	}

	tag, err := h.tags.Update(c.Request().Context(), accountID, c.Param("id"), input)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, Single[TagResource]{Data: newTagResource(*tag)})
}

// Delete handles DELETE /api/tags/:id
func (h *TagHandler) Delete(c echo.Context) error {
	accountID, err := currentAccount(c)
	if err != nil {
		return err
	}

	id, err := h.tags.Delete(c.Request().Context(), accountID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, DeletedResponse{Deleted: true, ID: id})
}

// Contacts handles GET /api/tags/:id/contacts
func (h *TagHandler) Contacts(c echo.Context) error {
	accountID, err := currentAccount(c)
	if err != nil {
		return err
	}

	params, err := pageParams(c, h.config)
	if err != nil {
		return err
	}

	page, err := h.tags.Contacts(c.Request().Context(), accountID, c.Param("id"), params)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, newCollection(c, page, func(contact models.Contact) ContactResource {
		return newContactResource(contact)
	}))
}

func readTagInput(c echo.Context) (*services.TagInput, error) {
	// Size is bounded by the server's BodyLimit middleware
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return nil, httpErr
		}
		return nil, apperrors.InvalidJSON(err)
	}
	return services.ParseTagInput(body)
}
