package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/casapps/cascontacts/src/internal/errors"
	"github.com/casapps/cascontacts/src/internal/services"
)

// ContactHandler handles contact endpoints
type ContactHandler struct {
	contacts *services.ContactService
}

// NewContactHandler creates a new contact handler
func NewContactHandler(contacts *services.ContactService) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

// Create handles POST /api/contacts
func (h *ContactHandler) Create(c echo.Context) error {
	accountID, err := currentAccount(c)
	if err != nil {
		return err
	}

	var input services.ContactInput
	if err := c.Bind(&input); err != nil {
		return apperrors.InvalidJSON(err)
	}

	contact, err := h.contacts.Create(c.Request().Context(), accountID, &input)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, Single[ContactResource]{Data: newContactResource(*contact)})
}

// Get handles GET /api/contacts/:id
func (h *ContactHandler) Get(c echo.Context) error {
	accountID, err := currentAccount(c)
	if err != nil {
		return err
	}

	contact, err := h.contacts.Get(c.Request().Context(), accountID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, Single[ContactResource]{Data: newContactResource(*contact)})
}

// SetTags handles POST /api/contacts/:id/setTags
func (h *ContactHandler) SetTags(c echo.Context) error {
	accountID, err := currentAccount(c)
	if err != nil {
		return err
	}

	var input services.SetTagsInput
	if err := c.Bind(&input); err != nil {
		return apperrors.InvalidJSON(err)
	}

	contact, err := h.contacts.SetTags(c.Request().Context(), accountID, c.Param("id"), &input)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, Single[ContactResource]{Data: newContactResource(*contact)})
}

// UnsetTags handles POST /api/contacts/:id/unsetTags
func (h *ContactHandler) UnsetTags(c echo.Context) error {
	accountID, err := currentAccount(c)
	if err != nil {
		return err
	}

	var input services.UnsetTagsInput
	if err := c.Bind(&input); err != nil {
		return apperrors.InvalidJSON(err)
	}

	contact, err := h.contacts.UnsetTags(c.Request().Context(), accountID, c.Param("id"), &input)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, Single[ContactResource]{Data: newContactResource(*contact)})
}

// UnsetTag handles POST /api/contacts/:id/unsetTag, which clears every tag
func (h *ContactHandler) UnsetTag(c echo.Context) error {
	accountID, err := currentAccount(c)
	if err != nil {
		return err
	}

	contact, err := h.contacts.UnsetAllTags(c.Request().Context(), accountID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, Single[ContactResource]{Data: newContactResource(*contact)})
}
