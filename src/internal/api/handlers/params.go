package handlers

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"

	"github.com/casapps/cascontacts/src/internal/auth"
	apperrors "github.com/casapps/cascontacts/src/internal/errors"
	"github.com/casapps/cascontacts/src/internal/services"
)

// pageParams reads ?page= and ?limit=. A limit above the configured
// maximum is rejected rather than clamped.
func pageParams(c echo.Context, cfg *viper.Viper) (services.PageParams, error) {
	params := services.PageParams{
		Page:  1,
		Limit: cfg.GetInt("api.limit_per_page"),
	}
	if params.Limit < 1 {
		params.Limit = services.DefaultPerPage
	}

	if raw := c.QueryParam("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page > 0 {
			params.Page = page
		}
	}

	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err == nil && limit > 0 {
			params.Limit = limit
		}
	}

	maxLimit := cfg.GetInt("api.max_limit_per_page")
	if maxLimit > 0 && params.Limit > maxLimit {
		return params, apperrors.LimitTooBig(maxLimit)
	}

	return params, nil
}

func currentAccount(c echo.Context) (uuid.UUID, error) {
	accountID, ok := auth.AccountID(c)
	if !ok {
		return uuid.Nil, apperrors.UnauthorizedError("authentication required")
	}
	return accountID, nil
}
