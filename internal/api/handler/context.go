package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/atlascrm/crm-system/internal/core/domain"
)

// actorFromContext extracts the caller identity injected by the Auth
// middleware and fast-fails before any service call: a missing user id or
// empty role set means the middleware did not run or the token is
// structurally valid but operationally unusable.
func actorFromContext(c echo.Context) (domain.Actor, error) {
	userID, _ := c.Get("user_id").(string)
	if userID == "" {
		return domain.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	raw, _ := c.Get("roles").([]string)
	if len(raw) == 0 {
		return domain.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "token carries no roles")
	}

	roles := make(domain.RoleSet, 0, len(raw))
	for _, r := range raw {
		roles = append(roles, domain.Role(r))
	}

	return domain.Actor{UserID: userID, Roles: roles}, nil
}
