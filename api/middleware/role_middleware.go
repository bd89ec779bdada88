package middleware

import (
	"net/http"

	"github.com/dongwonkwak/mini-notion-app-sub000/internal/entity"
	"github.com/dongwonkwak/mini-notion-app-sub000/internal/service"

	"github.com/labstack/echo/v4"
)

// RequireMinimumRole rejects requests whose token role ranks below the
// required workspace role.
func RequireMinimumRole(required entity.WorkspaceRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			currentRole, ok := RoleFromContext(c)
			if !ok || !service.HasMinimumRole(entity.WorkspaceRole(currentRole), required) {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}
