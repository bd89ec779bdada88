package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	contextUserIDKey    = "auth_user_id"
	contextEmailKey     = "auth_email"
	contextRoleKey      = "auth_role"
	contextWorkspaceKey = "auth_workspace_id"
)

func SetAuthContext(c echo.Context, userID uuid.UUID, email string, role string, workspaceID *uuid.UUID) {
	c.Set(contextUserIDKey, userID)
	c.Set(contextEmailKey, email)
	c.Set(contextRoleKey, role)
	if workspaceID != nil {
		c.Set(contextWorkspaceKey, *workspaceID)
	}
}

func UserIDFromContext(c echo.Context) (uuid.UUID, bool) {
	value := c.Get(contextUserIDKey)
	userID, ok := value.(uuid.UUID)
	return userID, ok
}

func EmailFromContext(c echo.Context) (string, bool) {
	value := c.Get(contextEmailKey)
	email, ok := value.(string)
	return email, ok
}

func RoleFromContext(c echo.Context) (string, bool) {
	value := c.Get(contextRoleKey)
	role, ok := value.(string)
	return role, ok
}

func WorkspaceIDFromContext(c echo.Context) (uuid.UUID, bool) {
	value := c.Get(contextWorkspaceKey)
	workspaceID, ok := value.(uuid.UUID)
	return workspaceID, ok
}
