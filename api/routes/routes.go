package routes

import (
	"time"

	"github.com/dongwonkwak/mini-notion-app-sub000/api/handler"
	"github.com/dongwonkwak/mini-notion-app-sub000/api/middleware"
	"github.com/dongwonkwak/mini-notion-app-sub000/internal/entity"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type Router struct {
	Echo           *echo.Echo
	Auth           *handler.AuthHandler
	Workspace      *handler.WorkspaceHandler
	AuthMiddleware middleware.AuthMiddleware
	AuthRate       *middleware.RateLimiter
	LoginRate      *middleware.RateLimiter
}

func NewRouter(
	e *echo.Echo,
	authHandler *handler.AuthHandler,
	workspaceHandler *handler.WorkspaceHandler,
	authMiddleware middleware.AuthMiddleware,
) *Router {
	return &Router{
		Echo:           e,
		Auth:           authHandler,
		Workspace:      workspaceHandler,
		AuthMiddleware: authMiddleware,
		AuthRate:       middleware.NewRateLimiter(rate.Limit(5), 10, 5*time.Minute),
		LoginRate:      middleware.NewRateLimiter(rate.Limit(2), 4, 10*time.Minute),
	}
}

func (r *Router) RegisterRoutes() {
	e := r.Echo

	e.POST("/auth/register", r.Auth.Register, r.AuthRate.Middleware())
	e.POST("/auth/login", r.Auth.Login, r.LoginRate.Middleware())
	e.POST("/auth/refresh", r.Auth.Refresh, r.AuthRate.Middleware())
	e.POST("/auth/logout", r.Auth.Logout, r.AuthMiddleware.RequireAuth)
	e.POST("/auth/password/forgot", r.Auth.PasswordForgot, r.LoginRate.Middleware())
	e.POST("/auth/password/reset", r.Auth.PasswordReset, r.AuthRate.Middleware())
	e.POST("/auth/mfa/setup", r.Auth.SetupMFA, r.AuthMiddleware.RequireAuth)
	e.POST("/auth/mfa/enable", r.Auth.EnableMFA, r.AuthMiddleware.RequireAuth)
	e.POST("/auth/mfa/disable", r.Auth.DisableMFA, r.AuthMiddleware.RequireAuth)
	e.POST("/auth/mfa/backup-codes", r.Auth.RegenerateBackupCodes, r.AuthMiddleware.RequireAuth)

	e.GET("/me", r.Auth.Me, r.AuthMiddleware.RequireAuth)

	e.POST("/workspaces", r.Workspace.CreateWorkspace, r.AuthMiddleware.RequireAuth)
	e.POST("/workspaces/:id/members", r.Workspace.InviteMember, r.AuthMiddleware.RequireAuth)
	e.PATCH("/workspaces/:id/members/:userId", r.Workspace.UpdateMemberRole, r.AuthMiddleware.RequireAuth)
	e.DELETE("/workspaces/:id/members/:userId", r.Workspace.RemoveMember, r.AuthMiddleware.RequireAuth)

	e.GET("/admin/security/stats", r.Workspace.SecurityStats,
		r.AuthMiddleware.RequireAuth, middleware.RequireMinimumRole(entity.RoleAdmin))
}
