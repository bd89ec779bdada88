package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dongwonkwak/mini-notion-app-sub000/api/middleware"
	"github.com/dongwonkwak/mini-notion-app-sub000/internal/dto"
	"github.com/dongwonkwak/mini-notion-app-sub000/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	Service           *service.AuthService
	Validate          *validator.Validate
	RefreshCookieName string
	CookieDomain      string
	SecureCookies     bool
	SameSite          http.SameSite
	RefreshTTL        time.Duration
}

func NewAuthHandler(svc *service.AuthService, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{
		Service:           svc,
		Validate:          validate,
		RefreshCookieName: "refresh_token",
		SecureCookies:     true,
		SameSite:          http.SameSiteStrictMode,
		RefreshTTL:        90 * 24 * time.Hour,
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	user, err := h.Service.CreateUser(c.Request().Context(), service.CreateUserInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	input := service.AuthenticateInput{
		Email:     req.Email,
		Password:  req.Password,
		MFAToken:  req.MFAToken,
		IPAddress: stringPtr(c.RealIP()),
		UserAgent: stringPtr(c.Request().UserAgent()),
	}
	if req.WorkspaceID != "" {
		workspaceID, err := uuid.Parse(req.WorkspaceID)
		if err != nil {
			return writeError(c, http.StatusBadRequest, errors.New("invalid workspace id"))
		}
		input.WorkspaceID = &workspaceID
	}
	result, err := h.Service.AuthenticateCredentials(c.Request().Context(), input)
	if err != nil {
		return writeServiceError(c, err)
	}
	h.setRefreshCookie(c, result.RefreshToken)
	return c.JSON(http.StatusOK, dto.LoginResponse{User: result.User, Token: result.Token})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	refreshToken := h.readRefreshCookie(c)
	if refreshToken == "" {
		return writeError(c, http.StatusUnauthorized, errors.New("missing refresh token"))
	}
	var req dto.RefreshRequest
	if c.Request().ContentLength > 0 {
		if err := decodeJSON(c, &req); err != nil {
			return writeError(c, http.StatusBadRequest, err)
		}
	}
	var workspaceID *uuid.UUID
	if req.WorkspaceID != "" {
		parsed, err := uuid.Parse(req.WorkspaceID)
		if err != nil {
			return writeError(c, http.StatusBadRequest, errors.New("invalid workspace id"))
		}
		workspaceID = &parsed
	}
	result, err := h.Service.RefreshSession(c.Request().Context(), refreshToken, workspaceID)
	if err != nil {
		return writeServiceError(c, err)
	}
	h.setRefreshCookie(c, result.RefreshToken)
	return c.JSON(http.StatusOK, dto.LoginResponse{User: result.User, Token: result.Token})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	h.Service.Logout(c.Request().Context(), userID, service.AuthenticateInput{
		IPAddress: stringPtr(c.RealIP()),
		UserAgent: stringPtr(c.Request().UserAgent()),
	})
	h.clearRefreshCookie(c)
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) PasswordForgot(c echo.Context) error {
	var req dto.PasswordForgotRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.Service.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *AuthHandler) PasswordReset(c echo.Context) error {
	var req dto.PasswordResetRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.Service.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) SetupMFA(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	setup, err := h.Service.SetupMFA(c.Request().Context(), userID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.MFASetupResponse{
		Secret:      setup.Secret,
		OTPAuthURL:  setup.OTPAuthURL,
		QRCode:      setup.QRCode,
		BackupCodes: setup.BackupCodes,
	})
}

func (h *AuthHandler) EnableMFA(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	var req dto.MFAEnableRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.Service.EnableMFA(c.Request().Context(), userID, req.Token); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) DisableMFA(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	if err := h.Service.DisableMFA(c.Request().Context(), userID); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) RegenerateBackupCodes(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	codes, err := h.Service.RegenerateBackupCodes(c.Request().Context(), userID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.BackupCodesResponse{BackupCodes: codes})
}

func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	user, err := h.Service.GetCurrentUser(c.Request().Context(), userID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) validate(payload any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(payload)
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, token string) {
	if token == "" {
		return
	}
	c.SetCookie(&http.Cookie{
		Name:     h.RefreshCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.CookieDomain,
		MaxAge:   int(h.RefreshTTL.Seconds()),
		Expires:  time.Now().Add(h.RefreshTTL),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: h.SameSite,
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     h.RefreshCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: h.SameSite,
	})
}

func (h *AuthHandler) readRefreshCookie(c echo.Context) string {
	cookie, err := c.Cookie(h.RefreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func decodeJSON(c echo.Context, target any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeError(c echo.Context, status int, err error) error {
	return c.JSON(status, map[string]string{"message": err.Error()})
}

// writeServiceError is the single place error codes become HTTP statuses.
// Clients see the localized message, never the wrapped cause.
func writeServiceError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch service.CodeOf(err) {
	case service.CodeUserNotFound:
		status = http.StatusNotFound
	case service.CodeInvalidPassword, service.CodeInvalidCredentials,
		service.CodeInvalidJWT, service.CodeExpiredJWT,
		service.CodeInvalidRefreshToken, service.CodeInvalidResetToken,
		service.CodeSessionExpired, service.CodeInvalidMFAToken:
		status = http.StatusUnauthorized
	case service.CodeMFARequired:
		status = http.StatusPreconditionRequired
	case service.CodeAccountLocked:
		status = http.StatusLocked
	case service.CodeUserAlreadyExists:
		status = http.StatusConflict
	case service.CodePermissionDenied:
		status = http.StatusForbidden
	}

	var authErr *service.AuthError
	if errors.As(err, &authErr) {
		return c.JSON(status, map[string]any{
			"code":    string(authErr.Code),
			"message": authErr.Message,
		})
	}
	return writeError(c, status, err)
}

func stringPtr(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
