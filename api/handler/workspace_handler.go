package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dongwonkwak/mini-notion-app-sub000/api/middleware"
	"github.com/dongwonkwak/mini-notion-app-sub000/internal/dto"
	"github.com/dongwonkwak/mini-notion-app-sub000/internal/entity"
	"github.com/dongwonkwak/mini-notion-app-sub000/internal/repository"
	"github.com/dongwonkwak/mini-notion-app-sub000/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type WorkspaceHandler struct {
	Workspaces  repository.WorkspaceRepository
	Permissions *service.PermissionService
	Events      *service.EventLogger
	Validate    *validator.Validate
}

func NewWorkspaceHandler(
	workspaces repository.WorkspaceRepository,
	permissions *service.PermissionService,
	events *service.EventLogger,
	validate *validator.Validate,
) *WorkspaceHandler {
	return &WorkspaceHandler{
		Workspaces:  workspaces,
		Permissions: permissions,
		Events:      events,
		Validate:    validate,
	}
}

func (h *WorkspaceHandler) CreateWorkspace(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	var req dto.CreateWorkspaceRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	workspace := &entity.Workspace{Name: req.Name, CreatedBy: userID}
	if err := h.Workspaces.Create(c.Request().Context(), workspace); err != nil {
		return writeError(c, http.StatusInternalServerError, errors.New("workspace create failed"))
	}
	return c.JSON(http.StatusCreated, dto.WorkspaceResponse{
		ID:   workspace.ID.String(),
		Name: workspace.Name,
	})
}

func (h *WorkspaceHandler) InviteMember(c echo.Context) error {
	actorID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid workspace id"))
	}
	var req dto.InviteMemberRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	targetID, err := uuid.Parse(req.UserID)
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid user id"))
	}
	err = h.Permissions.InviteUserToWorkspace(
		c.Request().Context(), actorID, targetID, workspaceID, entity.WorkspaceRole(req.Role))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusCreated)
}

func (h *WorkspaceHandler) UpdateMemberRole(c echo.Context) error {
	actorID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid workspace id"))
	}
	targetID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid user id"))
	}
	var req dto.UpdateMemberRoleRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	err = h.Permissions.UpdateMemberRole(
		c.Request().Context(), actorID, targetID, workspaceID, entity.WorkspaceRole(req.Role))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *WorkspaceHandler) RemoveMember(c echo.Context) error {
	actorID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid workspace id"))
	}
	targetID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid user id"))
	}
	err = h.Permissions.RemoveMemberFromWorkspace(c.Request().Context(), actorID, targetID, workspaceID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *WorkspaceHandler) SecurityStats(c echo.Context) error {
	if _, ok := middleware.UserIDFromContext(c); !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	days, _ := strconv.Atoi(c.QueryParam("days"))
	if days <= 0 {
		days = 7
	}

	var userID *uuid.UUID
	if raw := c.QueryParam("userId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return writeError(c, http.StatusBadRequest, errors.New("invalid user id"))
		}
		userID = &parsed
	}

	counts, err := h.Events.SecurityStats(c.Request().Context(), userID, days)
	if err != nil {
		return writeServiceError(c, err)
	}
	response := dto.SecurityStatsResponse{Days: days, Counts: make(map[string]int64, len(counts))}
	for eventType, count := range counts {
		response.Counts[string(eventType)] = count
	}
	return c.JSON(http.StatusOK, response)
}

func (h *WorkspaceHandler) validate(payload any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(payload)
}
