package service

import (
	"context"

	"github.com/dongwonkwak/mini-notion-app-sub000/internal/entity"
	"github.com/dongwonkwak/mini-notion-app-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Wildcard matches any resource or action in a permission rule.
const Wildcard = "*"

// PermissionRule grants one action on one resource. Conditions, when
// present, must all evaluate true against the request context or the rule
// does not apply.
type PermissionRule struct {
	Resource   string
	Action     string
	Conditions map[string]bool
}

// PermissionContext carries request facts the conditions are checked
// against, such as isOwner and isPublic. A missing key counts as false.
type PermissionContext map[string]bool

var roleRank = map[entity.WorkspaceRole]int{
	entity.RoleOwner:  0,
	entity.RoleAdmin:  1,
	entity.RoleEditor: 2,
	entity.RoleViewer: 3,
	entity.RoleGuest:  4,
}

// RoleRank returns the role's position in the hierarchy, owner first.
// Unknown roles rank below guest.
func RoleRank(role entity.WorkspaceRole) int {
	if rank, ok := roleRank[role]; ok {
		return rank
	}
	return len(roleRank)
}

// HasMinimumRole reports whether actual is at least as privileged as
// required.
func HasMinimumRole(actual, required entity.WorkspaceRole) bool {
	return RoleRank(actual) <= RoleRank(required)
}

// baseRules hold each role's own grants, before inheritance. Every role
// additionally inherits everything from the roles below it; the owner
// holds an implicit universal grant and needs no rules here.
var baseRules = map[entity.WorkspaceRole][]PermissionRule{
	entity.RoleGuest: {
		{Resource: "page", Action: "read", Conditions: map[string]bool{"isPublic": true}},
		{Resource: "document", Action: "read", Conditions: map[string]bool{"isPublic": true}},
	},
	entity.RoleViewer: {
		{Resource: "page", Action: "read"},
		{Resource: "document", Action: "read"},
		{Resource: "comment", Action: "read"},
		{Resource: "workspace", Action: "read"},
	},
	entity.RoleEditor: {
		{Resource: "page", Action: "create"},
		{Resource: "page", Action: "update"},
		{Resource: "document", Action: "create"},
		{Resource: "document", Action: "update"},
		{Resource: "comment", Action: "create"},
		{Resource: "comment", Action: "update"},
		{Resource: "comment", Action: "delete", Conditions: map[string]bool{"isOwner": true}},
		{Resource: "block", Action: Wildcard},
	},
	entity.RoleAdmin: {
		{Resource: "page", Action: "delete"},
		{Resource: "document", Action: "delete"},
		{Resource: "workspace", Action: "update"},
		{Resource: "workspace", Action: "manage-members"},
		{Resource: "comment", Action: "delete"},
	},
	entity.RoleOwner: {
		{Resource: Wildcard, Action: Wildcard},
	},
}

// PermissionService answers workspace authorization questions and guards
// membership mutations. The role-to-rules closure is computed once at
// construction.
type PermissionService struct {
	members   repository.WorkspaceMemberRepository
	pages     repository.PageRepository
	documents repository.DocumentRepository
	logger    *logrus.Logger
	rules     map[entity.WorkspaceRole][]PermissionRule
}

func NewPermissionService(
	members repository.WorkspaceMemberRepository,
	pages repository.PageRepository,
	documents repository.DocumentRepository,
	logger *logrus.Logger,
) *PermissionService {
	return &PermissionService{
		members:   members,
		pages:     pages,
		documents: documents,
		logger:    logger,
		rules:     expandRules(),
	}
}

// expandRules folds the inheritance chain into a flat rule set per role:
// each role receives its own rules plus every rule of the roles ranked
// below it.
func expandRules() map[entity.WorkspaceRole][]PermissionRule {
	order := []entity.WorkspaceRole{
		entity.RoleGuest,
		entity.RoleViewer,
		entity.RoleEditor,
		entity.RoleAdmin,
		entity.RoleOwner,
	}
	expanded := make(map[entity.WorkspaceRole][]PermissionRule, len(order))
	var inherited []PermissionRule
	for _, role := range order {
		inherited = append(inherited, baseRules[role]...)
		rules := make([]PermissionRule, len(inherited))
		copy(rules, inherited)
		expanded[role] = rules
	}
	return expanded
}

// HasPermission evaluates the role's rule set against resource and action.
// Conditions fail closed: a conditioned rule without a matching true fact
// in the context does not grant.
func (s *PermissionService) HasPermission(
	role entity.WorkspaceRole,
	resource, action string,
	permCtx PermissionContext,
) bool {
	for _, rule := range s.rules[role] {
		if rule.Resource != Wildcard && rule.Resource != resource {
			continue
		}
		if rule.Action != Wildcard && rule.Action != action {
			continue
		}
		if conditionsSatisfied(rule.Conditions, permCtx) {
			return true
		}
	}
	return false
}

func conditionsSatisfied(conditions map[string]bool, permCtx PermissionContext) bool {
	for key, want := range conditions {
		if permCtx == nil || permCtx[key] != want {
			return false
		}
	}
	return true
}

// CheckPermission resolves the user's workspace role and evaluates the
// permission. Non-members are evaluated as guests, which only reach
// public resources.
func (s *PermissionService) CheckPermission(
	ctx context.Context,
	userID, workspaceID uuid.UUID,
	resource, action string,
	permCtx PermissionContext,
) (bool, error) {
	member, err := s.members.Find(ctx, userID, workspaceID)
	if err != nil {
		return false, WrapUnexpected(CodePermissionDenied, err)
	}
	role := entity.RoleGuest
	if member != nil {
		role = member.Role
	}
	return s.HasPermission(role, resource, action, permCtx), nil
}

// CheckPagePermission loads page facts (ownership, visibility) into the
// permission context before evaluating.
func (s *PermissionService) CheckPagePermission(
	ctx context.Context,
	userID, pageID uuid.UUID,
	action string,
) (bool, error) {
	page, err := s.pages.FindByID(ctx, pageID)
	if err != nil {
		return false, WrapUnexpected(CodePermissionDenied, err)
	}
	if page == nil {
		return false, nil
	}
	permCtx := PermissionContext{
		"isOwner":  page.CreatedBy == userID,
		"isPublic": page.IsPublic,
	}
	return s.CheckPermission(ctx, userID, page.WorkspaceID, "page", action, permCtx)
}

// CheckDocumentPermission mirrors CheckPagePermission for documents.
func (s *PermissionService) CheckDocumentPermission(
	ctx context.Context,
	userID, documentID uuid.UUID,
	action string,
) (bool, error) {
	document, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		return false, WrapUnexpected(CodePermissionDenied, err)
	}
	if document == nil {
		return false, nil
	}
	permCtx := PermissionContext{
		"isOwner":  document.CreatedBy == userID,
		"isPublic": document.IsPublic,
	}
	return s.CheckPermission(ctx, userID, document.WorkspaceID, "document", action, permCtx)
}

// InviteUserToWorkspace adds targetID with the given role. The actor must
// hold workspace manage-members rights, and only an owner may hand out the
// owner role.
func (s *PermissionService) InviteUserToWorkspace(
	ctx context.Context,
	actorID, targetID, workspaceID uuid.UUID,
	role entity.WorkspaceRole,
) error {
	actor, err := s.requireManager(ctx, actorID, workspaceID)
	if err != nil {
		return err
	}
	if role == entity.RoleOwner && actor.Role != entity.RoleOwner {
		return NewAuthError(CodePermissionDenied)
	}
	existing, err := s.members.Find(ctx, targetID, workspaceID)
	if err != nil {
		return WrapUnexpected(CodePermissionDenied, err)
	}
	if existing != nil {
		return NewAuthError(CodePermissionDenied).
			WithDetails(map[string]any{"reason": "already_member"})
	}
	member := &entity.WorkspaceMember{
		UserID:      targetID,
		WorkspaceID: workspaceID,
		Role:        role,
	}
	if err := s.members.Create(ctx, member); err != nil {
		return WrapUnexpected(CodePermissionDenied, err)
	}
	return nil
}

// UpdateMemberRole changes targetID's role. Only an owner may change their
// own role, promote anyone to owner, or touch another owner's role.
func (s *PermissionService) UpdateMemberRole(
	ctx context.Context,
	actorID, targetID, workspaceID uuid.UUID,
	role entity.WorkspaceRole,
) error {
	actor, err := s.requireManager(ctx, actorID, workspaceID)
	if err != nil {
		return err
	}
	if actorID == targetID && actor.Role != entity.RoleOwner {
		return NewAuthError(CodePermissionDenied).
			WithDetails(map[string]any{"reason": "self_role_change"})
	}
	if role == entity.RoleOwner && actor.Role != entity.RoleOwner {
		return NewAuthError(CodePermissionDenied)
	}
	target, err := s.members.Find(ctx, targetID, workspaceID)
	if err != nil {
		return WrapUnexpected(CodePermissionDenied, err)
	}
	if target == nil {
		return NewAuthError(CodePermissionDenied).
			WithDetails(map[string]any{"reason": "not_member"})
	}
	if target.Role == entity.RoleOwner && actor.Role != entity.RoleOwner {
		return NewAuthError(CodePermissionDenied)
	}
	if err := s.members.UpdateRole(ctx, targetID, workspaceID, role); err != nil {
		return WrapUnexpected(CodePermissionDenied, err)
	}
	return nil
}

// RemoveMemberFromWorkspace removes targetID. Owners can never be removed;
// the workspace must always keep one.
func (s *PermissionService) RemoveMemberFromWorkspace(
	ctx context.Context,
	actorID, targetID, workspaceID uuid.UUID,
) error {
	if _, err := s.requireManager(ctx, actorID, workspaceID); err != nil {
		return err
	}
	target, err := s.members.Find(ctx, targetID, workspaceID)
	if err != nil {
		return WrapUnexpected(CodePermissionDenied, err)
	}
	if target == nil {
		return NewAuthError(CodePermissionDenied).
			WithDetails(map[string]any{"reason": "not_member"})
	}
	if target.Role == entity.RoleOwner {
		return NewAuthError(CodePermissionDenied).
			WithDetails(map[string]any{"reason": "owner_not_removable"})
	}
	if err := s.members.Delete(ctx, targetID, workspaceID); err != nil {
		return WrapUnexpected(CodePermissionDenied, err)
	}
	return nil
}

func (s *PermissionService) requireManager(
	ctx context.Context,
	actorID, workspaceID uuid.UUID,
) (*entity.WorkspaceMember, error) {
	actor, err := s.members.Find(ctx, actorID, workspaceID)
	if err != nil {
		return nil, WrapUnexpected(CodePermissionDenied, err)
	}
	if actor == nil || !s.HasPermission(actor.Role, "workspace", "manage-members", nil) {
		return nil, NewAuthError(CodePermissionDenied)
	}
	return actor, nil
}
