package dto

type CreateWorkspaceRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type WorkspaceResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type InviteMemberRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
	Role   string `json:"role" validate:"required,oneof=owner admin editor viewer guest"`
}

type UpdateMemberRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=owner admin editor viewer guest"`
}

type SecurityStatsResponse struct {
	Days   int              `json:"days"`
	Counts map[string]int64 `json:"counts"`
}
