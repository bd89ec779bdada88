package entity

import (
	"time"

	"github.com/google/uuid"
)

type WorkspaceRole string

const (
	RoleOwner  WorkspaceRole = "owner"
	RoleAdmin  WorkspaceRole = "admin"
	RoleEditor WorkspaceRole = "editor"
	RoleViewer WorkspaceRole = "viewer"
	RoleGuest  WorkspaceRole = "guest"
)

// WorkspaceMember holds exactly one row per (user, workspace) pair,
// enforced by the composite unique index.
type WorkspaceMember struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_member_user_workspace"`
	WorkspaceID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_member_user_workspace"`

	User      User      `gorm:"constraint:OnDelete:CASCADE"`
	Workspace Workspace `gorm:"constraint:OnDelete:CASCADE"`

	Role WorkspaceRole `gorm:"type:varchar(20);not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
