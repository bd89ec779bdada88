package repository

import (
	"context"
	"errors"

	"github.com/dongwonkwak/mini-notion-app-sub000/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WorkspaceMemberRepository interface {
	Create(ctx context.Context, member *entity.WorkspaceMember) error
	Find(ctx context.Context, userID, workspaceID uuid.UUID) (*entity.WorkspaceMember, error)
	UpdateRole(ctx context.Context, userID, workspaceID uuid.UUID, role entity.WorkspaceRole) error
	Delete(ctx context.Context, userID, workspaceID uuid.UUID) error
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]entity.WorkspaceMember, error)
}

type workspaceMemberRepository struct {
	db *gorm.DB
}

func NewWorkspaceMemberRepository(db *gorm.DB) WorkspaceMemberRepository {
	return &workspaceMemberRepository{db: db}
}

func (r *workspaceMemberRepository) Create(ctx context.Context, member *entity.WorkspaceMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *workspaceMemberRepository) Find(
	ctx context.Context,
	userID, workspaceID uuid.UUID,
) (*entity.WorkspaceMember, error) {
	var member entity.WorkspaceMember
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND workspace_id = ?", userID, workspaceID).
		First(&member).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &member, err
}

func (r *workspaceMemberRepository) UpdateRole(
	ctx context.Context,
	userID, workspaceID uuid.UUID,
	role entity.WorkspaceRole,
) error {
	return r.db.WithContext(ctx).
		Model(&entity.WorkspaceMember{}).
		Where("user_id = ? AND workspace_id = ?", userID, workspaceID).
		Update("role", role).
		Error
}

func (r *workspaceMemberRepository) Delete(ctx context.Context, userID, workspaceID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND workspace_id = ?", userID, workspaceID).
		Delete(&entity.WorkspaceMember{}).
		Error
}

func (r *workspaceMemberRepository) ListByWorkspace(
	ctx context.Context,
	workspaceID uuid.UUID,
) ([]entity.WorkspaceMember, error) {
	var members []entity.WorkspaceMember
	err := r.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}
