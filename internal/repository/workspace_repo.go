package repository

import (
	"context"
	"errors"

	"github.com/dongwonkwak/mini-notion-app-sub000/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WorkspaceRepository interface {
	// Create persists the workspace and the creator's owner membership in
	// one transaction.
	Create(ctx context.Context, workspace *entity.Workspace) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Workspace, error)
}

type workspaceRepository struct {
	db *gorm.DB
}

func NewWorkspaceRepository(db *gorm.DB) WorkspaceRepository {
	return &workspaceRepository{db: db}
}

func (r *workspaceRepository) Create(ctx context.Context, workspace *entity.Workspace) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(workspace).Error; err != nil {
			return err
		}
		member := &entity.WorkspaceMember{
			UserID:      workspace.CreatedBy,
			WorkspaceID: workspace.ID,
			Role:        entity.RoleOwner,
		}
		return tx.Create(member).Error
	})
}

func (r *workspaceRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Workspace, error) {
	var workspace entity.Workspace
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&workspace).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &workspace, err
}
