package repository

import (
	"context"
	"errors"

	"github.com/dongwonkwak/mini-notion-app-sub000/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PageRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Page, error)
}

type DocumentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
}

type pageRepository struct {
	db *gorm.DB
}

func NewPageRepository(db *gorm.DB) PageRepository {
	return &pageRepository{db: db}
}

func (r *pageRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Page, error) {
	var page entity.Page
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&page).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &page, err
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	var document entity.Document
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&document).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &document, err
}
