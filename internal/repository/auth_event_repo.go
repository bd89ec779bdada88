package repository

import (
	"context"
	"time"

	"github.com/dongwonkwak/mini-notion-app-sub000/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthEventRepository interface {
	Append(ctx context.Context, event *entity.AuthEvent) error
	FindByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]entity.AuthEvent, error)
	CountByTypeSince(ctx context.Context, userID *uuid.UUID, since time.Time) (map[entity.AuthEventType]int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type authEventRepository struct {
	db *gorm.DB
}

func NewAuthEventRepository(db *gorm.DB) AuthEventRepository {
	return &authEventRepository{db: db}
}

func (r *authEventRepository) Append(ctx context.Context, event *entity.AuthEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *authEventRepository) FindByUserSince(
	ctx context.Context,
	userID uuid.UUID,
	since time.Time,
) ([]entity.AuthEvent, error) {
	var events []entity.AuthEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at DESC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *authEventRepository) CountByTypeSince(
	ctx context.Context,
	userID *uuid.UUID,
	since time.Time,
) (map[entity.AuthEventType]int64, error) {
	type row struct {
		Type  entity.AuthEventType
		Count int64
	}

	query := r.db.WithContext(ctx).
		Model(&entity.AuthEvent{}).
		Select("type, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("type")
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}

	var rows []row
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[entity.AuthEventType]int64, len(rows))
	for _, r := range rows {
		counts[r.Type] = r.Count
	}
	return counts, nil
}

func (r *authEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&entity.AuthEvent{})
	return result.RowsAffected, result.Error
}
