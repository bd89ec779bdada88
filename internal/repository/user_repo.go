package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dongwonkwak/mini-notion-app-sub000/internal/entity"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	UpdateLastActive(ctx context.Context, userID uuid.UUID) error
	SetPassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	SetMFASecret(ctx context.Context, userID uuid.UUID, secret string, backupCodes datatypes.JSON) error
	SetMFAEnabled(ctx context.Context, userID uuid.UUID, enabled bool) error
	ClearMFA(ctx context.Context, userID uuid.UUID) error
	SetBackupCodes(ctx context.Context, userID uuid.UUID, backupCodes datatypes.JSON) error
	ConsumeBackupCode(ctx context.Context, userID uuid.UUID, code string) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) UpdateLastActive(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", userID).
		Update("last_active_at", time.Now()).
		Error
}

func (r *userRepository) SetPassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	return r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", userID).
		Update("password_hash", &passwordHash).
		Error
}

func (r *userRepository) SetMFASecret(
	ctx context.Context,
	userID uuid.UUID,
	secret string,
	backupCodes datatypes.JSON,
) error {
	return r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"mfa_secret":       &secret,
			"mfa_backup_codes": backupCodes,
		}).
		Error
}

func (r *userRepository) SetMFAEnabled(ctx context.Context, userID uuid.UUID, enabled bool) error {
	return r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", userID).
		Update("mfa_enabled", enabled).
		Error
}

func (r *userRepository) ClearMFA(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"mfa_enabled":      false,
			"mfa_secret":       nil,
			"mfa_backup_codes": nil,
		}).
		Error
}

func (r *userRepository) SetBackupCodes(
	ctx context.Context,
	userID uuid.UUID,
	backupCodes datatypes.JSON,
) error {
	return r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", userID).
		Update("mfa_backup_codes", backupCodes).
		Error
}

// ConsumeBackupCode removes the code from the stored list in a single
// UPDATE, so two concurrent redemptions of the same code cannot both
// succeed. Returns true only when this call removed the code.
func (r *userRepository) ConsumeBackupCode(
	ctx context.Context,
	userID uuid.UUID,
	code string,
) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE users
		 SET mfa_backup_codes = mfa_backup_codes - ?
		 WHERE id = ? AND mfa_backup_codes @> to_jsonb(?::text)`,
		code, userID, code,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
