package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuthProvider string

const (
	ProviderEmail  AuthProvider = "email"
	ProviderGoogle AuthProvider = "google"
	ProviderGithub AuthProvider = "github"
)

// User is the raw persisted record. It carries secret material (password
// hash, MFA secret, backup codes) and must never leave the auth core;
// service.PublicUser is the sanitized shape handed to callers.
type User struct {
	ID    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name  string    `gorm:"type:varchar(100);not null"`

	PasswordHash *string      `gorm:"type:text"`
	Provider     AuthProvider `gorm:"type:varchar(20);default:'email';not null"`
	ProviderID   *string      `gorm:"type:varchar(255)"`
	AvatarURL    *string      `gorm:"type:text"`

	MFAEnabled     bool           `gorm:"default:false;not null"`
	MFASecret      *string        `gorm:"type:text"`
	MFABackupCodes datatypes.JSON `gorm:"type:jsonb"`

	EmailVerifiedAt *time.Time
	LastActiveAt    time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Memberships []WorkspaceMember
}
