package service

import (
	"time"

	"github.com/dongwonkwak/mini-notion-app-sub000/internal/entity"

	"github.com/google/uuid"
)

// PublicUser is the sanitized user shape handed back to callers. Password
// hash, MFA secret, and backup codes never appear here; SanitizeUser is the
// only way to build one from a persisted record.
type PublicUser struct {
	ID              uuid.UUID           `json:"id"`
	Email           string              `json:"email"`
	Name            string              `json:"name"`
	AvatarURL       *string             `json:"avatarUrl,omitempty"`
	Provider        entity.AuthProvider `json:"provider"`
	MFAEnabled      bool                `json:"mfaEnabled"`
	EmailVerifiedAt *time.Time          `json:"emailVerifiedAt,omitempty"`
	LastActiveAt    time.Time           `json:"lastActiveAt"`
	CreatedAt       time.Time           `json:"createdAt"`
}

func SanitizeUser(user *entity.User) PublicUser {
	return PublicUser{
		ID:              user.ID,
		Email:           user.Email,
		Name:            user.Name,
		AvatarURL:       user.AvatarURL,
		Provider:        user.Provider,
		MFAEnabled:      user.MFAEnabled,
		EmailVerifiedAt: user.EmailVerifiedAt,
		LastActiveAt:    user.LastActiveAt,
		CreatedAt:       user.CreatedAt,
	}
}

type AuthenticateInput struct {
	Email       string
	Password    string
	MFAToken    string
	WorkspaceID *uuid.UUID
	IPAddress   *string
	UserAgent   *string
}

type AuthResult struct {
	User         PublicUser
	Token        string
	RefreshToken string
}

type CreateUserInput struct {
	Email      string
	Name       string
	Password   string
	Provider   entity.AuthProvider
	ProviderID string
	AvatarURL  string
}

type OAuthUserInput struct {
	Email      string
	Name       string
	Provider   entity.AuthProvider
	ProviderID string
	AvatarURL  string
}

// MFASetup is returned by SetupMFA. Secret and backup codes are shown to
// the user exactly once at provisioning time.
type MFASetup struct {
	Secret      string
	OTPAuthURL  string
	QRCode      string
	BackupCodes []string
}
