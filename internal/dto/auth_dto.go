package dto

import "github.com/dongwonkwak/mini-notion-app-sub000/internal/service"

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	MFAToken    string `json:"mfaToken,omitempty"`
	WorkspaceID string `json:"workspaceId,omitempty" validate:"omitempty,uuid"`
}

type LoginResponse struct {
	User         service.PublicUser `json:"user"`
	Token        string             `json:"token"`
	RefreshToken string             `json:"refreshToken,omitempty"`
}

type RefreshRequest struct {
	WorkspaceID string `json:"workspaceId,omitempty" validate:"omitempty,uuid"`
}

type PasswordForgotRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

type MFASetupResponse struct {
	Secret      string   `json:"secret"`
	OTPAuthURL  string   `json:"otpauthUrl"`
	QRCode      string   `json:"qrCode"`
	BackupCodes []string `json:"backupCodes"`
}

type MFAEnableRequest struct {
	Token string `json:"token" validate:"required,len=6"`
}

type BackupCodesResponse struct {
	BackupCodes []string `json:"backupCodes"`
}
