package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuthEventType string

const (
	EventLogin              AuthEventType = "LOGIN"
	EventLogout             AuthEventType = "LOGOUT"
	EventMFASetup           AuthEventType = "MFA_SETUP"
	EventPasswordReset      AuthEventType = "PASSWORD_RESET"
	EventAccountLocked      AuthEventType = "ACCOUNT_LOCKED"
	EventSuspiciousActivity AuthEventType = "SUSPICIOUS_ACTIVITY"
)

// AuthEvent rows are append-only: written once, never updated, deleted only
// by the retention job.
type AuthEvent struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	Type   AuthEventType `gorm:"type:varchar(30);not null;index"`
	UserID *uuid.UUID    `gorm:"type:uuid;index"`

	IPAddress *string `gorm:"type:varchar(45)"`
	UserAgent *string `gorm:"type:text"`

	Metadata datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"index"`
}
