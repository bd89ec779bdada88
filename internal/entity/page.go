package entity

import (
	"time"

	"github.com/google/uuid"
)

// Page carries only the fields the permission engine needs: creator for
// ownership checks and the public flag for guest visibility. Content and
// block structure are owned by the editing subsystem.
type Page struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	WorkspaceID uuid.UUID `gorm:"type:uuid;not null;index"`
	Title       string    `gorm:"type:varchar(255)"`

	CreatedBy uuid.UUID `gorm:"type:uuid;not null;index"`
	IsPublic  bool      `gorm:"default:false;not null"`

	ParentID *uuid.UUID `gorm:"type:uuid;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
