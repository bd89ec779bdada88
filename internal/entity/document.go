package entity

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	WorkspaceID uuid.UUID  `gorm:"type:uuid;not null;index"`
	PageID      *uuid.UUID `gorm:"type:uuid;index"`

	CreatedBy uuid.UUID `gorm:"type:uuid;not null;index"`
	IsPublic  bool      `gorm:"default:false;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
