package entity

import (
	"time"

	"github.com/google/uuid"
)

type Workspace struct {
	ID   uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name string    `gorm:"type:varchar(100);not null"`

	CreatedBy uuid.UUID `gorm:"type:uuid;not null;index"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Members []WorkspaceMember
}
