package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the identity columns shared by every entity: a numeric key for
// internal references and a random public uuid.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UUID      uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns the public uuid when the caller left it empty.
func (b *Base) BeforeCreate(_ *gorm.DB) error {
	if b.UUID == uuid.Nil {
		b.UUID = uuid.New()
	}
	return nil
}
