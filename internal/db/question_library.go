package db

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionLibrary struct {
	ID        uint           `gorm:"primaryKey"`
	Text      string         `gorm:"size:280;not null;uniqueIndex"`
	Options   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}
