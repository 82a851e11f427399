package db

import (
	"time"

	"gorm.io/datatypes"
)

// Activity is an append-only log row for every event mutation.
type Activity struct {
	ID            uint           `gorm:"primaryKey"`
	EventID       string         `gorm:"size:36;index;not null"`
	ParticipantID *string        `gorm:"size:36;index"`
	Type          string         `gorm:"size:64;not null"`
	Payload       datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt     time.Time      `gorm:"not null"`
}
