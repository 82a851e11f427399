package db

import (
	"time"

	"gorm.io/datatypes"
)

type Event struct {
	ID                string         `gorm:"primaryKey;size:36"`
	Code              string         `gorm:"size:12;uniqueIndex;not null"`
	Title             string         `gorm:"size:120;not null"`
	HostName          string         `gorm:"size:64;not null"`
	HostUserID        string         `gorm:"size:36;index;not null"`
	Questions         datatypes.JSON `gorm:"type:jsonb;not null"`
	CountdownDuration int            `gorm:"not null;default:300"`
	StartTime         *time.Time
	TargetTime        *time.Time
	Phase             string    `gorm:"size:32;not null"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
	Participants      []Participant
}

type Participant struct {
	ID          string         `gorm:"primaryKey;size:36"`
	EventID     string         `gorm:"size:36;index;not null"`
	DisplayName string         `gorm:"size:64;not null"`
	Outfit      string         `gorm:"size:280;not null;default:''"`
	Responses   datatypes.JSON `gorm:"type:jsonb"`
	JoinedAt    time.Time      `gorm:"not null"`
	CreatedAt   time.Time      `gorm:"not null"`
	UpdatedAt   time.Time      `gorm:"not null"`
}
