package db

import "time"

type Match struct {
	ID                 string    `gorm:"primaryKey;size:36"`
	EventID            string    `gorm:"size:36;index;not null"`
	ParticipantID      string    `gorm:"size:36;not null;index"`
	PartnerID          string    `gorm:"size:36;not null"`
	CompatibilityScore int       `gorm:"not null;default:0"`
	IsWildCard         bool      `gorm:"not null;default:false"`
	CreatedAt          time.Time `gorm:"not null"`
}

type Followup struct {
	ID            uint      `gorm:"primaryKey"`
	EventID       string    `gorm:"size:36;index;not null"`
	ParticipantID string    `gorm:"size:36;not null;uniqueIndex"`
	MatchID       string    `gorm:"size:36;not null"`
	Reconnect     bool      `gorm:"not null;default:false"`
	ContactInfo   string    `gorm:"size:255;not null;default:''"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}
