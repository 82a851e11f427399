package db

import "time"

type Vote struct {
	ID        uint      `gorm:"primaryKey"`
	EventID   string    `gorm:"size:36;index;not null"`
	VoterID   string    `gorm:"size:36;not null;uniqueIndex:idx_votes_voter_owner"`
	OwnerID   string    `gorm:"size:36;not null;uniqueIndex:idx_votes_voter_owner"`
	Score     int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
