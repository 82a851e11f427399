package db

import "time"

type ChatMessage struct {
	ID         string    `gorm:"primaryKey;size:36"`
	EventID    string    `gorm:"size:36;index;not null"`
	MatchID    string    `gorm:"size:36;index;not null"`
	SenderID   string    `gorm:"size:36;not null"`
	SenderName string    `gorm:"size:64;not null"`
	Content    string    `gorm:"size:500;not null"`
	CreatedAt  time.Time `gorm:"not null"`
}
