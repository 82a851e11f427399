package db

import "time"

type User struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Name         string    `gorm:"size:64;not null"`
	Email        string    `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string    `gorm:"size:255;not null"`
	IsHost       bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}
