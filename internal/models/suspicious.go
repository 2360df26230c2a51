package models

import "time"

// SuspiciousActivity counts rejected authorization attempts per user.
type SuspiciousActivity struct {
	Base
	UserID      string    `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Attempt     int       `gorm:"not null;default:0" json:"attempt"`
	LastAttempt time.Time `json:"last_attempt"`
}
