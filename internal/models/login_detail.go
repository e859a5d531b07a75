package models

import "time"

// LoginDetail tracks successful sign-ins per email.
type LoginDetail struct {
	Base
	Email         string      `gorm:"uniqueIndex;not null" json:"email"`
	LastLogin     time.Time   `gorm:"not null" json:"lastLogin"`
	LoginAttempts int         `gorm:"not null;default:0" json:"loginAttempts"`
	LoginTimes    []time.Time `gorm:"serializer:json;type:text" json:"loginTimes"`
}
