package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email         string     `gorm:"uniqueIndex;not null" json:"email"`
	FullName      string     `gorm:"not null" json:"fullname"`
	PasswordHash  string     `gorm:"not null" json:"-"`
	Role          string     `gorm:"not null;default:researcher" json:"role"`
	Enabled       bool       `gorm:"not null;default:true" json:"enabled"`
	LastLogin     *time.Time `json:"last_login"`
	Address       string     `json:"address"`
	ContactNumber string     `json:"contact_number"`
}
