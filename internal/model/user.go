package model

import (
	"time"
)

type User struct {
	ID            int64      `gorm:"primaryKey" json:"id"`
	Email         string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash  string     `gorm:"size:255;not null" json:"-"`
	Name          string     `gorm:"size:100" json:"name"`
	AvatarURL     string     `gorm:"size:500" json:"avatar_url"`
	IsSuperAdmin  bool       `gorm:"default:false" json:"-"`
	MustResetPass bool       `gorm:"default:false" json:"must_reset_pass"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
