package model

import (
	"time"
)

// Integration 工作区第三方集成（日历预约等），OAuth 授权后保存令牌
type Integration struct {
	ID           int64      `gorm:"primaryKey" json:"id"`
	WorkspaceID  int64      `gorm:"not null;index:idx_integrations_ws_provider,unique" json:"workspace_id"`
	Provider     string     `gorm:"size:30;not null;index:idx_integrations_ws_provider,unique" json:"provider"`
	AccessToken  string     `gorm:"size:500" json:"-"`
	RefreshToken string     `gorm:"size:500" json:"-"`
	TokenExpiry  *time.Time `json:"-"`
	Status       string     `gorm:"size:20;default:connected" json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (Integration) TableName() string {
	return "integrations"
}
