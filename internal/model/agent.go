package model

import (
	"time"
)

// Agent 语音坐席配置，实际通话由第三方语音服务商执行
type Agent struct {
	ID              int64     `gorm:"primaryKey" json:"id"`
	WorkspaceID     int64     `gorm:"not null;index" json:"workspace_id"`
	Name            string    `gorm:"size:100;not null" json:"name"`
	Provider        string    `gorm:"size:20;not null" json:"provider"` // vapi, retell
	ProviderAgentID string    `gorm:"size:100" json:"provider_agent_id"`
	Voice           string    `gorm:"size:50" json:"voice"`
	Language        string    `gorm:"size:10;default:en-US" json:"language"`
	SystemPrompt    string    `gorm:"type:text" json:"system_prompt"`
	FirstMessage    string    `gorm:"type:text" json:"first_message"`
	TotalCalls      int       `gorm:"default:0" json:"total_calls"`
	TotalMinutes    int       `gorm:"default:0" json:"total_minutes"`
	TotalCostCents  int64     `gorm:"default:0" json:"total_cost_cents"`
	Status          string    `gorm:"size:20;default:active" json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Agent) TableName() string {
	return "agents"
}
