package model

import (
	"time"
)

// 活动状态
const (
	CampaignDraft     = "draft"
	CampaignScheduled = "scheduled"
	CampaignRunning   = "running"
	CampaignPaused    = "paused"
	CampaignCompleted = "completed"
)

// Campaign 外呼活动
type Campaign struct {
	ID             int64      `gorm:"primaryKey" json:"id"`
	WorkspaceID    int64      `gorm:"not null;index" json:"workspace_id"`
	AgentID        *int64     `gorm:"index" json:"agent_id,omitempty"`
	Name           string     `gorm:"size:100;not null" json:"name"`
	Status         string     `gorm:"size:20;default:draft;index" json:"status"`
	ContactListKey string     `gorm:"size:255" json:"contact_list_key"` // OSS 对象 key
	ContactCount   int        `gorm:"default:0" json:"contact_count"`
	DraftConfig    string     `gorm:"type:text" json:"draft_config"` // 前端草稿 JSON
	DraftVersion   int        `gorm:"default:0" json:"draft_version"`
	ScheduleStart  *time.Time `json:"schedule_start,omitempty"`
	ScheduleEnd    *time.Time `json:"schedule_end,omitempty"`
	CallsPlaced    int        `gorm:"default:0" json:"calls_placed"`
	CallsCompleted int        `gorm:"default:0" json:"calls_completed"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Campaign) TableName() string {
	return "campaigns"
}
