package model

import (
	"time"
)

// WebhookEvent 外部 webhook 事件去重表
// provider + provider_event_id 唯一，at-least-once 投递下保证只处理一次
type WebhookEvent struct {
	ID              int64      `gorm:"primaryKey" json:"id"`
	Provider        string     `gorm:"size:20;not null;uniqueIndex:ux_webhook_events_provider_event" json:"provider"`
	ProviderEventID string     `gorm:"size:191;not null;uniqueIndex:ux_webhook_events_provider_event" json:"provider_event_id"`
	EventType       string     `gorm:"size:100;not null;index" json:"event_type"`
	Payload         string     `gorm:"type:text" json:"-"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error,omitempty"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}
