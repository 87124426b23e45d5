package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/internal/model"
)

type WebhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

// InsertIfNew 尝试插入事件，(provider, event_id) 已存在时返回 false
// 依赖唯一索引做去重，at-least-once 投递下的幂等入口
func (r *WebhookEventRepository) InsertIfNew(event *model.WebhookEvent) (bool, error) {
	err := r.db.Create(event).Error
	if err != nil {
		var count int64
		countErr := r.db.Model(&model.WebhookEvent{}).
			Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
			Count(&count).Error
		if countErr == nil && count > 0 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *WebhookEventRepository) MarkProcessed(id int64) error {
	now := time.Now()
	return r.db.Model(&model.WebhookEvent{}).Where("id = ?", id).Updates(map[string]interface{}{
		"processed_at":     now,
		"processing_error": "",
	}).Error
}

func (r *WebhookEventRepository) MarkFailed(id int64, processingError string) error {
	return r.db.Model(&model.WebhookEvent{}).Where("id = ?", id).
		Update("processing_error", processingError).Error
}

func (r *WebhookEventRepository) GetByProviderEventID(provider, eventID string) (*model.WebhookEvent, error) {
	var event model.WebhookEvent
	err := r.db.Where("provider = ? AND provider_event_id = ?", provider, eventID).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}
