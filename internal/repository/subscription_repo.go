package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/internal/model"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) WithTx(tx *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: tx}
}

func (r *SubscriptionRepository) Create(sub *model.Subscription) error {
	return r.db.Create(sub).Error
}

func (r *SubscriptionRepository) GetByID(id int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("id = ?", id).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetActiveByWorkspace 工作区当前有效订阅（行锁，计费事务中使用）
func (r *SubscriptionRepository) GetActiveByWorkspace(workspaceID int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Clauses(lockingClause()).
		Where("workspace_id = ? AND status = ?", workspaceID, model.SubscriptionActive).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) GetByStripeID(stripeSubID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("stripe_subscription_id = ?", stripeSubID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) Update(sub *model.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *SubscriptionRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.Subscription{}).Where("id = ?", id).Updates(fields).Error
}

// MarkExpiredPastDue 周期已结束但仍 active 的订阅标记为 past_due
func (r *SubscriptionRepository) MarkExpiredPastDue(now time.Time) (int64, error) {
	result := r.db.Model(&model.Subscription{}).
		Where("status = ? AND current_period_end < ?", model.SubscriptionActive, now).
		Update("status", model.SubscriptionPastDue)
	return result.RowsAffected, result.Error
}
