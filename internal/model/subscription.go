package model

import (
	"time"
)

// 订阅类型
const (
	SubscriptionPrepaid  = "prepaid"  // 预付套餐，包含分钟数用完后扣余额
	SubscriptionPostpaid = "postpaid" // 后付套餐，用量记账月底开票
)

// 订阅状态
const (
	SubscriptionActive   = "active"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)

// Subscription Stripe 订阅在本地的镜像，WorkspaceID 为空时为合作伙伴订阅
type Subscription struct {
	ID                   int64      `gorm:"primaryKey" json:"id"`
	PartnerID            int64      `gorm:"not null;index" json:"partner_id"`
	WorkspaceID          *int64     `gorm:"index" json:"workspace_id,omitempty"`
	Plan                 string     `gorm:"size:50;not null" json:"plan"`
	Kind                 string     `gorm:"size:20;not null" json:"kind"` // prepaid, postpaid
	IncludedMinutes      int        `gorm:"default:0" json:"included_minutes"`
	MinutesUsed          int        `gorm:"default:0" json:"minutes_used"`
	OverageMinutes       int        `gorm:"default:0" json:"overage_minutes"` // 后付超额分钟，随账单清零
	Status               string     `gorm:"size:20;default:active;index" json:"status"`
	CurrentPeriodStart   time.Time  `json:"current_period_start"`
	CurrentPeriodEnd     time.Time  `gorm:"index" json:"current_period_end"`
	StripeSubscriptionID *string    `gorm:"size:100;index" json:"-"`
	CanceledAt           *time.Time `json:"canceled_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// IsActive 订阅是否在有效期内且可用
func (s *Subscription) IsActive(now time.Time) bool {
	return s.Status == SubscriptionActive && now.Before(s.CurrentPeriodEnd)
}

// RemainingMinutes 套餐剩余分钟数
func (s *Subscription) RemainingMinutes() int {
	remain := s.IncludedMinutes - s.MinutesUsed
	if remain < 0 {
		return 0
	}
	return remain
}
