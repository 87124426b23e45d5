package model

import (
	"time"
)

// Partner 合作伙伴（租户/代理商），拥有自己的白标域名和多个工作区
type Partner struct {
	ID                   int64      `gorm:"primaryKey" json:"id"`
	Name                 string     `gorm:"size:100;not null" json:"name"`
	Slug                 string     `gorm:"size:50;uniqueIndex;not null" json:"slug"`
	PlanTier             string     `gorm:"size:20;default:starter" json:"plan_tier"`
	StripeCustomerID     *string    `gorm:"size:100" json:"-"`
	StripeSubscriptionID *string    `gorm:"size:100" json:"-"`
	BalanceCents         int64      `gorm:"default:0" json:"balance_cents"`
	PerMinuteRateCents   int        `gorm:"default:0" json:"per_minute_rate_cents"`
	LogoURL              string     `gorm:"size:500" json:"logo_url"`
	AccentColor          string     `gorm:"size:20" json:"accent_color"`
	Status               string     `gorm:"size:20;default:active;index" json:"status"` // active, suspended
	SuspendedAt          *time.Time `json:"suspended_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (Partner) TableName() string {
	return "partners"
}
