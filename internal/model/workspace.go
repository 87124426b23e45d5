package model

import (
	"time"
)

// Workspace 工作区，计费和坐席的基本单位
type Workspace struct {
	ID                 int64     `gorm:"primaryKey" json:"id"`
	PartnerID          int64     `gorm:"not null;index" json:"partner_id"`
	Name               string    `gorm:"size:100;not null" json:"name"`
	Slug               string    `gorm:"size:50;uniqueIndex;not null" json:"slug"`
	BalanceCents       int64     `gorm:"default:0" json:"balance_cents"`
	PerMinuteRateCents int       `gorm:"default:0" json:"per_minute_rate_cents"` // 0 表示继承合作伙伴费率
	BillingExempt      bool      `gorm:"default:false" json:"billing_exempt"`    // 费用计入合作伙伴余额
	MinutesThisMonth   int       `gorm:"default:0" json:"minutes_this_month"`
	CostThisMonthCents int64     `gorm:"default:0" json:"cost_this_month_cents"`
	Status             string    `gorm:"size:20;default:active;index" json:"status"` // active, suspended
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (Workspace) TableName() string {
	return "workspaces"
}
