package model

import (
	"encoding/json"
	"time"
)

// 计费来源
const (
	BillingTypeSubscription   = "subscription"    // 后付订阅，仅记录用量
	BillingTypePrepaidPlan    = "prepaid_plan"    // 预付套餐分钟
	BillingTypeCredits        = "credits"         // 工作区余额
	BillingTypePartnerCredits = "partner_credits" // 计费豁免，扣合作伙伴余额
)

// CostBreakdown 计费明细，写入即表示该通话已计费（幂等标记）
type CostBreakdown struct {
	BillingType   string `json:"billing_type"`
	RateCents     int    `json:"rate_cents"`
	BilledMinutes int    `json:"billed_minutes"`
	PlanMinutes   int    `json:"plan_minutes,omitempty"`   // 套餐覆盖的分钟数
	CreditMinutes int    `json:"credit_minutes,omitempty"` // 余额覆盖的分钟数
	DeductedCents int64  `json:"deducted_cents"`
	ProviderCost  int64  `json:"provider_cost_cents"` // 服务商报告成本，仅审计用
	BilledAt      string `json:"billed_at"`
}

// Conversation 一通已完成的语音通话
type Conversation struct {
	ID                int64      `gorm:"primaryKey" json:"id"`
	WorkspaceID       int64      `gorm:"not null;index" json:"workspace_id"`
	AgentID           *int64     `gorm:"index" json:"agent_id,omitempty"`
	CampaignID        *int64     `gorm:"index" json:"campaign_id,omitempty"`
	Provider          string     `gorm:"size:20;not null" json:"provider"`
	ProviderCallID    string     `gorm:"size:100;uniqueIndex;not null" json:"provider_call_id"`
	Direction         string     `gorm:"size:10;default:outbound" json:"direction"`
	FromNumber        string     `gorm:"size:30" json:"from_number"`
	ToNumber          string     `gorm:"size:30" json:"to_number"`
	DurationSeconds   int        `gorm:"default:0" json:"duration_seconds"`
	ProviderCostCents int64      `gorm:"default:0" json:"-"` // 服务商报告成本，不对外展示
	TotalCostCents    int64      `gorm:"default:0" json:"total_cost_cents"`
	CostBreakdown     *string    `gorm:"type:text" json:"-"`
	TranscriptURL     string     `gorm:"size:500" json:"transcript_url"`
	RecordingURL      string     `gorm:"size:500" json:"recording_url"`
	Status            string     `gorm:"size:20;default:completed;index" json:"status"`
	EndedReason       string     `gorm:"size:50" json:"ended_reason"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	EndedAt           *time.Time `gorm:"index" json:"ended_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// Billed 该通话是否已计费（以 cost_breakdown 中的 billing_type 为准）
func (c *Conversation) Billed() bool {
	breakdown, err := c.ParseCostBreakdown()
	if err != nil || breakdown == nil {
		return false
	}
	return breakdown.BillingType != ""
}

// ParseCostBreakdown 解析计费明细 JSON
func (c *Conversation) ParseCostBreakdown() (*CostBreakdown, error) {
	if c.CostBreakdown == nil || *c.CostBreakdown == "" {
		return nil, nil
	}
	var breakdown CostBreakdown
	if err := json.Unmarshal([]byte(*c.CostBreakdown), &breakdown); err != nil {
		return nil, err
	}
	return &breakdown, nil
}

// SetCostBreakdown 序列化并写入计费明细
func (c *Conversation) SetCostBreakdown(breakdown *CostBreakdown) error {
	data, err := json.Marshal(breakdown)
	if err != nil {
		return err
	}
	s := string(data)
	c.CostBreakdown = &s
	return nil
}
