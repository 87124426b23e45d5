package model

import (
	"time"
)

// 入驻申请状态
const (
	RequestPending     = "pending"
	RequestApproved    = "approved"
	RequestRejected    = "rejected"
	RequestProvisioned = "provisioned"
)

// PartnerRequest 合作伙伴入驻申请，审批通过并完成支付后触发开通
type PartnerRequest struct {
	ID                int64      `gorm:"primaryKey" json:"id"`
	CompanyName       string     `gorm:"size:100;not null" json:"company_name"`
	ContactEmail      string     `gorm:"size:100;not null;index" json:"contact_email"`
	ContactName       string     `gorm:"size:100" json:"contact_name"`
	RequestedSlug     string     `gorm:"size:50" json:"requested_slug"`
	RequestedDomain   string     `gorm:"size:255" json:"requested_domain"`
	PlanTier          string     `gorm:"size:20;default:starter" json:"plan_tier"`
	Status            string     `gorm:"size:20;default:pending;index" json:"status"`
	CheckoutSessionID *string    `gorm:"size:100" json:"-"`
	PartnerID         *int64     `gorm:"index" json:"partner_id,omitempty"` // 开通后回填
	RejectReason      string     `gorm:"size:255" json:"reject_reason,omitempty"`
	ReviewedAt        *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (PartnerRequest) TableName() string {
	return "partner_requests"
}
