package model

import (
	"time"
)

// 账户归属
const (
	OwnerPartner   = "partner"
	OwnerWorkspace = "workspace"
)

// 流水类型
const (
	TxnDeduction  = "deduction"
	TxnTopup      = "topup"
	TxnGrant      = "grant"
	TxnAdjustment = "adjustment"
)

// CreditTransaction 余额流水，只追加不修改
// 不变式：余额字段与流水行始终在同一数据库事务中写入，
// 即任意时刻 balance == sum(amount_cents)
type CreditTransaction struct {
	ID                int64     `gorm:"primaryKey" json:"id"`
	OwnerType         string    `gorm:"size:20;not null;index:idx_credit_txns_owner" json:"owner_type"`
	OwnerID           int64     `gorm:"not null;index:idx_credit_txns_owner" json:"owner_id"`
	AmountCents       int64     `gorm:"not null" json:"amount_cents"` // 正为入账，负为扣费
	BalanceAfterCents int64     `gorm:"not null" json:"balance_after_cents"`
	Type              string    `gorm:"size:20;not null;index" json:"type"`
	ConversationID    *int64    `gorm:"index" json:"conversation_id,omitempty"`
	Reference         string    `gorm:"size:100" json:"reference"` // Stripe payment intent / 事件 ID
	Description       string    `gorm:"size:255" json:"description"`
	CreatedAt         time.Time `gorm:"index" json:"created_at"`
}

func (CreditTransaction) TableName() string {
	return "credit_transactions"
}
