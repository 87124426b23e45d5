package dto

// CallBillingInput 计费输入，由语音 webhook 投递到计费队列
type CallBillingInput struct {
	ConversationID int64  `json:"conversation_id"`
	WorkspaceID    int64  `json:"workspace_id"`
	PartnerID      int64  `json:"partner_id"`
	DurationSec    int    `json:"duration_sec"`
	Provider       string `json:"provider"`
}

// CallBillingResult 单次计费结果
type CallBillingResult struct {
	Success       bool   `json:"success"`
	AlreadyBilled bool   `json:"already_billed"`
	BillingType   string `json:"billing_type"`
	DeductedCents int64  `json:"deducted_cents"`
	BalanceCents  int64  `json:"balance_cents"`
	BilledMinutes int    `json:"billed_minutes"`
	FailReason    string `json:"fail_reason,omitempty"`
}

type BalanceResponse struct {
	BalanceCents       int64 `json:"balance_cents"`
	PerMinuteRateCents int   `json:"per_minute_rate_cents"`
	MinutesThisMonth   int   `json:"minutes_this_month"`
	CostThisMonthCents int64 `json:"cost_this_month_cents"`
}

type TopupRequest struct {
	AmountCents int64 `json:"amount_cents" binding:"required,min=500"`
}

type TopupResponse struct {
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
}

type GrantRequest struct {
	WorkspaceID int64  `json:"workspace_id" binding:"required"`
	AmountCents int64  `json:"amount_cents" binding:"required"`
	Description string `json:"description"`
}

type AdjustmentRequest struct {
	OwnerType   string `json:"owner_type" binding:"required,oneof=partner workspace"`
	OwnerID     int64  `json:"owner_id" binding:"required"`
	AmountCents int64  `json:"amount_cents" binding:"required"`
	Description string `json:"description" binding:"required"`
}
