package dto

type UpdatePartnerRequest struct {
	Name               *string `json:"name"`
	PerMinuteRateCents *int    `json:"per_minute_rate_cents"`
	AccentColor        *string `json:"accent_color"`
}

type CreatePartnerRequestInput struct {
	CompanyName     string `json:"company_name" binding:"required,max=100"`
	ContactEmail    string `json:"contact_email" binding:"required,email"`
	ContactName     string `json:"contact_name"`
	RequestedSlug   string `json:"requested_slug" binding:"required,max=50"`
	RequestedDomain string `json:"requested_domain"`
	PlanTier        string `json:"plan_tier"`
}

type ReviewRequestInput struct {
	Approve      bool   `json:"approve"`
	RejectReason string `json:"reject_reason"`
}

// PlatformStats 超管平台统计
type PlatformStats struct {
	Partners       int64 `json:"partners"`
	Workspaces     int64 `json:"workspaces"`
	Conversations  int64 `json:"conversations"`
	MinutesBilled  int64 `json:"minutes_billed"`
	RevenueCents   int64 `json:"revenue_cents"`
	PendingRequest int64 `json:"pending_requests"`
}
