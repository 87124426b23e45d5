package dto

type CreateWorkspaceRequest struct {
	Name               string `json:"name" binding:"required,max=100"`
	Slug               string `json:"slug" binding:"required,max=50"`
	PerMinuteRateCents int    `json:"per_minute_rate_cents"`
	BillingExempt      bool   `json:"billing_exempt"`
}

type UpdateWorkspaceRequest struct {
	Name               *string `json:"name"`
	PerMinuteRateCents *int    `json:"per_minute_rate_cents"`
	BillingExempt      *bool   `json:"billing_exempt"`
	Status             *string `json:"status"`
}

// DashboardSummary 工作区概览
type DashboardSummary struct {
	BalanceCents       int64 `json:"balance_cents"`
	MinutesThisMonth   int   `json:"minutes_this_month"`
	CostThisMonthCents int64 `json:"cost_this_month_cents"`
	CallsThisMonth     int64 `json:"calls_this_month"`
	ActiveAgents       int64 `json:"active_agents"`
	RunningCampaigns   int64 `json:"running_campaigns"`
}

type AddMemberRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Role        string `json:"role" binding:"required,oneof=owner admin member"`
	WorkspaceID *int64 `json:"workspace_id"`
}
