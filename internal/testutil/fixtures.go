package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/internal/model"
)

// TestPartner 创建测试合作伙伴
func TestPartner(t *testing.T, db *gorm.DB, opts ...func(*model.Partner)) *model.Partner {
	t.Helper()

	nano := time.Now().UnixNano()
	partner := &model.Partner{
		Name:               fmt.Sprintf("Test Partner %d", nano%10000),
		Slug:               fmt.Sprintf("partner-%d", nano),
		PlanTier:           "starter",
		PerMinuteRateCents: 20,
		Status:             "active",
	}

	for _, opt := range opts {
		opt(partner)
	}

	if err := db.Create(partner).Error; err != nil {
		t.Fatalf("Failed to create test partner: %v", err)
	}

	return partner
}

// WithPartnerBalance 设置合作伙伴余额
func WithPartnerBalance(cents int64) func(*model.Partner) {
	return func(p *model.Partner) {
		p.BalanceCents = cents
	}
}

// WithPartnerRate 设置合作伙伴每分钟费率
func WithPartnerRate(cents int) func(*model.Partner) {
	return func(p *model.Partner) {
		p.PerMinuteRateCents = cents
	}
}

// TestWorkspace 创建测试工作区
func TestWorkspace(t *testing.T, db *gorm.DB, partnerID int64, opts ...func(*model.Workspace)) *model.Workspace {
	t.Helper()

	nano := time.Now().UnixNano()
	workspace := &model.Workspace{
		PartnerID: partnerID,
		Name:      fmt.Sprintf("Test Workspace %d", nano%10000),
		Slug:      fmt.Sprintf("ws-%d", nano),
		Status:    "active",
	}

	for _, opt := range opts {
		opt(workspace)
	}

	if err := db.Create(workspace).Error; err != nil {
		t.Fatalf("Failed to create test workspace: %v", err)
	}

	return workspace
}

// WithBalance 设置工作区余额
func WithBalance(cents int64) func(*model.Workspace) {
	return func(w *model.Workspace) {
		w.BalanceCents = cents
	}
}

// WithRate 设置工作区每分钟费率
func WithRate(cents int) func(*model.Workspace) {
	return func(w *model.Workspace) {
		w.PerMinuteRateCents = cents
	}
}

// WithBillingExempt 设置计费豁免
func WithBillingExempt() func(*model.Workspace) {
	return func(w *model.Workspace) {
		w.BillingExempt = true
	}
}

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	user := &model.User{
		Email:        fmt.Sprintf("test_%d@example.com", time.Now().UnixNano()),
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuvwxyz123456", // bcrypt hash placeholder
		Name:         "Test User",
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = email
	}
}

// WithSuperAdmin 设置超管标记
func WithSuperAdmin() func(*model.User) {
	return func(u *model.User) {
		u.IsSuperAdmin = true
	}
}

// TestMembership 创建测试成员关系
func TestMembership(t *testing.T, db *gorm.DB, userID, partnerID int64, workspaceID *int64, role string) *model.Membership {
	t.Helper()

	membership := &model.Membership{
		UserID:      userID,
		PartnerID:   partnerID,
		WorkspaceID: workspaceID,
		Role:        role,
	}

	if err := db.Create(membership).Error; err != nil {
		t.Fatalf("Failed to create test membership: %v", err)
	}

	return membership
}

// TestSubscription 创建测试订阅
func TestSubscription(t *testing.T, db *gorm.DB, partnerID int64, workspaceID *int64, opts ...func(*model.Subscription)) *model.Subscription {
	t.Helper()

	now := time.Now()
	sub := &model.Subscription{
		PartnerID:          partnerID,
		WorkspaceID:        workspaceID,
		Plan:               "growth",
		Kind:               model.SubscriptionPrepaid,
		IncludedMinutes:    1000,
		Status:             model.SubscriptionActive,
		CurrentPeriodStart: now.AddDate(0, 0, -10),
		CurrentPeriodEnd:   now.AddDate(0, 0, 20),
	}

	for _, opt := range opts {
		opt(sub)
	}

	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to create test subscription: %v", err)
	}

	return sub
}

// WithKind 设置订阅类型
func WithKind(kind string) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.Kind = kind
	}
}

// WithIncludedMinutes 设置套餐分钟数
func WithIncludedMinutes(included, used int) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.IncludedMinutes = included
		s.MinutesUsed = used
	}
}

// WithSubStatus 设置订阅状态
func WithSubStatus(status string) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.Status = status
	}
}

// TestAgent 创建测试坐席
func TestAgent(t *testing.T, db *gorm.DB, workspaceID int64, opts ...func(*model.Agent)) *model.Agent {
	t.Helper()

	agent := &model.Agent{
		WorkspaceID: workspaceID,
		Name:        fmt.Sprintf("Test Agent %d", time.Now().UnixNano()%10000),
		Provider:    "vapi",
		Status:      "active",
	}

	for _, opt := range opts {
		opt(agent)
	}

	if err := db.Create(agent).Error; err != nil {
		t.Fatalf("Failed to create test agent: %v", err)
	}

	return agent
}

// TestConversation 创建测试通话
func TestConversation(t *testing.T, db *gorm.DB, workspaceID int64, opts ...func(*model.Conversation)) *model.Conversation {
	t.Helper()

	conv := &model.Conversation{
		WorkspaceID:     workspaceID,
		Provider:        "vapi",
		ProviderCallID:  fmt.Sprintf("call_%d", time.Now().UnixNano()),
		DurationSeconds: 60,
		Status:          "completed",
	}

	for _, opt := range opts {
		opt(conv)
	}

	if err := db.Create(conv).Error; err != nil {
		t.Fatalf("Failed to create test conversation: %v", err)
	}

	return conv
}

// WithDuration 设置通话时长（秒）
func WithDuration(seconds int) func(*model.Conversation) {
	return func(c *model.Conversation) {
		c.DurationSeconds = seconds
	}
}

// WithAgent 设置通话所属坐席
func WithAgent(agentID int64) func(*model.Conversation) {
	return func(c *model.Conversation) {
		c.AgentID = &agentID
	}
}

// WithProviderCost 设置服务商报告成本
func WithProviderCost(cents int64) func(*model.Conversation) {
	return func(c *model.Conversation) {
		c.ProviderCostCents = cents
	}
}

// TestCampaign 创建测试活动
func TestCampaign(t *testing.T, db *gorm.DB, workspaceID int64, opts ...func(*model.Campaign)) *model.Campaign {
	t.Helper()

	campaign := &model.Campaign{
		WorkspaceID: workspaceID,
		Name:        fmt.Sprintf("Test Campaign %d", time.Now().UnixNano()%10000),
		Status:      model.CampaignDraft,
	}

	for _, opt := range opts {
		opt(campaign)
	}

	if err := db.Create(campaign).Error; err != nil {
		t.Fatalf("Failed to create test campaign: %v", err)
	}

	return campaign
}

// TestPartnerRequest 创建测试入驻申请
func TestPartnerRequest(t *testing.T, db *gorm.DB, opts ...func(*model.PartnerRequest)) *model.PartnerRequest {
	t.Helper()

	nano := time.Now().UnixNano()
	request := &model.PartnerRequest{
		CompanyName:   fmt.Sprintf("Acme %d", nano%10000),
		ContactEmail:  fmt.Sprintf("owner_%d@example.com", nano),
		ContactName:   "Acme Owner",
		RequestedSlug: fmt.Sprintf("acme-%d", nano),
		PlanTier:      "starter",
		Status:        model.RequestPending,
	}

	for _, opt := range opts {
		opt(request)
	}

	if err := db.Create(request).Error; err != nil {
		t.Fatalf("Failed to create test partner request: %v", err)
	}

	return request
}
