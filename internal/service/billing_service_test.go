package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/config"
	"github.com/voxhub/voice_go_server/internal/model"
	"github.com/voxhub/voice_go_server/internal/model/dto"
	"github.com/voxhub/voice_go_server/internal/repository"
	"github.com/voxhub/voice_go_server/internal/testutil"
)

func setupBillingService(t *testing.T, db *gorm.DB) *BillingService {
	t.Helper()

	cfg := &config.Config{
		Billing: config.BillingConfig{
			DefaultRateCents: 15,
		},
	}

	return NewBillingService(
		db,
		repository.NewWorkspaceRepository(db),
		repository.NewPartnerRepository(db),
		repository.NewConversationRepository(db),
		repository.NewSubscriptionRepository(db),
		repository.NewCreditRepository(db),
		repository.NewAgentRepository(db),
		cfg,
	)
}

func billingInput(conv *model.Conversation) *dto.CallBillingInput {
	return &dto.CallBillingInput{
		ConversationID: conv.ID,
		WorkspaceID:    conv.WorkspaceID,
		DurationSec:    conv.DurationSeconds,
		Provider:       conv.Provider,
	}
}

func TestBilledMinutes(t *testing.T) {
	assert.Equal(t, 0, BilledMinutes(0))
	assert.Equal(t, 0, BilledMinutes(-10))
	assert.Equal(t, 1, BilledMinutes(1))
	assert.Equal(t, 1, BilledMinutes(59))
	assert.Equal(t, 1, BilledMinutes(60))
	assert.Equal(t, 2, BilledMinutes(61))
	assert.Equal(t, 2, BilledMinutes(120))
	assert.Equal(t, 3, BilledMinutes(121))
}

func TestBillingService_ProcessCallCompletion_Credits(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupBillingService(t, db)

	partner := testutil.TestPartner(t, db, testutil.WithPartnerRate(20))
	workspace := testutil.TestWorkspace(t, db, partner.ID, testutil.WithBalance(1000))
	// 65 秒按 2 分钟计，2 × 20 = 40 美分
	conv := testutil.TestConversation(t, db, workspace.ID, testutil.WithDuration(65))

	result, err := service.ProcessCallCompletion(billingInput(conv))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.AlreadyBilled)
	assert.Equal(t, model.BillingTypeCredits, result.BillingType)
	assert.Equal(t, int64(40), result.DeductedCents)
	assert.Equal(t, int64(960), result.BalanceCents)
	assert.Equal(t, 2, result.BilledMinutes)

	var updated model.Workspace
	require.NoError(t, db.First(&updated, workspace.ID).Error)
	assert.Equal(t, int64(960), updated.BalanceCents)
	assert.Equal(t, 2, updated.MinutesThisMonth)
	assert.Equal(t, int64(40), updated.CostThisMonthCents)

	var billedConv model.Conversation
	require.NoError(t, db.First(&billedConv, conv.ID).Error)
	assert.Equal(t, int64(40), billedConv.TotalCostCents)
	breakdown, err := billedConv.ParseCostBreakdown()
	require.NoError(t, err)
	require.NotNil(t, breakdown)
	assert.Equal(t, model.BillingTypeCredits, breakdown.BillingType)
	assert.Equal(t, 20, breakdown.RateCents)

	var txn model.CreditTransaction
	require.NoError(t, db.Where("owner_type = ? AND owner_id = ?", model.OwnerWorkspace, workspace.ID).First(&txn).Error)
	assert.Equal(t, int64(-40), txn.AmountCents)
	assert.Equal(t, int64(960), txn.BalanceAfterCents)
	assert.Equal(t, model.TxnDeduction, txn.Type)
}

func TestBillingService_ProcessCallCompletion_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupBillingService(t, db)

	partner := testutil.TestPartner(t, db, testutil.WithPartnerRate(20))
	workspace := testutil.TestWorkspace(t, db, partner.ID, testutil.WithBalance(1000))
	conv := testutil.TestConversation(t, db, workspace.ID, testutil.WithDuration(60))

	first, err := service.ProcessCallCompletion(billingInput(conv))
	require.NoError(t, err)
	assert.False(t, first.AlreadyBilled)

	// 重复投递：不再扣费
	second, err := service.ProcessCallCompletion(billingInput(conv))
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.True(t, second.AlreadyBilled)
	assert.Equal(t, first.BillingType, second.BillingType)
	assert.Equal(t, first.DeductedCents, second.DeductedCents)

	var updated model.Workspace
	require.NoError(t, db.First(&updated, workspace.ID).Error)
	assert.Equal(t, int64(980), updated.BalanceCents)

	var txnCount int64
	require.NoError(t, db.Model(&model.CreditTransaction{}).Count(&txnCount).Error)
	assert.Equal(t, int64(1), txnCount)
}

func TestBillingService_ProcessCallCompletion_PrepaidPlan(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupBillingService(t, db)

	partner := testutil.TestPartner(t, db, testutil.WithPartnerRate(20))
	workspace := testutil.TestWorkspace(t, db, partner.ID, testutil.WithBalance(500))
	sub := testutil.TestSubscription(t, db, partner.ID, &workspace.ID,
		testutil.WithKind(model.SubscriptionPrepaid),
		testutil.WithIncludedMinutes(1000, 0))
	conv := testutil.TestConversation(t, db, workspace.ID, testutil.WithDuration(125))

	result, err := service.ProcessCallCompletion(billingInput(conv))
	require.NoError(t, err)
	assert.Equal(t, model.BillingTypePrepaidPlan, result.BillingType)
	assert.Equal(t, int64(0), result.DeductedCents)
	assert.Equal(t, 3, result.BilledMinutes)

	var updatedSub model.Subscription
	require.NoError(t, db.First(&updatedSub, sub.ID).Error)
	assert.Equal(t, 3, updatedSub.MinutesUsed)

	// 套餐全覆盖时余额不动
	var updated model.Workspace
	require.NoError(t, db.First(&updated, workspace.ID).Error)
	assert.Equal(t, int64(500), updated.BalanceCents)
	assert.Equal(t, int64(60), updated.CostThisMonthCents) // 展示费用照常累计
}

func TestBillingService_ProcessCallCompletion_PrepaidOverflow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupBillingService(t, db)

	partner := testutil.TestPartner(t, db, testutil.WithPartnerRate(20))
	workspace := testutil.TestWorkspace(t, db, partner.ID, testutil.WithBalance(500))
	// 套餐只剩 1 分钟，3 分钟通话中 2 分钟落到余额
	sub := testutil.TestSubscription(t, db, partner.ID, &workspace.ID,
		testutil.WithKind(model.SubscriptionPrepaid),
		testutil.WithIncludedMinutes(10, 9))
	conv := testutil.TestConversation(t, db, workspace.ID, testutil.WithDuration(180))

	result, err := service.ProcessCallCompletion(billingInput(conv))
	require.NoError(t, err)
	assert.Equal(t, model.BillingTypeCredits, result.BillingType)
	assert.Equal(t, int64(40), result.DeductedCents)

	var updatedSub model.Subscription
	require.NoError(t, db.First(&updatedSub, sub.ID).Error)
	assert.Equal(t, 10, updatedSub.MinutesUsed)

	var updated model.Workspace
	require.NoError(t, db.First(&updated, workspace.ID).Error)
	assert.Equal(t, int64(460), updated.BalanceCents)
}

func TestBillingService_ProcessCallCompletion_Postpaid(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupBillingService(t, db)

	partner := testutil.TestPartner(t, db, testutil.WithPartnerRate(20))
	workspace := testutil.TestWorkspace(t, db, partner.ID, testutil.WithBalance(500))
	sub := testutil.TestSubscription(t, db, partner.ID, &workspace.ID,
		testutil.WithKind(model.SubscriptionPostpaid),
		testutil.WithIncludedMinutes(100, 99))
	conv := testutil.TestConversation(t, db, workspace.ID, testutil.WithDuration(300))

	result, err := service.ProcessCallCompletion(billingInput(conv))
	require.NoError(t, err)
	assert.Equal(t, model.BillingTypeSubscription, result.BillingType)
	assert.Equal(t, int64(0), result.DeductedCents)

	// 后付：只记账，超出套餐的部分记为超额分钟
	var updatedSub model.Subscription
	require.NoError(t, db.First(&updatedSub, sub.ID).Error)
	assert.Equal(t, 104, updatedSub.MinutesUsed)
	assert.Equal(t, 4, updatedSub.OverageMinutes)

	var updated model.Workspace
	require.NoError(t, db.First(&updated, workspace.ID).Error)
	assert.Equal(t, int64(500), updated.BalanceCents)

	var txnCount int64
	require.NoError(t, db.Model(&model.CreditTransaction{}).Count(&txnCount).Error)
	assert.Equal(t, int64(0), txnCount)
}

func TestBillingService_ProcessCallCompletion_ExpiredSubscriptionIgnored(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupBillingService(t, db)

	partner := testutil.TestPartner(t, db, testutil.WithPartnerRate(20))
	workspace := testutil.TestWorkspace(t, db, partner.ID, testutil.WithBalance(1000))
	testutil.TestSubscription(t, db, partner.ID, &workspace.ID,
		testutil.WithKind(model.SubscriptionPrepaid),
		testutil.WithIncludedMinutes(1000, 0),
		func(s *model.Subscription) {
			s.CurrentPeriodEnd = time.Now().Add(-time.Hour)
		})
	conv := testutil.TestConversation(t, db, workspace.ID, testutil.WithDuration(60))

	result, err := service.ProcessCallCompletion(billingInput(conv))
	require.NoError(t, err)
	assert.Equal(t, model.BillingTypeCredits, result.BillingType)
	assert.Equal(t, int64(20), result.DeductedCents)
}

func TestBillingService_ProcessCallCompletion_BillingExempt(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupBillingService(t, db)

	partner := testutil.TestPartner(t, db,
		testutil.WithPartnerRate(20),
		testutil.WithPartnerBalance(2000))
	workspace := testutil.TestWorkspace(t, db, partner.ID,
		testutil.WithBalance(100),
		testutil.WithBillingExempt())
	conv := testutil.TestConversation(t, db, workspace.ID, testutil.WithDuration(60))

	result, err := service.ProcessCallCompletion(billingInput(conv))
	require.NoError(t, err)
	assert.Equal(t, model.BillingTypePartnerCredits, result.BillingType)
	assert.Equal(t, int64(20), result.DeductedCents)
	assert.Equal(t, int64(1980), result.BalanceCents)

	// 豁免工作区自身余额不动，扣在合作伙伴账上
	var updatedWorkspace model.Workspace
	require.NoError(t, db.First(&updatedWorkspace, workspace.ID).Error)
	assert.Equal(t, int64(100), updatedWorkspace.BalanceCents)

	var updatedPartner model.Partner
	require.NoError(t, db.First(&updatedPartner, partner.ID).Error)
	assert.Equal(t, int64(1980), updatedPartner.BalanceCents)

	var txn model.CreditTransaction
	require.NoError(t, db.Where("owner_type = ?", model.OwnerPartner).First(&txn).Error)
	assert.Equal(t, int64(-20), txn.AmountCents)
}

func TestBillingService_ProcessCallCompletion_RateResolution(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupBillingService(t, db)

	// 工作区费率优先于合作伙伴费率
	partner := testutil.TestPartner(t, db, testutil.WithPartnerRate(20))
	workspace := testutil.TestWorkspace(t, db, partner.ID,
		testutil.WithBalance(1000),
		testutil.WithRate(30))
	conv := testutil.TestConversation(t, db, workspace.ID, testutil.WithDuration(60))

	result, err := service.ProcessCallCompletion(billingInput(conv))
	require.NoError(t, err)
	assert.Equal(t, int64(30), result.DeductedCents)

	// 两级都未配置时回落到全局默认费率
	bare := testutil.TestPartner(t, db, testutil.WithPartnerRate(0))
	bareWorkspace := testutil.TestWorkspace(t, db, bare.ID, testutil.WithBalance(1000))
	bareConv := testutil.TestConversation(t, db, bareWorkspace.ID, testutil.WithDuration(60))

	result, err = service.ProcessCallCompletion(billingInput(bareConv))
	require.NoError(t, err)
	assert.Equal(t, int64(15), result.DeductedCents)
}

func TestBillingService_ProcessCallCompletion_ProviderCostIgnored(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupBillingService(t, db)

	partner := testutil.TestPartner(t, db, testutil.WithPartnerRate(20))
	workspace := testutil.TestWorkspace(t, db, partner.ID, testutil.WithBalance(1000))
	// 服务商报告成本与展示费用无关，只进入审计明细
	conv := testutil.TestConversation(t, db, workspace.ID,
		testutil.WithDuration(65),
		testutil.WithProviderCost(999))

	result, err := service.ProcessCallCompletion(billingInput(conv))
	require.NoError(t, err)
	assert.Equal(t, int64(40), result.DeductedCents)

	var billedConv model.Conversation
	require.NoError(t, db.First(&billedConv, conv.ID).Error)
	assert.Equal(t, int64(40), billedConv.TotalCostCents)
	breakdown, err := billedConv.ParseCostBreakdown()
	require.NoError(t, err)
	assert.Equal(t, int64(999), breakdown.ProviderCost)
}

func TestBillingService_ProcessCallCompletion_AgentStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupBillingService(t, db)

	partner := testutil.TestPartner(t, db, testutil.WithPartnerRate(20))
	workspace := testutil.TestWorkspace(t, db, partner.ID, testutil.WithBalance(1000))
	agent := testutil.TestAgent(t, db, workspace.ID)
	conv := testutil.TestConversation(t, db, workspace.ID,
		testutil.WithDuration(120),
		testutil.WithAgent(agent.ID))

	_, err := service.ProcessCallCompletion(billingInput(conv))
	require.NoError(t, err)

	var updatedAgent model.Agent
	require.NoError(t, db.First(&updatedAgent, agent.ID).Error)
	assert.Equal(t, 1, updatedAgent.TotalCalls)
	assert.Equal(t, 2, updatedAgent.TotalMinutes)
	assert.Equal(t, int64(40), updatedAgent.TotalCostCents)
}

func TestBillingService_ProcessCallCompletion_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupBillingService(t, db)

	_, err := service.ProcessCallCompletion(&dto.CallBillingInput{ConversationID: 99999})
	assert.Equal(t, ErrConversationNotFound, err)
}

func TestBillingService_ReconcileUnbilled(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupBillingService(t, db)

	partner := testutil.TestPartner(t, db, testutil.WithPartnerRate(20))
	workspace := testutil.TestWorkspace(t, db, partner.ID, testutil.WithBalance(1000))
	testutil.TestConversation(t, db, workspace.ID, testutil.WithDuration(60))
	testutil.TestConversation(t, db, workspace.ID, testutil.WithDuration(120))
	billed := testutil.TestConversation(t, db, workspace.ID, testutil.WithDuration(60))

	// 其中一通已计费，不应重复处理
	_, err := service.ProcessCallCompletion(billingInput(billed))
	require.NoError(t, err)

	// olderThan 为负值使 cutoff 落在当前时刻之后，覆盖刚插入的记录
	count, err := service.ReconcileUnbilled(-time.Minute, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// 再跑一次应无事可做
	count, err = service.ReconcileUnbilled(-time.Minute, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	var updated model.Workspace
	require.NoError(t, db.First(&updated, workspace.ID).Error)
	assert.Equal(t, int64(1000-20-40-20), updated.BalanceCents)
}
