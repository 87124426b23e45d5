package service

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v72"
	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/config"
	"github.com/voxhub/voice_go_server/internal/model"
	"github.com/voxhub/voice_go_server/internal/pkg/email"
	"github.com/voxhub/voice_go_server/internal/repository"
	"github.com/voxhub/voice_go_server/internal/testutil"
)

func setupStripeService(t *testing.T, db *gorm.DB) *StripeService {
	t.Helper()

	cfg := &config.Config{
		Billing: config.BillingConfig{
			Plans: map[string]config.PlanConfig{
				"starter": {Kind: model.SubscriptionPrepaid, IncludedMinutes: 500},
			},
		},
	}

	creditService := NewCreditService(
		db,
		repository.NewPartnerRepository(db),
		repository.NewWorkspaceRepository(db),
		repository.NewCreditRepository(db),
		nil,
		cfg,
	)
	provisioning := NewProvisioningService(
		db,
		repository.NewPartnerRequestRepository(db),
		repository.NewPartnerRepository(db),
		repository.NewUserRepository(db),
		nil,
		email.NewService(&config.EmailConfig{}),
		cfg,
	)

	return NewStripeService(
		nil,
		repository.NewWebhookEventRepository(db),
		repository.NewPartnerRepository(db),
		repository.NewSubscriptionRepository(db),
		repository.NewMembershipRepository(db),
		repository.NewUserRepository(db),
		creditService,
		provisioning,
		email.NewService(&config.EmailConfig{}),
		cfg,
	)
}

func stripeEvent(id, eventType string, payload interface{}) stripe.Event {
	raw, _ := json.Marshal(payload)
	return stripe.Event{
		ID:   id,
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestStripeService_HandleEvent_TopupSucceeded(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupStripeService(t, db)

	partner := testutil.TestPartner(t, db)
	workspace := testutil.TestWorkspace(t, db, partner.ID, testutil.WithBalance(0))

	event := stripeEvent("evt_topup_1", "payment_intent.succeeded", map[string]interface{}{
		"id":     "pi_123",
		"amount": 5000,
		"metadata": map[string]string{
			"owner_type":   model.OwnerWorkspace,
			"workspace_id": fmt.Sprintf("%d", workspace.ID),
		},
	})

	require.NoError(t, service.HandleEvent(event))

	var updated model.Workspace
	require.NoError(t, db.First(&updated, workspace.ID).Error)
	assert.Equal(t, int64(5000), updated.BalanceCents)

	var txn model.CreditTransaction
	require.NoError(t, db.Where("reference = ?", "pi_123").First(&txn).Error)
	assert.Equal(t, model.TxnTopup, txn.Type)

	var record model.WebhookEvent
	require.NoError(t, db.Where("provider_event_id = ?", "evt_topup_1").First(&record).Error)
	assert.NotNil(t, record.ProcessedAt)
}

func TestStripeService_HandleEvent_DuplicateEventID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupStripeService(t, db)

	partner := testutil.TestPartner(t, db)
	workspace := testutil.TestWorkspace(t, db, partner.ID, testutil.WithBalance(0))

	event := stripeEvent("evt_dup", "payment_intent.succeeded", map[string]interface{}{
		"id":     "pi_dup",
		"amount": 3000,
		"metadata": map[string]string{
			"owner_type":   model.OwnerWorkspace,
			"workspace_id": fmt.Sprintf("%d", workspace.ID),
		},
	})

	require.NoError(t, service.HandleEvent(event))
	// Stripe 重复投递同一事件：静默跳过，不重复入账
	require.NoError(t, service.HandleEvent(event))

	var updated model.Workspace
	require.NoError(t, db.First(&updated, workspace.ID).Error)
	assert.Equal(t, int64(3000), updated.BalanceCents)

	var txnCount int64
	require.NoError(t, db.Model(&model.CreditTransaction{}).Count(&txnCount).Error)
	assert.Equal(t, int64(1), txnCount)
}

func TestStripeService_HandleEvent_InvoicePaymentSucceeded(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupStripeService(t, db)

	partner := testutil.TestPartner(t, db)
	stripeSubID := "sub_renew"
	sub := testutil.TestSubscription(t, db, partner.ID, nil,
		testutil.WithIncludedMinutes(1000, 800),
		testutil.WithSubStatus(model.SubscriptionPastDue),
		func(s *model.Subscription) {
			s.StripeSubscriptionID = &stripeSubID
			s.OverageMinutes = 12
		})

	periodStart := time.Now().Unix()
	periodEnd := time.Now().AddDate(0, 1, 0).Unix()
	event := stripeEvent("evt_invoice_ok", "invoice.payment_succeeded", map[string]interface{}{
		"subscription": stripeSubID,
		"period_start": periodStart,
		"period_end":   periodEnd,
	})

	require.NoError(t, service.HandleEvent(event))

	// 续费成功：周期滚动，用量与超额清零
	var updated model.Subscription
	require.NoError(t, db.First(&updated, sub.ID).Error)
	assert.Equal(t, model.SubscriptionActive, updated.Status)
	assert.Equal(t, 0, updated.MinutesUsed)
	assert.Equal(t, 0, updated.OverageMinutes)
	assert.Equal(t, periodStart, updated.CurrentPeriodStart.Unix())
	assert.Equal(t, periodEnd, updated.CurrentPeriodEnd.Unix())
}

func TestStripeService_HandleEvent_InvoicePaymentFailed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupStripeService(t, db)

	partner := testutil.TestPartner(t, db)
	stripeSubID := "sub_pastdue"
	sub := testutil.TestSubscription(t, db, partner.ID, nil, func(s *model.Subscription) {
		s.StripeSubscriptionID = &stripeSubID
	})

	event := stripeEvent("evt_invoice_fail", "invoice.payment_failed", map[string]interface{}{
		"subscription": stripeSubID,
		"amount_due":   9900,
	})

	require.NoError(t, service.HandleEvent(event))

	var updated model.Subscription
	require.NoError(t, db.First(&updated, sub.ID).Error)
	assert.Equal(t, model.SubscriptionPastDue, updated.Status)
}

func TestStripeService_HandleEvent_SubscriptionDeleted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupStripeService(t, db)

	partner := testutil.TestPartner(t, db)
	stripeSubID := "sub_gone"
	sub := testutil.TestSubscription(t, db, partner.ID, nil, func(s *model.Subscription) {
		s.StripeSubscriptionID = &stripeSubID
	})

	event := stripeEvent("evt_sub_deleted", "customer.subscription.deleted", map[string]interface{}{
		"id": stripeSubID,
	})

	require.NoError(t, service.HandleEvent(event))

	var updated model.Subscription
	require.NoError(t, db.First(&updated, sub.ID).Error)
	assert.Equal(t, model.SubscriptionCanceled, updated.Status)
	assert.NotNil(t, updated.CanceledAt)
}

func TestStripeService_HandleEvent_UnknownType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupStripeService(t, db)

	event := stripeEvent("evt_unknown", "customer.created", map[string]interface{}{"id": "cus_x"})

	require.NoError(t, service.HandleEvent(event))

	// 未订阅的事件类型也要落去重表并标记已处理
	var record model.WebhookEvent
	require.NoError(t, db.Where("provider_event_id = ?", "evt_unknown").First(&record).Error)
	assert.NotNil(t, record.ProcessedAt)
}
