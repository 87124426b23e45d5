package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/config"
	"github.com/voxhub/voice_go_server/internal/model"
	"github.com/voxhub/voice_go_server/internal/pkg/email"
	"github.com/voxhub/voice_go_server/internal/pkg/payments"
	"github.com/voxhub/voice_go_server/internal/pkg/pubsub"
	"github.com/voxhub/voice_go_server/internal/pkg/queue"
	"github.com/voxhub/voice_go_server/internal/pkg/response"
	"github.com/voxhub/voice_go_server/internal/repository"
	"github.com/voxhub/voice_go_server/internal/service"
	"github.com/voxhub/voice_go_server/internal/testutil"
)

func setupWebhookHandler(t *testing.T, db *gorm.DB) (*WebhookHandler, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{
		Providers: map[string]config.VoiceProvider{
			"vapi": {WebhookSecret: "test-secret"},
		},
		Stripe: config.StripeConfig{
			WebhookSecret: "whsec_test",
		},
	}

	webhookService := service.NewWebhookService(
		repository.NewConversationRepository(db),
		repository.NewWorkspaceRepository(db),
		repository.NewCampaignRepository(db),
		repository.NewWebhookEventRepository(db),
		queue.NewQueue(client, "billing_jobs"),
		pubsub.NewPublisher(client),
		cfg,
	)
	stripeService := service.NewStripeService(
		payments.NewClient(&cfg.Stripe),
		repository.NewWebhookEventRepository(db),
		repository.NewPartnerRepository(db),
		repository.NewSubscriptionRepository(db),
		repository.NewMembershipRepository(db),
		repository.NewUserRepository(db),
		nil,
		nil,
		email.NewService(&config.EmailConfig{}),
		cfg,
	)

	handler := NewWebhookHandler(webhookService, stripeService)

	cleanup := func() {
		client.Close()
		mr.Close()
	}
	return handler, cleanup
}

func signBody(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(r http.Handler, path string, payload []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookHandler_Voice_Success(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	handler, cleanup := setupWebhookHandler(t, db)
	defer cleanup()

	partner := testutil.TestPartner(t, db)
	workspace := testutil.TestWorkspace(t, db, partner.ID)

	router := gin.New()
	router.POST("/webhooks/voice/:provider", handler.Voice)

	payload, _ := json.Marshal(service.VoiceCallEvent{
		EventID:         "evt_handler_1",
		CallID:          "call_handler_1",
		WorkspaceID:     workspace.ID,
		Direction:       "outbound",
		DurationSeconds: 65,
	})

	w := postWebhook(router, "/webhooks/voice/vapi", payload, map[string]string{
		"X-Webhook-Signature": signBody("test-secret", payload),
	})
	resp := parseResponse(t, w)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeSuccess, resp.Code)

	var conv model.Conversation
	require.NoError(t, db.Where("provider_call_id = ?", "call_handler_1").First(&conv).Error)
	assert.Equal(t, workspace.ID, conv.WorkspaceID)
}

func TestWebhookHandler_Voice_BadSignature(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	handler, cleanup := setupWebhookHandler(t, db)
	defer cleanup()

	router := gin.New()
	router.POST("/webhooks/voice/:provider", handler.Voice)

	payload := []byte(`{"event_id":"evt_x","call_id":"call_x"}`)
	w := postWebhook(router, "/webhooks/voice/vapi", payload, map[string]string{
		"X-Webhook-Signature": "deadbeef",
	})

	// 签名不对直接 400，让服务商重试
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	require.NoError(t, db.Model(&model.Conversation{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestWebhookHandler_Voice_UnknownProvider(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	handler, cleanup := setupWebhookHandler(t, db)
	defer cleanup()

	router := gin.New()
	router.POST("/webhooks/voice/:provider", handler.Voice)

	payload := []byte(`{"event_id":"evt_x","call_id":"call_x"}`)
	w := postWebhook(router, "/webhooks/voice/nonexistent", payload, map[string]string{
		"X-Webhook-Signature": signBody("test-secret", payload),
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookHandler_Voice_Duplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	handler, cleanup := setupWebhookHandler(t, db)
	defer cleanup()

	partner := testutil.TestPartner(t, db)
	workspace := testutil.TestWorkspace(t, db, partner.ID)

	router := gin.New()
	router.POST("/webhooks/voice/:provider", handler.Voice)

	payload, _ := json.Marshal(service.VoiceCallEvent{
		EventID:         "evt_dup_handler",
		CallID:          "call_dup_handler",
		WorkspaceID:     workspace.ID,
		DurationSeconds: 30,
	})
	headers := map[string]string{
		"X-Webhook-Signature": signBody("test-secret", payload),
	}

	w := postWebhook(router, "/webhooks/voice/vapi", payload, headers)
	assert.Equal(t, http.StatusOK, w.Code)

	// 重复投递同一事件按成功响应，避免服务商重试风暴
	w = postWebhook(router, "/webhooks/voice/vapi", payload, headers)
	resp := parseResponse(t, w)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeSuccess, resp.Code)

	var count int64
	require.NoError(t, db.Model(&model.Conversation{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestWebhookHandler_Voice_WorkspaceNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	handler, cleanup := setupWebhookHandler(t, db)
	defer cleanup()

	router := gin.New()
	router.POST("/webhooks/voice/:provider", handler.Voice)

	payload, _ := json.Marshal(service.VoiceCallEvent{
		EventID:         "evt_no_ws",
		CallID:          "call_no_ws",
		WorkspaceID:     99999,
		DurationSeconds: 30,
	})
	w := postWebhook(router, "/webhooks/voice/vapi", payload, map[string]string{
		"X-Webhook-Signature": signBody("test-secret", payload),
	})
	resp := parseResponse(t, w)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeResourceNotFound, resp.Code)
}

func TestWebhookHandler_Stripe_BadSignature(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	handler, cleanup := setupWebhookHandler(t, db)
	defer cleanup()

	router := gin.New()
	router.POST("/webhooks/stripe", handler.Stripe)

	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	w := postWebhook(router, "/webhooks/stripe", payload, map[string]string{
		"Stripe-Signature": "t=123,v1=invalid",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
