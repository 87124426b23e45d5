package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxhub/voice_go_server/internal/model"
	"github.com/voxhub/voice_go_server/internal/testutil"
)

func TestWebhookEventRepository_InsertIfNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewWebhookEventRepository(db)

	inserted, err := repo.InsertIfNew(&model.WebhookEvent{
		Provider:        "stripe",
		ProviderEventID: "evt_1",
		EventType:       "payment_intent.succeeded",
	})
	require.NoError(t, err)
	assert.True(t, inserted)

	// 同一 provider + event_id 重复插入返回 false
	inserted, err = repo.InsertIfNew(&model.WebhookEvent{
		Provider:        "stripe",
		ProviderEventID: "evt_1",
		EventType:       "payment_intent.succeeded",
	})
	require.NoError(t, err)
	assert.False(t, inserted)

	// 不同 provider 下相同 event_id 互不影响
	inserted, err = repo.InsertIfNew(&model.WebhookEvent{
		Provider:        "vapi",
		ProviderEventID: "evt_1",
		EventType:       "call.completed",
	})
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestWebhookEventRepository_MarkProcessed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewWebhookEventRepository(db)

	event := &model.WebhookEvent{
		Provider:        "stripe",
		ProviderEventID: "evt_2",
		EventType:       "invoice.payment_succeeded",
	}
	_, err := repo.InsertIfNew(event)
	require.NoError(t, err)

	require.NoError(t, repo.MarkProcessed(event.ID))

	found, err := repo.GetByProviderEventID("stripe", "evt_2")
	require.NoError(t, err)
	assert.NotNil(t, found.ProcessedAt)
	assert.Empty(t, found.ProcessingError)
}

func TestWebhookEventRepository_MarkFailed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewWebhookEventRepository(db)

	event := &model.WebhookEvent{
		Provider:        "vapi",
		ProviderEventID: "evt_3",
		EventType:       "call.completed",
	}
	_, err := repo.InsertIfNew(event)
	require.NoError(t, err)

	require.NoError(t, repo.MarkFailed(event.ID, "workspace not found"))

	found, err := repo.GetByProviderEventID("vapi", "evt_3")
	require.NoError(t, err)
	assert.Nil(t, found.ProcessedAt)
	assert.Equal(t, "workspace not found", found.ProcessingError)
}
