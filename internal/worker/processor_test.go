package worker

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/config"
	"github.com/voxhub/voice_go_server/internal/model"
	"github.com/voxhub/voice_go_server/internal/pkg/email"
	"github.com/voxhub/voice_go_server/internal/pkg/pubsub"
	"github.com/voxhub/voice_go_server/internal/pkg/queue"
	"github.com/voxhub/voice_go_server/internal/repository"
	"github.com/voxhub/voice_go_server/internal/service"
	"github.com/voxhub/voice_go_server/internal/testutil"
)

func setupProcessor(t *testing.T, db *gorm.DB) (*Processor, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{
		Billing: config.BillingConfig{
			DefaultRateCents: 20,
			LowBalanceCents:  500,
		},
	}

	billingService := service.NewBillingService(
		db,
		repository.NewWorkspaceRepository(db),
		repository.NewPartnerRepository(db),
		repository.NewConversationRepository(db),
		repository.NewSubscriptionRepository(db),
		repository.NewCreditRepository(db),
		repository.NewAgentRepository(db),
		cfg,
	)

	processor := NewProcessor(
		billingService,
		repository.NewWorkspaceRepository(db),
		repository.NewMembershipRepository(db),
		repository.NewUserRepository(db),
		pubsub.NewPublisher(client),
		email.NewService(&config.EmailConfig{}),
		cfg,
	)

	cleanup := func() {
		client.Close()
		mr.Close()
	}
	return processor, cleanup
}

func TestProcessor_Process(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	processor, cleanup := setupProcessor(t, db)
	defer cleanup()

	partner := testutil.TestPartner(t, db)
	workspace := testutil.TestWorkspace(t, db, partner.ID, testutil.WithBalance(1000))
	conv := testutil.TestConversation(t, db, workspace.ID, testutil.WithDuration(65))

	job := &queue.BillingJob{
		ConversationID: conv.ID,
		WorkspaceID:    workspace.ID,
		PartnerID:      partner.ID,
		DurationSec:    65,
		Provider:       conv.Provider,
	}

	require.NoError(t, processor.Process(context.Background(), job))

	// 65 秒按 2 分钟、每分钟 20 分扣费
	var updated model.Workspace
	require.NoError(t, db.First(&updated, workspace.ID).Error)
	assert.Equal(t, int64(960), updated.BalanceCents)
}

func TestProcessor_Process_AlreadyBilled(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	processor, cleanup := setupProcessor(t, db)
	defer cleanup()

	partner := testutil.TestPartner(t, db)
	workspace := testutil.TestWorkspace(t, db, partner.ID, testutil.WithBalance(1000))
	conv := testutil.TestConversation(t, db, workspace.ID, testutil.WithDuration(65))

	job := &queue.BillingJob{
		ConversationID: conv.ID,
		WorkspaceID:    workspace.ID,
		PartnerID:      partner.ID,
		DurationSec:    65,
		Provider:       conv.Provider,
	}

	// 队列重复投递同一任务：第二次处理不再扣费
	require.NoError(t, processor.Process(context.Background(), job))
	require.NoError(t, processor.Process(context.Background(), job))

	var updated model.Workspace
	require.NoError(t, db.First(&updated, workspace.ID).Error)
	assert.Equal(t, int64(960), updated.BalanceCents)

	var txnCount int64
	require.NoError(t, db.Model(&model.CreditTransaction{}).Count(&txnCount).Error)
	assert.Equal(t, int64(1), txnCount)
}

func TestProcessor_Process_ConversationMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	processor, cleanup := setupProcessor(t, db)
	defer cleanup()

	job := &queue.BillingJob{
		ConversationID: 9999,
		WorkspaceID:    1,
		DurationSec:    60,
	}

	// 计费失败向上返回，由调用方记日志、对账兜底
	err := processor.Process(context.Background(), job)
	assert.Error(t, err)
}
