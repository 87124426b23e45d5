package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/config"
	"github.com/voxhub/voice_go_server/internal/model"
	"github.com/voxhub/voice_go_server/internal/repository"
	"github.com/voxhub/voice_go_server/internal/testutil"
)

func setupSearchService(t *testing.T, db *gorm.DB) (*SearchService, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{
		Search: config.SearchConfig{
			WarmupIntervalMins: 10,
			WarmupCacheSize:    100,
		},
	}

	service := NewSearchService(repository.NewConversationRepository(db), client, cfg)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return service, cleanup
}

func TestSearchService_WarmUp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service, cleanup := setupSearchService(t, db)
	defer cleanup()

	partner := testutil.TestPartner(t, db)
	workspace := testutil.TestWorkspace(t, db, partner.ID)
	testutil.TestConversation(t, db, workspace.ID)
	testutil.TestConversation(t, db, workspace.ID)

	ctx := context.Background()
	ran, err := service.WarmUp(ctx, workspace.ID)
	require.NoError(t, err)
	assert.True(t, ran)

	data, err := service.CachedResults(ctx, workspace.ID)
	require.NoError(t, err)
	require.NotNil(t, data)

	var convs []model.Conversation
	require.NoError(t, json.Unmarshal(data, &convs))
	assert.Len(t, convs, 2)
}

func TestSearchService_WarmUp_RateLimited(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service, cleanup := setupSearchService(t, db)
	defer cleanup()

	partner := testutil.TestPartner(t, db)
	workspace := testutil.TestWorkspace(t, db, partner.ID)
	testutil.TestConversation(t, db, workspace.ID)

	ctx := context.Background()
	ran, err := service.WarmUp(ctx, workspace.ID)
	require.NoError(t, err)
	assert.True(t, ran)

	// 间隔内重复预热被跳过
	ran, err = service.WarmUp(ctx, workspace.ID)
	require.NoError(t, err)
	assert.False(t, ran)

	// 不同工作区各自独立限流
	other := testutil.TestWorkspace(t, db, partner.ID)
	ran, err = service.WarmUp(ctx, other.ID)
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestSearchService_WarmUp_IntervalElapsed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service, cleanup := setupSearchService(t, db)
	defer cleanup()

	partner := testutil.TestPartner(t, db)
	workspace := testutil.TestWorkspace(t, db, partner.ID)

	ctx := context.Background()
	ran, err := service.WarmUp(ctx, workspace.ID)
	require.NoError(t, err)
	assert.True(t, ran)

	// 手动把上次执行时间拨回过去，模拟间隔已过
	service.mu.Lock()
	service.lastRun[workspace.ID] = time.Now().Add(-time.Hour)
	service.mu.Unlock()

	ran, err = service.WarmUp(ctx, workspace.ID)
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestSearchService_CachedResults_Miss(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service, cleanup := setupSearchService(t, db)
	defer cleanup()

	data, err := service.CachedResults(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, data)
}
