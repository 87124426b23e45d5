package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/voxhub/voice_go_server/config"
	"github.com/voxhub/voice_go_server/internal/repository"
)

const warmCacheKeyPrefix = "search:warm:"

// SearchService 按工作区预热通话搜索缓存。
// lastRun / inFlight 为进程内状态，多实例部署时各实例独立限流，
// 最坏情况是多预热几次，结果写入 Redis 后各实例共享。
type SearchService struct {
	conversationRepo *repository.ConversationRepository
	rdb              *redis.Client
	cfg              *config.Config

	mu       sync.Mutex
	lastRun  map[int64]time.Time
	inFlight map[int64]bool
}

func NewSearchService(conversationRepo *repository.ConversationRepository, rdb *redis.Client, cfg *config.Config) *SearchService {
	return &SearchService{
		conversationRepo: conversationRepo,
		rdb:              rdb,
		cfg:              cfg,
		lastRun:          make(map[int64]time.Time),
		inFlight:         make(map[int64]bool),
	}
}

// WarmUp 预热工作区的搜索缓存。
// 间隔内已预热过或正在预热时直接返回 false，不重复执行。
func (s *SearchService) WarmUp(ctx context.Context, workspaceID int64) (bool, error) {
	interval := time.Duration(s.cfg.Search.WarmupIntervalMins) * time.Minute
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	s.mu.Lock()
	if s.inFlight[workspaceID] {
		s.mu.Unlock()
		return false, nil
	}
	if last, ok := s.lastRun[workspaceID]; ok && time.Since(last) < interval {
		s.mu.Unlock()
		return false, nil
	}
	s.inFlight[workspaceID] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, workspaceID)
		s.mu.Unlock()
	}()

	size := s.cfg.Search.WarmupCacheSize
	if size <= 0 {
		size = 200
	}

	convs, err := s.conversationRepo.ListRecentByWorkspace(workspaceID, size)
	if err != nil {
		return false, err
	}

	data, err := json.Marshal(convs)
	if err != nil {
		return false, err
	}

	key := fmt.Sprintf("%s%d", warmCacheKeyPrefix, workspaceID)
	if err := s.rdb.Set(ctx, key, data, 2*interval).Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	s.lastRun[workspaceID] = time.Now()
	s.mu.Unlock()

	return true, nil
}

// CachedResults 读取预热缓存，未命中返回 nil
func (s *SearchService) CachedResults(ctx context.Context, workspaceID int64) ([]byte, error) {
	key := fmt.Sprintf("%s%d", warmCacheKeyPrefix, workspaceID)
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}
