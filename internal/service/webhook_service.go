package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/config"
	"github.com/voxhub/voice_go_server/internal/model"
	"github.com/voxhub/voice_go_server/internal/model/dto"
	"github.com/voxhub/voice_go_server/internal/pkg/pubsub"
	"github.com/voxhub/voice_go_server/internal/pkg/queue"
	"github.com/voxhub/voice_go_server/internal/repository"
)

var (
	ErrUnknownProvider  = errors.New("未知的语音服务商")
	ErrInvalidSignature = errors.New("签名校验失败")
	ErrDuplicateEvent   = errors.New("事件已处理")
)

type WebhookService struct {
	conversationRepo *repository.ConversationRepository
	workspaceRepo    *repository.WorkspaceRepository
	campaignRepo     *repository.CampaignRepository
	webhookEventRepo *repository.WebhookEventRepository
	billingQueue     *queue.Queue
	publisher        *pubsub.Publisher
	cfg              *config.Config
}

func NewWebhookService(
	conversationRepo *repository.ConversationRepository,
	workspaceRepo *repository.WorkspaceRepository,
	campaignRepo *repository.CampaignRepository,
	webhookEventRepo *repository.WebhookEventRepository,
	billingQueue *queue.Queue,
	publisher *pubsub.Publisher,
	cfg *config.Config,
) *WebhookService {
	return &WebhookService{
		conversationRepo: conversationRepo,
		workspaceRepo:    workspaceRepo,
		campaignRepo:     campaignRepo,
		webhookEventRepo: webhookEventRepo,
		billingQueue:     billingQueue,
		publisher:        publisher,
		cfg:              cfg,
	}
}

// VerifySignature 校验语音服务商 webhook 的 HMAC-SHA256 签名
func (s *WebhookService) VerifySignature(provider string, payload []byte, signature string) error {
	providerCfg, ok := s.cfg.Providers[provider]
	if !ok {
		return ErrUnknownProvider
	}

	mac := hmac.New(sha256.New, []byte(providerCfg.WebhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// VoiceCallEvent 语音服务商通话完成事件（已归一化）
type VoiceCallEvent struct {
	EventID         string     `json:"event_id"`
	CallID          string     `json:"call_id"`
	WorkspaceID     int64      `json:"workspace_id"`
	AgentID         *int64     `json:"agent_id,omitempty"`
	CampaignID      *int64     `json:"campaign_id,omitempty"`
	Direction       string     `json:"direction"`
	FromNumber      string     `json:"from_number"`
	ToNumber        string     `json:"to_number"`
	DurationSeconds int        `json:"duration_seconds"`
	CostCents       int64      `json:"cost_cents"`
	TranscriptURL   string     `json:"transcript_url"`
	RecordingURL    string     `json:"recording_url"`
	EndedReason     string     `json:"ended_reason"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
}

// HandleCallCompleted 处理通话完成事件：
// 去重 → 落库通话记录 → 投递计费任务 → 推送实时事件
// 计费本身在 worker 中异步执行，webhook 处理保持轻量
func (s *WebhookService) HandleCallCompleted(ctx context.Context, provider string, event *VoiceCallEvent, rawPayload string) error {
	// 事件去重，at-least-once 投递下只处理一次
	record := &model.WebhookEvent{
		Provider:        provider,
		ProviderEventID: event.EventID,
		EventType:       "call.completed",
		Payload:         rawPayload,
	}
	inserted, err := s.webhookEventRepo.InsertIfNew(record)
	if err != nil {
		return err
	}
	if !inserted {
		return ErrDuplicateEvent
	}

	workspace, err := s.workspaceRepo.GetByID(event.WorkspaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = s.webhookEventRepo.MarkFailed(record.ID, "workspace not found")
			return ErrWorkspaceNotFound
		}
		return err
	}

	// 通话记录按 provider call ID 幂等落库
	conv, err := s.conversationRepo.GetByProviderCallID(provider, event.CallID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if conv == nil {
		conv = &model.Conversation{
			WorkspaceID:       workspace.ID,
			AgentID:           event.AgentID,
			CampaignID:        event.CampaignID,
			Provider:          provider,
			ProviderCallID:    event.CallID,
			Direction:         event.Direction,
			FromNumber:        event.FromNumber,
			ToNumber:          event.ToNumber,
			DurationSeconds:   event.DurationSeconds,
			ProviderCostCents: event.CostCents,
			TranscriptURL:     event.TranscriptURL,
			RecordingURL:      event.RecordingURL,
			Status:            "completed",
			EndedReason:       event.EndedReason,
			StartedAt:         event.StartedAt,
			EndedAt:           event.EndedAt,
		}
		if err := s.conversationRepo.Create(conv); err != nil {
			return err
		}
	} else {
		// 重复投递但事件 ID 不同：补全时长与成本后继续
		conv.DurationSeconds = event.DurationSeconds
		conv.ProviderCostCents = event.CostCents
		conv.TranscriptURL = event.TranscriptURL
		conv.RecordingURL = event.RecordingURL
		conv.EndedReason = event.EndedReason
		conv.EndedAt = event.EndedAt
		if err := s.conversationRepo.Update(conv); err != nil {
			return err
		}
	}

	// 活动完成数
	if conv.CampaignID != nil {
		if err := s.campaignRepo.IncrementCallCompleted(*conv.CampaignID); err != nil {
			log.Printf("Failed to increment campaign %d call count: %v", *conv.CampaignID, err)
		}
	}

	// 投递计费任务
	job := &queue.BillingJob{
		ConversationID: conv.ID,
		WorkspaceID:    workspace.ID,
		PartnerID:      workspace.PartnerID,
		DurationSec:    conv.DurationSeconds,
		Provider:       provider,
	}
	if err := s.billingQueue.Push(ctx, job); err != nil {
		// 入队失败不阻塞 webhook 响应，由对账任务兜底
		log.Printf("Failed to enqueue billing job for conversation %d: %v", conv.ID, err)
	}

	// 实时事件推送
	callEvent := &pubsub.CallEvent{
		Type:           pubsub.EventCallCompleted,
		WorkspaceID:    workspace.ID,
		ConversationID: conv.ID,
		Provider:       provider,
		DurationSec:    conv.DurationSeconds,
	}
	if conv.AgentID != nil {
		callEvent.AgentID = *conv.AgentID
	}
	if err := s.publisher.PublishCallEvent(ctx, callEvent); err != nil {
		log.Printf("Failed to publish call event for conversation %d: %v", conv.ID, err)
	}

	if err := s.webhookEventRepo.MarkProcessed(record.ID); err != nil {
		log.Printf("Failed to mark webhook event %d processed: %v", record.ID, err)
	}

	return nil
}

// BillingInputFromJob 队列任务转计费输入
func BillingInputFromJob(job *queue.BillingJob) *dto.CallBillingInput {
	return &dto.CallBillingInput{
		ConversationID: job.ConversationID,
		WorkspaceID:    job.WorkspaceID,
		PartnerID:      job.PartnerID,
		DurationSec:    job.DurationSec,
		Provider:       job.Provider,
	}
}
