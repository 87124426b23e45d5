package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelCallEvents = "call_events"
)

// 事件类型常量
const (
	EventCallStarted   = "call.started"
	EventCallCompleted = "call.completed"
	EventCallBilled    = "call.billed"
)

// CallEvent 通话实时事件，推送到工作区的在线面板
type CallEvent struct {
	Type           string `json:"type"`
	WorkspaceID    int64  `json:"workspace_id"`
	ConversationID int64  `json:"conversation_id"`
	AgentID        int64  `json:"agent_id,omitempty"`
	Provider       string `json:"provider,omitempty"`
	DurationSec    int    `json:"duration_sec,omitempty"`
	CostCents      int64  `json:"cost_cents,omitempty"`
	BillingType    string `json:"billing_type,omitempty"`
}

// Publisher Redis 发布者
type Publisher struct {
	client *redis.Client
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishCallEvent 发布通话事件
func (p *Publisher) PublishCallEvent(ctx context.Context, event *CallEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal call event: %w", err)
	}

	return p.client.Publish(ctx, ChannelCallEvents, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe 订阅通话事件
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*CallEvent)) error {
	pubsub := s.client.Subscribe(ctx, ChannelCallEvents)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var event CallEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue // 忽略解析错误
			}

			handler(&event)
		}
	}
}
