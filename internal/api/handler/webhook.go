package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/voxhub/voice_go_server/internal/pkg/response"
	"github.com/voxhub/voice_go_server/internal/service"
)

const maxWebhookBodySize = 1 << 20 // 1MB

type WebhookHandler struct {
	webhookService *service.WebhookService
	stripeService  *service.StripeService
}

func NewWebhookHandler(webhookService *service.WebhookService, stripeService *service.StripeService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
		stripeService:  stripeService,
	}
}

// Stripe Stripe webhook 入口
// POST /api/v1/webhooks/stripe
func (h *WebhookHandler) Stripe(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodySize))
	if err != nil {
		response.ParamError(c, "读取请求体失败")
		return
	}

	event, err := h.stripeService.VerifyWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		response.SignatureError(c, "签名校验失败")
		return
	}

	// 签名通过后一律返回 200，处理失败记录日志由对账兜底，
	// 避免 Stripe 反复重投已知失败的事件
	if err := h.stripeService.HandleEvent(event); err != nil {
		log.Printf("Stripe webhook event %s handling error: %v", event.ID, err)
	}

	response.Success(c, nil)
}

// Voice 语音服务商 webhook 入口
// POST /api/v1/webhooks/voice/:provider
func (h *WebhookHandler) Voice(c *gin.Context) {
	provider := c.Param("provider")

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodySize))
	if err != nil {
		response.ParamError(c, "读取请求体失败")
		return
	}

	if err := h.webhookService.VerifySignature(provider, payload, c.GetHeader("X-Webhook-Signature")); err != nil {
		response.SignatureError(c, "签名校验失败")
		return
	}

	var event service.VoiceCallEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		response.ParamError(c, "无法解析事件")
		return
	}

	err = h.webhookService.HandleCallCompleted(c.Request.Context(), provider, &event, string(payload))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateEvent):
			// 重复投递按成功处理
			response.Success(c, nil)
		case errors.Is(err, service.ErrWorkspaceNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, nil)
}
