package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/voxhub/voice_go_server/internal/api/middleware"
	"github.com/voxhub/voice_go_server/internal/pkg/response"
	"github.com/voxhub/voice_go_server/internal/service"
)

type IntegrationHandler struct {
	integrationService *service.IntegrationService
}

func NewIntegrationHandler(integrationService *service.IntegrationService) *IntegrationHandler {
	return &IntegrationHandler{integrationService: integrationService}
}

// Connect 发起日历集成授权
// POST /api/v1/w/:slug/integrations/calendar/connect
func (h *IntegrationHandler) Connect(c *gin.Context) {
	resp, err := h.integrationService.Connect(c.Request.Context(), middleware.GetWorkspaceID(c))
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, resp)
}

// Callback OAuth 回调（服务商重定向，无登录态）
// GET /api/v1/integrations/callback
func (h *IntegrationHandler) Callback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if code == "" {
		response.ParamError(c, "缺少授权码")
		return
	}

	integration, err := h.integrationService.HandleCallback(c.Request.Context(), state, code)
	if err != nil {
		response.ParamError(c, "授权失败或已过期")
		return
	}

	response.SuccessWithMessage(c, "集成连接成功", integration)
}

// List 已连接的集成
// GET /api/v1/w/:slug/integrations
func (h *IntegrationHandler) List(c *gin.Context) {
	items, err := h.integrationService.List(middleware.GetWorkspaceID(c))
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, items)
}

// Disconnect 断开集成
// DELETE /api/v1/w/:slug/integrations/:provider
func (h *IntegrationHandler) Disconnect(c *gin.Context) {
	provider := c.Param("provider")

	if err := h.integrationService.Disconnect(middleware.GetWorkspaceID(c), provider); err != nil {
		switch {
		case errors.Is(err, service.ErrIntegrationNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "集成已断开", nil)
}
