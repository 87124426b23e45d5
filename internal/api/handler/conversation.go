package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/voxhub/voice_go_server/internal/api/middleware"
	"github.com/voxhub/voice_go_server/internal/pkg/response"
	"github.com/voxhub/voice_go_server/internal/service"
)

type ConversationHandler struct {
	conversationService *service.ConversationService
	searchService       *service.SearchService
}

func NewConversationHandler(conversationService *service.ConversationService, searchService *service.SearchService) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
		searchService:       searchService,
	}
}

// List 通话列表
// GET /api/v1/w/:slug/conversations
func (h *ConversationHandler) List(c *gin.Context) {
	page, pageSize := parsePage(c)
	workspaceID := middleware.GetWorkspaceID(c)

	items, total, err := h.conversationService.List(workspaceID, page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	// 列表访问触发搜索缓存预热，限流在服务内部处理
	go func() {
		_, _ = h.searchService.WarmUp(c.Copy(), workspaceID)
	}()

	response.SuccessPage(c, total, page, pageSize, items)
}

// Get 通话详情
// GET /api/v1/w/:slug/conversations/:id
func (h *ConversationHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.ParamError(c, "无效的通话 ID")
		return
	}

	conv, err := h.conversationService.Get(middleware.GetWorkspaceID(c), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConversationNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, conv)
}
