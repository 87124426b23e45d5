package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/voxhub/voice_go_server/internal/api/middleware"
	"github.com/voxhub/voice_go_server/internal/model/dto"
	"github.com/voxhub/voice_go_server/internal/pkg/response"
	"github.com/voxhub/voice_go_server/internal/service"
)

type WorkspaceHandler struct {
	workspaceService *service.WorkspaceService
	creditService    *service.CreditService
}

func NewWorkspaceHandler(workspaceService *service.WorkspaceService, creditService *service.CreditService) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaceService: workspaceService,
		creditService:    creditService,
	}
}

// Get 工作区详情
// GET /api/v1/w/:slug
func (h *WorkspaceHandler) Get(c *gin.Context) {
	workspace, err := h.workspaceService.Get(middleware.GetWorkspaceID(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWorkspaceNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, workspace)
}

// Dashboard 工作区概览
// GET /api/v1/w/:slug/dashboard
func (h *WorkspaceHandler) Dashboard(c *gin.Context) {
	summary, err := h.workspaceService.Dashboard(middleware.GetWorkspaceID(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWorkspaceNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, summary)
}

// Balance 余额与本月用量
// GET /api/v1/w/:slug/billing/balance
func (h *WorkspaceHandler) Balance(c *gin.Context) {
	balance, err := h.creditService.GetWorkspaceBalance(middleware.GetWorkspaceID(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWorkspaceNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, balance)
}

// Transactions 余额流水
// GET /api/v1/w/:slug/billing/transactions
func (h *WorkspaceHandler) Transactions(c *gin.Context) {
	page, pageSize := parsePage(c)

	items, total, err := h.creditService.ListTransactions("workspace", middleware.GetWorkspaceID(c), page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// Topup 创建充值支付
// POST /api/v1/w/:slug/billing/topup
func (h *WorkspaceHandler) Topup(c *gin.Context) {
	var req dto.TopupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.creditService.CreateTopupIntent(middleware.GetWorkspaceID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWorkspaceNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, resp)
}
