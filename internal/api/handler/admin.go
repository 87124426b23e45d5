package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/voxhub/voice_go_server/internal/model/dto"
	"github.com/voxhub/voice_go_server/internal/pkg/response"
	"github.com/voxhub/voice_go_server/internal/service"
)

type AdminHandler struct {
	adminService        *service.AdminService
	provisioningService *service.ProvisioningService
	creditService       *service.CreditService
}

func NewAdminHandler(
	adminService *service.AdminService,
	provisioningService *service.ProvisioningService,
	creditService *service.CreditService,
) *AdminHandler {
	return &AdminHandler{
		adminService:        adminService,
		provisioningService: provisioningService,
		creditService:       creditService,
	}
}

// Stats 平台统计
// GET /api/v1/super-admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.PlatformStats()
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, stats)
}

// ListPartners 合作伙伴列表
// GET /api/v1/super-admin/partners
func (h *AdminHandler) ListPartners(c *gin.Context) {
	page, pageSize := parsePage(c)

	items, total, err := h.adminService.ListPartners(page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// SuspendPartner 暂停合作伙伴
// POST /api/v1/super-admin/partners/:id/suspend
func (h *AdminHandler) SuspendPartner(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.ParamError(c, "无效的合作伙伴 ID")
		return
	}

	if err := h.adminService.SuspendPartner(id); err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "合作伙伴已暂停", nil)
}

// ResumePartner 恢复合作伙伴
// POST /api/v1/super-admin/partners/:id/resume
func (h *AdminHandler) ResumePartner(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.ParamError(c, "无效的合作伙伴 ID")
		return
	}

	if err := h.adminService.ResumePartner(id); err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "合作伙伴已恢复", nil)
}

// ListRequests 入驻申请列表
// GET /api/v1/super-admin/requests
func (h *AdminHandler) ListRequests(c *gin.Context) {
	page, pageSize := parsePage(c)
	status := c.DefaultQuery("status", "pending")

	items, total, err := h.adminService.ListRequests(status, page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// ReviewRequest 审核入驻申请
// POST /api/v1/super-admin/requests/:id/review
func (h *AdminHandler) ReviewRequest(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.ParamError(c, "无效的申请 ID")
		return
	}

	var req dto.ReviewRequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	request, err := h.provisioningService.Review(id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrRequestNotPending):
			response.DuplicateError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, request)
}

// Adjust 手工调账
// POST /api/v1/super-admin/billing/adjust
func (h *AdminHandler) Adjust(c *gin.Context) {
	var req dto.AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.creditService.Adjust(&req); err != nil {
		switch {
		case errors.Is(err, service.ErrPartnerNotFound), errors.Is(err, service.ErrWorkspaceNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "调账成功", nil)
}
