package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/voxhub/voice_go_server/internal/model/dto"
	"github.com/voxhub/voice_go_server/internal/pkg/response"
	"github.com/voxhub/voice_go_server/internal/service"
)

type PublicHandler struct {
	partnerService      *service.PartnerService
	provisioningService *service.ProvisioningService
}

func NewPublicHandler(partnerService *service.PartnerService, provisioningService *service.ProvisioningService) *PublicHandler {
	return &PublicHandler{
		partnerService:      partnerService,
		provisioningService: provisioningService,
	}
}

// Branding 按请求域名返回白标品牌信息（登录页使用）
// GET /api/v1/branding?domain=xxx
func (h *PublicHandler) Branding(c *gin.Context) {
	domain := c.Query("domain")
	if domain == "" {
		domain = c.Request.Host
	}

	partner, err := h.partnerService.BrandingByDomain(domain)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDomainNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	// 只暴露品牌字段
	response.Success(c, gin.H{
		"name":         partner.Name,
		"slug":         partner.Slug,
		"logo_url":     partner.LogoURL,
		"accent_color": partner.AccentColor,
	})
}

// SubmitRequest 提交入驻申请
// POST /api/v1/partner-requests
func (h *PublicHandler) SubmitRequest(c *gin.Context) {
	var req dto.CreatePartnerRequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	request, err := h.provisioningService.SubmitRequest(&req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSlugExists):
			response.DuplicateError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "申请已提交，审核结果将通过邮件通知", request)
}
