package handler

import (
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/voxhub/voice_go_server/internal/api/middleware"
	"github.com/voxhub/voice_go_server/internal/model/dto"
	"github.com/voxhub/voice_go_server/internal/pkg/response"
	"github.com/voxhub/voice_go_server/internal/service"
)

const maxLogoSize = 2 << 20 // 2MB

type PartnerHandler struct {
	partnerService   *service.PartnerService
	workspaceService *service.WorkspaceService
	creditService    *service.CreditService
}

func NewPartnerHandler(
	partnerService *service.PartnerService,
	workspaceService *service.WorkspaceService,
	creditService *service.CreditService,
) *PartnerHandler {
	return &PartnerHandler{
		partnerService:   partnerService,
		workspaceService: workspaceService,
		creditService:    creditService,
	}
}

// Get 合作伙伴详情
// GET /api/v1/partner
func (h *PartnerHandler) Get(c *gin.Context) {
	partner, err := h.partnerService.Get(middleware.GetPartnerID(c))
	if err != nil {
		h.renderError(c, err)
		return
	}

	response.Success(c, partner)
}

// Update 更新合作伙伴设置
// PUT /api/v1/partner
func (h *PartnerHandler) Update(c *gin.Context) {
	var req dto.UpdatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	partner, err := h.partnerService.Update(middleware.GetPartnerID(c), &req)
	if err != nil {
		h.renderError(c, err)
		return
	}

	response.Success(c, partner)
}

// UploadLogo 上传品牌 Logo
// POST /api/v1/partner/logo
func (h *PartnerHandler) UploadLogo(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.ParamError(c, "请上传图片文件")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".svg", ".webp":
	default:
		response.ParamError(c, "不支持的图片格式")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxLogoSize))
	if err != nil {
		response.ServerError(c, "")
		return
	}

	url, err := h.partnerService.UploadLogo(middleware.GetPartnerID(c), data, ext)
	if err != nil {
		h.renderError(c, err)
		return
	}

	response.Success(c, gin.H{"logo_url": url})
}

// ListDomains 白标域名列表
// GET /api/v1/partner/domains
func (h *PartnerHandler) ListDomains(c *gin.Context) {
	domains, err := h.partnerService.ListDomains(middleware.GetPartnerID(c))
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, domains)
}

// AddDomain 绑定白标域名
// POST /api/v1/partner/domains
func (h *PartnerHandler) AddDomain(c *gin.Context) {
	var req struct {
		Domain    string `json:"domain" binding:"required,max=255"`
		IsPrimary bool   `json:"is_primary"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	domain, err := h.partnerService.AddDomain(middleware.GetPartnerID(c), req.Domain, req.IsPrimary)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "域名绑定成功", domain)
}

// ListWorkspaces 工作区列表
// GET /api/v1/partner/workspaces
func (h *PartnerHandler) ListWorkspaces(c *gin.Context) {
	workspaces, err := h.workspaceService.ListByPartner(middleware.GetPartnerID(c))
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, workspaces)
}

// CreateWorkspace 创建工作区
// POST /api/v1/partner/workspaces
func (h *PartnerHandler) CreateWorkspace(c *gin.Context) {
	var req dto.CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	workspace, err := h.workspaceService.Create(middleware.GetPartnerID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSlugExists):
			response.DuplicateError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "工作区创建成功", workspace)
}

// UpdateWorkspace 更新工作区
// PUT /api/v1/partner/workspaces/:id
func (h *PartnerHandler) UpdateWorkspace(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.ParamError(c, "无效的工作区 ID")
		return
	}

	// 只允许操作本合作伙伴的工作区
	workspace, err := h.workspaceService.Get(id)
	if err != nil || workspace.PartnerID != middleware.GetPartnerID(c) {
		response.NotFoundError(c, "工作区不存在")
		return
	}

	var req dto.UpdateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	updated, err := h.workspaceService.Update(id, &req)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, updated)
}

// Balance 合作伙伴余额流水
// GET /api/v1/partner/billing/transactions
func (h *PartnerHandler) Transactions(c *gin.Context) {
	page, pageSize := parsePage(c)

	items, total, err := h.creditService.ListTransactions("partner", middleware.GetPartnerID(c), page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// Grant 向工作区划拨额度
// POST /api/v1/partner/billing/grant
func (h *PartnerHandler) Grant(c *gin.Context) {
	var req dto.GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.creditService.GrantToWorkspace(middleware.GetPartnerID(c), &req); err != nil {
		switch {
		case errors.Is(err, service.ErrInsufficientBalance):
			response.BalanceError(c, err.Error())
		case errors.Is(err, service.ErrWorkspaceNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "划拨成功", nil)
}

// AddMember 添加成员
// POST /api/v1/partner/members
func (h *PartnerHandler) AddMember(c *gin.Context) {
	var req dto.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	membership, err := h.workspaceService.AddMember(middleware.GetPartnerID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "成员添加成功", membership)
}

// ListMembers 成员列表
// GET /api/v1/partner/members
func (h *PartnerHandler) ListMembers(c *gin.Context) {
	members, err := h.workspaceService.ListMembers(middleware.GetPartnerID(c))
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, members)
}

// RemoveMember 移除成员
// DELETE /api/v1/partner/members/:id
func (h *PartnerHandler) RemoveMember(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.ParamError(c, "无效的成员 ID")
		return
	}

	if err := h.workspaceService.RemoveMember(id); err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "成员已移除", nil)
}

func (h *PartnerHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPartnerNotFound):
		response.NotFoundError(c, err.Error())
	default:
		response.ServerError(c, "")
	}
}
