package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/voxhub/voice_go_server/internal/api/middleware"
	"github.com/voxhub/voice_go_server/internal/model"
	"github.com/voxhub/voice_go_server/internal/model/dto"
	"github.com/voxhub/voice_go_server/internal/pkg/response"
	"github.com/voxhub/voice_go_server/internal/service"
)

const maxContactListSize = 10 << 20 // 10MB

type CampaignHandler struct {
	campaignService *service.CampaignService
}

func NewCampaignHandler(campaignService *service.CampaignService) *CampaignHandler {
	return &CampaignHandler{campaignService: campaignService}
}

// Create 创建活动
// POST /api/v1/w/:slug/campaigns
func (h *CampaignHandler) Create(c *gin.Context) {
	var req dto.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	campaign, err := h.campaignService.Create(middleware.GetWorkspaceID(c), &req)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "活动创建成功", campaign)
}

// List 活动列表
// GET /api/v1/w/:slug/campaigns
func (h *CampaignHandler) List(c *gin.Context) {
	page, pageSize := parsePage(c)

	items, total, err := h.campaignService.List(middleware.GetWorkspaceID(c), page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// Get 活动详情
// GET /api/v1/w/:slug/campaigns/:id
func (h *CampaignHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.ParamError(c, "无效的活动 ID")
		return
	}

	campaign, err := h.campaignService.Get(middleware.GetWorkspaceID(c), id)
	if err != nil {
		h.renderError(c, err)
		return
	}

	response.Success(c, campaign)
}

// SaveDraft 保存草稿（自动保存）
// PUT /api/v1/w/:slug/campaigns/:id/draft
func (h *CampaignHandler) SaveDraft(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.ParamError(c, "无效的活动 ID")
		return
	}

	var req dto.SaveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.campaignService.SaveDraft(middleware.GetWorkspaceID(c), id, &req)
	if err != nil {
		h.renderError(c, err)
		return
	}

	response.Success(c, resp)
}

// UploadContacts 上传联系人 CSV
// POST /api/v1/w/:slug/campaigns/:id/contacts
func (h *CampaignHandler) UploadContacts(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.ParamError(c, "无效的活动 ID")
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.ParamError(c, "请上传 CSV 文件")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxContactListSize))
	if err != nil {
		response.ServerError(c, "")
		return
	}

	campaign, err := h.campaignService.UploadContacts(middleware.GetWorkspaceID(c), id, data)
	if err != nil {
		h.renderError(c, err)
		return
	}

	response.SuccessWithMessage(c, "联系人列表上传成功", campaign)
}

// Schedule 安排活动
// POST /api/v1/w/:slug/campaigns/:id/schedule
func (h *CampaignHandler) Schedule(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.ParamError(c, "无效的活动 ID")
		return
	}

	var req dto.ScheduleCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	campaign, err := h.campaignService.Schedule(middleware.GetWorkspaceID(c), id, &req)
	if err != nil {
		h.renderError(c, err)
		return
	}

	response.Success(c, campaign)
}

// Start 启动活动
// POST /api/v1/w/:slug/campaigns/:id/start
func (h *CampaignHandler) Start(c *gin.Context) {
	h.doTransition(c, h.campaignService.Start)
}

// Pause 暂停活动
// POST /api/v1/w/:slug/campaigns/:id/pause
func (h *CampaignHandler) Pause(c *gin.Context) {
	h.doTransition(c, h.campaignService.Pause)
}

// Complete 结束活动
// POST /api/v1/w/:slug/campaigns/:id/complete
func (h *CampaignHandler) Complete(c *gin.Context) {
	h.doTransition(c, h.campaignService.Complete)
}

// Delete 删除草稿活动
// DELETE /api/v1/w/:slug/campaigns/:id
func (h *CampaignHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.ParamError(c, "无效的活动 ID")
		return
	}

	if err := h.campaignService.Delete(middleware.GetWorkspaceID(c), id); err != nil {
		h.renderError(c, err)
		return
	}

	response.SuccessWithMessage(c, "活动已删除", nil)
}

func (h *CampaignHandler) doTransition(c *gin.Context, fn func(int64, int64) (*model.Campaign, error)) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.ParamError(c, "无效的活动 ID")
		return
	}

	campaign, err := fn(middleware.GetWorkspaceID(c), id)
	if err != nil {
		h.renderError(c, err)
		return
	}

	response.Success(c, campaign)
}

func (h *CampaignHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCampaignNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrDraftVersionConflict):
		response.DuplicateError(c, err.Error())
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrEmptyContactList):
		response.ParamError(c, err.Error())
	default:
		response.ServerError(c, "")
	}
}
