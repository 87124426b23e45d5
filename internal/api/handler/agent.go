package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/voxhub/voice_go_server/internal/api/middleware"
	"github.com/voxhub/voice_go_server/internal/model/dto"
	"github.com/voxhub/voice_go_server/internal/pkg/response"
	"github.com/voxhub/voice_go_server/internal/service"
)

type AgentHandler struct {
	agentService *service.AgentService
}

func NewAgentHandler(agentService *service.AgentService) *AgentHandler {
	return &AgentHandler{agentService: agentService}
}

// Create 创建坐席
// POST /api/v1/w/:slug/agents
func (h *AgentHandler) Create(c *gin.Context) {
	var req dto.CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	agent, err := h.agentService.Create(middleware.GetWorkspaceID(c), &req)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "坐席创建成功", agent)
}

// List 坐席列表
// GET /api/v1/w/:slug/agents
func (h *AgentHandler) List(c *gin.Context) {
	agents, err := h.agentService.List(middleware.GetWorkspaceID(c))
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, agents)
}

// Get 坐席详情
// GET /api/v1/w/:slug/agents/:id
func (h *AgentHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.ParamError(c, "无效的坐席 ID")
		return
	}

	agent, err := h.agentService.Get(middleware.GetWorkspaceID(c), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAgentNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, agent)
}

// Update 更新坐席
// PUT /api/v1/w/:slug/agents/:id
func (h *AgentHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.ParamError(c, "无效的坐席 ID")
		return
	}

	var req dto.UpdateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	agent, err := h.agentService.Update(middleware.GetWorkspaceID(c), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAgentNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, agent)
}

// Delete 删除坐席
// DELETE /api/v1/w/:slug/agents/:id
func (h *AgentHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.ParamError(c, "无效的坐席 ID")
		return
	}

	if err := h.agentService.Delete(middleware.GetWorkspaceID(c), id); err != nil {
		switch {
		case errors.Is(err, service.ErrAgentNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "坐席已删除", nil)
}
