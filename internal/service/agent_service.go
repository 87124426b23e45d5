package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/internal/model"
	"github.com/voxhub/voice_go_server/internal/model/dto"
	"github.com/voxhub/voice_go_server/internal/repository"
)

var ErrAgentNotFound = errors.New("坐席不存在")

type AgentService struct {
	agentRepo *repository.AgentRepository
}

func NewAgentService(agentRepo *repository.AgentRepository) *AgentService {
	return &AgentService{agentRepo: agentRepo}
}

// Create 创建语音坐席
func (s *AgentService) Create(workspaceID int64, req *dto.CreateAgentRequest) (*model.Agent, error) {
	agent := &model.Agent{
		WorkspaceID:  workspaceID,
		Name:         req.Name,
		Provider:     req.Provider,
		Voice:        req.Voice,
		Language:     req.Language,
		SystemPrompt: req.SystemPrompt,
		FirstMessage: req.FirstMessage,
		Status:       "active",
	}

	if err := s.agentRepo.Create(agent); err != nil {
		return nil, err
	}

	return agent, nil
}

// Get 获取坐席，校验工作区归属
func (s *AgentService) Get(workspaceID, id int64) (*model.Agent, error) {
	agent, err := s.agentRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAgentNotFound
		}
		return nil, err
	}
	if agent.WorkspaceID != workspaceID {
		return nil, ErrAgentNotFound
	}
	return agent, nil
}

// List 工作区坐席列表
func (s *AgentService) List(workspaceID int64) ([]model.Agent, error) {
	return s.agentRepo.ListByWorkspace(workspaceID)
}

// Update 更新坐席配置
func (s *AgentService) Update(workspaceID, id int64, req *dto.UpdateAgentRequest) (*model.Agent, error) {
	agent, err := s.Get(workspaceID, id)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Voice != nil {
		fields["voice"] = *req.Voice
	}
	if req.Language != nil {
		fields["language"] = *req.Language
	}
	if req.SystemPrompt != nil {
		fields["system_prompt"] = *req.SystemPrompt
	}
	if req.FirstMessage != nil {
		fields["first_message"] = *req.FirstMessage
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}

	if len(fields) > 0 {
		if err := s.agentRepo.UpdateFields(agent.ID, fields); err != nil {
			return nil, err
		}
	}

	return s.agentRepo.GetByID(agent.ID)
}

// Delete 删除坐席
func (s *AgentService) Delete(workspaceID, id int64) error {
	if _, err := s.Get(workspaceID, id); err != nil {
		return err
	}
	return s.agentRepo.Delete(id)
}
