package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/internal/model"
	"github.com/voxhub/voice_go_server/internal/repository"
)

type ConversationService struct {
	conversationRepo *repository.ConversationRepository
}

func NewConversationService(conversationRepo *repository.ConversationRepository) *ConversationService {
	return &ConversationService{conversationRepo: conversationRepo}
}

// List 工作区通话分页列表
func (s *ConversationService) List(workspaceID int64, page, pageSize int) ([]model.Conversation, int64, error) {
	return s.conversationRepo.ListByWorkspace(workspaceID, page, pageSize)
}

// Get 获取通话详情，校验工作区归属
func (s *ConversationService) Get(workspaceID, id int64) (*model.Conversation, error) {
	conv, err := s.conversationRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if conv.WorkspaceID != workspaceID {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}
