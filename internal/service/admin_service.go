package service

import (
	"time"

	"github.com/voxhub/voice_go_server/internal/model"
	"github.com/voxhub/voice_go_server/internal/model/dto"
	"github.com/voxhub/voice_go_server/internal/repository"
)

type AdminService struct {
	partnerRepo      *repository.PartnerRepository
	workspaceRepo    *repository.WorkspaceRepository
	conversationRepo *repository.ConversationRepository
	creditRepo       *repository.CreditRepository
	requestRepo      *repository.PartnerRequestRepository
	subscriptionRepo *repository.SubscriptionRepository
}

func NewAdminService(
	partnerRepo *repository.PartnerRepository,
	workspaceRepo *repository.WorkspaceRepository,
	conversationRepo *repository.ConversationRepository,
	creditRepo *repository.CreditRepository,
	requestRepo *repository.PartnerRequestRepository,
	subscriptionRepo *repository.SubscriptionRepository,
) *AdminService {
	return &AdminService{
		partnerRepo:      partnerRepo,
		workspaceRepo:    workspaceRepo,
		conversationRepo: conversationRepo,
		creditRepo:       creditRepo,
		requestRepo:      requestRepo,
		subscriptionRepo: subscriptionRepo,
	}
}

// PlatformStats 全平台运营统计
func (s *AdminService) PlatformStats() (*dto.PlatformStats, error) {
	stats := &dto.PlatformStats{}

	var err error
	if _, stats.Partners, err = s.partnerRepo.List(1, 1); err != nil {
		return nil, err
	}
	if stats.Workspaces, err = s.workspaceRepo.Count(); err != nil {
		return nil, err
	}
	if stats.Conversations, err = s.conversationRepo.Count(); err != nil {
		return nil, err
	}
	if stats.PendingRequest, err = s.requestRepo.CountPending(); err != nil {
		return nil, err
	}

	if stats.MinutesBilled, err = s.conversationRepo.SumBilledMinutes(); err != nil {
		return nil, err
	}

	// 扣费流水为负数，取绝对值作为收入口径
	deductions, err := s.creditRepo.SumDeductions()
	if err != nil {
		return nil, err
	}
	stats.RevenueCents = -deductions

	return stats, nil
}

// ListPartners 合作伙伴分页列表
func (s *AdminService) ListPartners(page, pageSize int) ([]model.Partner, int64, error) {
	return s.partnerRepo.List(page, pageSize)
}

// SuspendPartner 暂停合作伙伴
func (s *AdminService) SuspendPartner(id int64) error {
	now := time.Now()
	return s.partnerRepo.UpdateFields(id, map[string]interface{}{
		"status":       "suspended",
		"suspended_at": now,
	})
}

// ResumePartner 恢复合作伙伴
func (s *AdminService) ResumePartner(id int64) error {
	return s.partnerRepo.UpdateFields(id, map[string]interface{}{
		"status":       "active",
		"suspended_at": nil,
	})
}

// ListRequests 入驻申请列表
func (s *AdminService) ListRequests(status string, page, pageSize int) ([]model.PartnerRequest, int64, error) {
	return s.requestRepo.ListByStatus(status, page, pageSize)
}
