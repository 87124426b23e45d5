package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/internal/model"
	"github.com/voxhub/voice_go_server/internal/model/dto"
	"github.com/voxhub/voice_go_server/internal/repository"
)

var (
	ErrSlugExists     = errors.New("标识已被使用")
	ErrMemberNotFound = errors.New("成员不存在")
)

type WorkspaceService struct {
	workspaceRepo    *repository.WorkspaceRepository
	membershipRepo   *repository.MembershipRepository
	userRepo         *repository.UserRepository
	conversationRepo *repository.ConversationRepository
	agentRepo        *repository.AgentRepository
	campaignRepo     *repository.CampaignRepository
}

func NewWorkspaceService(
	workspaceRepo *repository.WorkspaceRepository,
	membershipRepo *repository.MembershipRepository,
	userRepo *repository.UserRepository,
	conversationRepo *repository.ConversationRepository,
	agentRepo *repository.AgentRepository,
	campaignRepo *repository.CampaignRepository,
) *WorkspaceService {
	return &WorkspaceService{
		workspaceRepo:    workspaceRepo,
		membershipRepo:   membershipRepo,
		userRepo:         userRepo,
		conversationRepo: conversationRepo,
		agentRepo:        agentRepo,
		campaignRepo:     campaignRepo,
	}
}

// Create 创建工作区
func (s *WorkspaceService) Create(partnerID int64, req *dto.CreateWorkspaceRequest) (*model.Workspace, error) {
	exists, err := s.workspaceRepo.ExistsBySlug(req.Slug)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrSlugExists
	}

	workspace := &model.Workspace{
		PartnerID:          partnerID,
		Name:               req.Name,
		Slug:               req.Slug,
		PerMinuteRateCents: req.PerMinuteRateCents,
		BillingExempt:      req.BillingExempt,
		Status:             "active",
	}

	if err := s.workspaceRepo.Create(workspace); err != nil {
		return nil, err
	}

	return workspace, nil
}

// Get 获取工作区
func (s *WorkspaceService) Get(id int64) (*model.Workspace, error) {
	workspace, err := s.workspaceRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, err
	}
	return workspace, nil
}

// Update 更新工作区设置
func (s *WorkspaceService) Update(id int64, req *dto.UpdateWorkspaceRequest) (*model.Workspace, error) {
	workspace, err := s.workspaceRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, err
	}

	fields := make(map[string]interface{})
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.PerMinuteRateCents != nil {
		fields["per_minute_rate_cents"] = *req.PerMinuteRateCents
	}
	if req.BillingExempt != nil {
		fields["billing_exempt"] = *req.BillingExempt
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}

	if len(fields) > 0 {
		if err := s.workspaceRepo.UpdateFields(id, fields); err != nil {
			return nil, err
		}
	}

	return s.workspaceRepo.GetByID(workspace.ID)
}

// ListByPartner 合作伙伴下的所有工作区
func (s *WorkspaceService) ListByPartner(partnerID int64) ([]model.Workspace, error) {
	return s.workspaceRepo.ListByPartner(partnerID)
}

// Dashboard 工作区概览数据
func (s *WorkspaceService) Dashboard(id int64) (*dto.DashboardSummary, error) {
	workspace, err := s.workspaceRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, err
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	calls, err := s.conversationRepo.CountByWorkspaceSince(id, monthStart)
	if err != nil {
		return nil, err
	}
	agents, err := s.agentRepo.CountActiveByWorkspace(id)
	if err != nil {
		return nil, err
	}
	campaigns, err := s.campaignRepo.CountRunningByWorkspace(id)
	if err != nil {
		return nil, err
	}

	return &dto.DashboardSummary{
		BalanceCents:       workspace.BalanceCents,
		MinutesThisMonth:   workspace.MinutesThisMonth,
		CostThisMonthCents: workspace.CostThisMonthCents,
		CallsThisMonth:     calls,
		ActiveAgents:       agents,
		RunningCampaigns:   campaigns,
	}, nil
}

// AddMember 添加成员，用户不存在时返回错误（开户走开通流程）
func (s *WorkspaceService) AddMember(partnerID int64, req *dto.AddMemberRequest) (*model.Membership, error) {
	user, err := s.userRepo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	membership := &model.Membership{
		UserID:      user.ID,
		PartnerID:   partnerID,
		WorkspaceID: req.WorkspaceID,
		Role:        req.Role,
	}

	if err := s.membershipRepo.Create(membership); err != nil {
		return nil, err
	}

	return membership, nil
}

// ListMembers 合作伙伴成员列表
func (s *WorkspaceService) ListMembers(partnerID int64) ([]model.Membership, error) {
	return s.membershipRepo.ListByPartner(partnerID)
}

// RemoveMember 移除成员关系
func (s *WorkspaceService) RemoveMember(id int64) error {
	return s.membershipRepo.Delete(id)
}
