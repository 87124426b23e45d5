package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/internal/model"
	"github.com/voxhub/voice_go_server/internal/model/dto"
	"github.com/voxhub/voice_go_server/internal/pkg/oss"
	"github.com/voxhub/voice_go_server/internal/repository"
)

var (
	ErrCampaignNotFound     = errors.New("活动不存在")
	ErrDraftVersionConflict = errors.New("草稿已被其他端修改，请刷新后重试")
	ErrInvalidTransition    = errors.New("当前状态不允许该操作")
	ErrEmptyContactList     = errors.New("联系人列表为空")
)

type CampaignService struct {
	campaignRepo *repository.CampaignRepository
	ossClient    *oss.Client
}

func NewCampaignService(campaignRepo *repository.CampaignRepository, ossClient *oss.Client) *CampaignService {
	return &CampaignService{
		campaignRepo: campaignRepo,
		ossClient:    ossClient,
	}
}

// Create 创建外呼活动
func (s *CampaignService) Create(workspaceID int64, req *dto.CreateCampaignRequest) (*model.Campaign, error) {
	campaign := &model.Campaign{
		WorkspaceID: workspaceID,
		AgentID:     req.AgentID,
		Name:        req.Name,
		Status:      model.CampaignDraft,
	}

	if err := s.campaignRepo.Create(campaign); err != nil {
		return nil, err
	}

	return campaign, nil
}

// Get 获取活动，校验工作区归属
func (s *CampaignService) Get(workspaceID, id int64) (*model.Campaign, error) {
	campaign, err := s.campaignRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}
	if campaign.WorkspaceID != workspaceID {
		return nil, ErrCampaignNotFound
	}
	return campaign, nil
}

// List 工作区活动分页列表
func (s *CampaignService) List(workspaceID int64, page, pageSize int) ([]model.Campaign, int64, error) {
	return s.campaignRepo.ListByWorkspace(workspaceID, page, pageSize)
}

// SaveDraft 保存活动草稿（前端自动保存）。
// 带版本号乐观锁：请求版本必须等于当前版本，否则说明
// 其他标签页已保存过，返回冲突让前端拉取最新草稿。
func (s *CampaignService) SaveDraft(workspaceID, id int64, req *dto.SaveDraftRequest) (*dto.SaveDraftResponse, error) {
	campaign, err := s.Get(workspaceID, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.campaignRepo.SaveDraft(campaign.ID, req.Config, req.Version)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDraftVersionConflict
	}

	return &dto.SaveDraftResponse{Version: req.Version + 1}, nil
}

// UploadContacts 上传联系人 CSV 到对象存储并统计行数
func (s *CampaignService) UploadContacts(workspaceID, id int64, data []byte) (*model.Campaign, error) {
	campaign, err := s.Get(workspaceID, id)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	// 首行视为表头
	contactCount := len(records) - 1
	if contactCount <= 0 {
		return nil, ErrEmptyContactList
	}

	objectKey, err := s.ossClient.UploadContactList(campaign.ID, data)
	if err != nil {
		return nil, err
	}

	if err := s.campaignRepo.UpdateFields(campaign.ID, map[string]interface{}{
		"contact_list_key": objectKey,
		"contact_count":    contactCount,
	}); err != nil {
		return nil, err
	}

	return s.campaignRepo.GetByID(campaign.ID)
}

// Schedule 安排活动执行时间，draft → scheduled
func (s *CampaignService) Schedule(workspaceID, id int64, req *dto.ScheduleCampaignRequest) (*model.Campaign, error) {
	campaign, err := s.Get(workspaceID, id)
	if err != nil {
		return nil, err
	}
	if campaign.Status != model.CampaignDraft && campaign.Status != model.CampaignPaused {
		return nil, ErrInvalidTransition
	}
	if campaign.ContactListKey == "" {
		return nil, ErrEmptyContactList
	}

	start, err := time.Parse(time.RFC3339, req.ScheduleStart)
	if err != nil {
		return nil, err
	}
	fields := map[string]interface{}{
		"status":         model.CampaignScheduled,
		"schedule_start": start,
	}
	if req.ScheduleEnd != "" {
		end, err := time.Parse(time.RFC3339, req.ScheduleEnd)
		if err != nil {
			return nil, err
		}
		fields["schedule_end"] = end
	}

	if err := s.campaignRepo.UpdateFields(campaign.ID, fields); err != nil {
		return nil, err
	}

	return s.campaignRepo.GetByID(campaign.ID)
}

// Start 立即启动活动
func (s *CampaignService) Start(workspaceID, id int64) (*model.Campaign, error) {
	return s.transition(workspaceID, id, model.CampaignRunning,
		model.CampaignDraft, model.CampaignScheduled, model.CampaignPaused)
}

// Pause 暂停运行中的活动
func (s *CampaignService) Pause(workspaceID, id int64) (*model.Campaign, error) {
	return s.transition(workspaceID, id, model.CampaignPaused,
		model.CampaignRunning, model.CampaignScheduled)
}

// Complete 结束活动
func (s *CampaignService) Complete(workspaceID, id int64) (*model.Campaign, error) {
	return s.transition(workspaceID, id, model.CampaignCompleted,
		model.CampaignRunning, model.CampaignPaused)
}

// Delete 删除草稿活动，其他状态不允许删除
func (s *CampaignService) Delete(workspaceID, id int64) error {
	campaign, err := s.Get(workspaceID, id)
	if err != nil {
		return err
	}
	if campaign.Status != model.CampaignDraft {
		return ErrInvalidTransition
	}
	if campaign.ContactListKey != "" {
		_ = s.ossClient.Delete(campaign.ContactListKey)
	}
	return s.campaignRepo.Delete(campaign.ID)
}

func (s *CampaignService) transition(workspaceID, id int64, to string, from ...string) (*model.Campaign, error) {
	campaign, err := s.Get(workspaceID, id)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, f := range from {
		if campaign.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, ErrInvalidTransition
	}
	if to == model.CampaignRunning && campaign.ContactListKey == "" {
		return nil, ErrEmptyContactList
	}

	if err := s.campaignRepo.UpdateFields(campaign.ID, map[string]interface{}{"status": to}); err != nil {
		return nil, err
	}

	return s.campaignRepo.GetByID(campaign.ID)
}
