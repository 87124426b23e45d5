package repository

import (
	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/internal/model"
)

type CampaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

func (r *CampaignRepository) Create(campaign *model.Campaign) error {
	return r.db.Create(campaign).Error
}

func (r *CampaignRepository) GetByID(id int64) (*model.Campaign, error) {
	var campaign model.Campaign
	err := r.db.Where("id = ?", id).First(&campaign).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (r *CampaignRepository) ListByWorkspace(workspaceID int64, page, pageSize int) ([]model.Campaign, int64, error) {
	var campaigns []model.Campaign
	var total int64

	query := r.db.Model(&model.Campaign{}).Where("workspace_id = ?", workspaceID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&campaigns).Error
	if err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

func (r *CampaignRepository) Update(campaign *model.Campaign) error {
	return r.db.Save(campaign).Error
}

func (r *CampaignRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.Campaign{}).Where("id = ?", id).Updates(fields).Error
}

// SaveDraft 乐观并发的草稿保存：版本号不匹配则不更新
func (r *CampaignRepository) SaveDraft(id int64, config string, version int) (bool, error) {
	result := r.db.Model(&model.Campaign{}).
		Where("id = ? AND draft_version = ?", id, version).
		Updates(map[string]interface{}{
			"draft_config":  config,
			"draft_version": gorm.Expr("draft_version + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *CampaignRepository) Delete(id int64) error {
	return r.db.Delete(&model.Campaign{}, id).Error
}

func (r *CampaignRepository) CountRunningByWorkspace(workspaceID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.Campaign{}).
		Where("workspace_id = ? AND status = ?", workspaceID, model.CampaignRunning).
		Count(&count).Error
	return count, err
}

// IncrementCallCompleted 活动通话完成计数
func (r *CampaignRepository) IncrementCallCompleted(id int64) error {
	return r.db.Model(&model.Campaign{}).Where("id = ?", id).
		Update("calls_completed", gorm.Expr("calls_completed + 1")).Error
}
