package repository

import (
	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/internal/model"
)

type WorkspaceRepository struct {
	db *gorm.DB
}

func NewWorkspaceRepository(db *gorm.DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

func (r *WorkspaceRepository) WithTx(tx *gorm.DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: tx}
}

func (r *WorkspaceRepository) Create(workspace *model.Workspace) error {
	return r.db.Create(workspace).Error
}

func (r *WorkspaceRepository) GetByID(id int64) (*model.Workspace, error) {
	var workspace model.Workspace
	err := r.db.Where("id = ?", id).First(&workspace).Error
	if err != nil {
		return nil, err
	}
	return &workspace, nil
}

// GetByIDForUpdate 行锁读取，计费事务中使用
func (r *WorkspaceRepository) GetByIDForUpdate(id int64) (*model.Workspace, error) {
	var workspace model.Workspace
	err := r.db.Clauses(lockingClause()).Where("id = ?", id).First(&workspace).Error
	if err != nil {
		return nil, err
	}
	return &workspace, nil
}

func (r *WorkspaceRepository) GetBySlug(slug string) (*model.Workspace, error) {
	var workspace model.Workspace
	err := r.db.Where("slug = ?", slug).First(&workspace).Error
	if err != nil {
		return nil, err
	}
	return &workspace, nil
}

func (r *WorkspaceRepository) Update(workspace *model.Workspace) error {
	return r.db.Save(workspace).Error
}

func (r *WorkspaceRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.Workspace{}).Where("id = ?", id).Updates(fields).Error
}

func (r *WorkspaceRepository) ListByPartner(partnerID int64) ([]model.Workspace, error) {
	var workspaces []model.Workspace
	err := r.db.Where("partner_id = ?", partnerID).Order("created_at ASC").Find(&workspaces).Error
	return workspaces, err
}

func (r *WorkspaceRepository) ListByIDs(ids []int64) ([]model.Workspace, error) {
	var workspaces []model.Workspace
	if len(ids) == 0 {
		return workspaces, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&workspaces).Error
	return workspaces, err
}

func (r *WorkspaceRepository) ExistsBySlug(slug string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Workspace{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *WorkspaceRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Workspace{}).Count(&count).Error
	return count, err
}

// ResetMonthlyCounters 月初清零所有工作区的用量计数
func (r *WorkspaceRepository) ResetMonthlyCounters() error {
	return r.db.Model(&model.Workspace{}).Where("1 = 1").Updates(map[string]interface{}{
		"minutes_this_month":    0,
		"cost_this_month_cents": 0,
	}).Error
}
