package repository

import (
	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/internal/model"
)

type IntegrationRepository struct {
	db *gorm.DB
}

func NewIntegrationRepository(db *gorm.DB) *IntegrationRepository {
	return &IntegrationRepository{db: db}
}

func (r *IntegrationRepository) Upsert(integration *model.Integration) error {
	var existing model.Integration
	err := r.db.Where("workspace_id = ? AND provider = ?",
		integration.WorkspaceID, integration.Provider).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return r.db.Create(integration).Error
	}
	if err != nil {
		return err
	}

	integration.ID = existing.ID
	integration.CreatedAt = existing.CreatedAt
	return r.db.Save(integration).Error
}

func (r *IntegrationRepository) GetByWorkspaceProvider(workspaceID int64, provider string) (*model.Integration, error) {
	var integration model.Integration
	err := r.db.Where("workspace_id = ? AND provider = ?", workspaceID, provider).
		First(&integration).Error
	if err != nil {
		return nil, err
	}
	return &integration, nil
}

func (r *IntegrationRepository) ListByWorkspace(workspaceID int64) ([]model.Integration, error) {
	var integrations []model.Integration
	err := r.db.Where("workspace_id = ?", workspaceID).Find(&integrations).Error
	return integrations, err
}

func (r *IntegrationRepository) Delete(workspaceID int64, provider string) error {
	return r.db.Where("workspace_id = ? AND provider = ?", workspaceID, provider).
		Delete(&model.Integration{}).Error
}
