package repository

import (
	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/internal/model"
)

type AgentRepository struct {
	db *gorm.DB
}

func NewAgentRepository(db *gorm.DB) *AgentRepository {
	return &AgentRepository{db: db}
}

func (r *AgentRepository) WithTx(tx *gorm.DB) *AgentRepository {
	return &AgentRepository{db: tx}
}

func (r *AgentRepository) Create(agent *model.Agent) error {
	return r.db.Create(agent).Error
}

func (r *AgentRepository) GetByID(id int64) (*model.Agent, error) {
	var agent model.Agent
	err := r.db.Where("id = ?", id).First(&agent).Error
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *AgentRepository) ListByWorkspace(workspaceID int64) ([]model.Agent, error) {
	var agents []model.Agent
	err := r.db.Where("workspace_id = ?", workspaceID).Order("created_at ASC").Find(&agents).Error
	return agents, err
}

func (r *AgentRepository) Update(agent *model.Agent) error {
	return r.db.Save(agent).Error
}

func (r *AgentRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.Agent{}).Where("id = ?", id).Updates(fields).Error
}

func (r *AgentRepository) Delete(id int64) error {
	return r.db.Delete(&model.Agent{}, id).Error
}

// AddCallStats 累加坐席的通话聚合统计
func (r *AgentRepository) AddCallStats(id int64, minutes int, costCents int64) error {
	return r.db.Model(&model.Agent{}).Where("id = ?", id).Updates(map[string]interface{}{
		"total_calls":      gorm.Expr("total_calls + 1"),
		"total_minutes":    gorm.Expr("total_minutes + ?", minutes),
		"total_cost_cents": gorm.Expr("total_cost_cents + ?", costCents),
	}).Error
}

func (r *AgentRepository) CountActiveByWorkspace(workspaceID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.Agent{}).
		Where("workspace_id = ? AND status = ?", workspaceID, "active").
		Count(&count).Error
	return count, err
}
