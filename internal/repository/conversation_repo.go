package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/internal/model"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) WithTx(tx *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: tx}
}

func (r *ConversationRepository) Create(conv *model.Conversation) error {
	return r.db.Create(conv).Error
}

func (r *ConversationRepository) GetByID(id int64) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.Where("id = ?", id).First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// GetByIDForUpdate 行锁读取，计费事务中使用
func (r *ConversationRepository) GetByIDForUpdate(id int64) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.Clauses(lockingClause()).Where("id = ?", id).First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *ConversationRepository) GetByProviderCallID(provider, callID string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.Where("provider = ? AND provider_call_id = ?", provider, callID).First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *ConversationRepository) Update(conv *model.Conversation) error {
	return r.db.Save(conv).Error
}

func (r *ConversationRepository) ListByWorkspace(workspaceID int64, page, pageSize int) ([]model.Conversation, int64, error) {
	var convs []model.Conversation
	var total int64

	query := r.db.Model(&model.Conversation{}).Where("workspace_id = ?", workspaceID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&convs).Error
	if err != nil {
		return nil, 0, err
	}

	return convs, total, nil
}

// ListRecentByWorkspace 预热缓存使用
func (r *ConversationRepository) ListRecentByWorkspace(workspaceID int64, limit int) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := r.db.Where("workspace_id = ?", workspaceID).
		Order("created_at DESC").
		Limit(limit).
		Find(&convs).Error
	return convs, err
}

// ListUnbilled 已完成但未写入计费明细的通话（补偿任务使用）
func (r *ConversationRepository) ListUnbilled(olderThan time.Time, limit int) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := r.db.Where("status = ? AND (cost_breakdown IS NULL OR cost_breakdown = '') AND created_at < ?",
		"completed", olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&convs).Error
	return convs, err
}

func (r *ConversationRepository) CountByWorkspaceSince(workspaceID int64, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.Conversation{}).
		Where("workspace_id = ? AND created_at >= ?", workspaceID, since).
		Count(&count).Error
	return count, err
}

func (r *ConversationRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Conversation{}).Count(&count).Error
	return count, err
}

// SumBilledMinutes 全平台计费分钟总数（不足一分钟按一分钟计）
func (r *ConversationRepository) SumBilledMinutes() (int64, error) {
	var total *int64
	err := r.db.Model(&model.Conversation{}).
		Where("total_cost_cents > 0 OR cost_breakdown IS NOT NULL").
		Select("SUM(CAST((duration_seconds + 59) / 60 AS SIGNED))").
		Scan(&total).Error
	if err != nil || total == nil {
		return 0, err
	}
	return *total, nil
}
