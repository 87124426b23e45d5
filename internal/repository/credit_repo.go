package repository

import (
	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/internal/model"
)

type CreditRepository struct {
	db *gorm.DB
}

func NewCreditRepository(db *gorm.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

func (r *CreditRepository) WithTx(tx *gorm.DB) *CreditRepository {
	return &CreditRepository{db: tx}
}

func (r *CreditRepository) Create(txn *model.CreditTransaction) error {
	return r.db.Create(txn).Error
}

func (r *CreditRepository) ListByOwner(ownerType string, ownerID int64, page, pageSize int) ([]model.CreditTransaction, int64, error) {
	var txns []model.CreditTransaction
	var total int64

	query := r.db.Model(&model.CreditTransaction{}).
		Where("owner_type = ? AND owner_id = ?", ownerType, ownerID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&txns).Error
	if err != nil {
		return nil, 0, err
	}

	return txns, total, nil
}

// SumByOwner 流水合计，用于校验余额不变式
func (r *CreditRepository) SumByOwner(ownerType string, ownerID int64) (int64, error) {
	var sum int64
	err := r.db.Model(&model.CreditTransaction{}).
		Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&sum).Error
	return sum, err
}

// ExistsByConversation 指定通话是否已有扣费流水
func (r *CreditRepository) ExistsByConversation(conversationID int64) (bool, error) {
	var count int64
	err := r.db.Model(&model.CreditTransaction{}).
		Where("conversation_id = ?", conversationID).
		Count(&count).Error
	return count > 0, err
}

// SumDeductions 平台总扣费额（超管统计）
func (r *CreditRepository) SumDeductions() (int64, error) {
	var sum int64
	err := r.db.Model(&model.CreditTransaction{}).
		Where("type = ?", model.TxnDeduction).
		Select("COALESCE(SUM(-amount_cents), 0)").
		Scan(&sum).Error
	return sum, err
}
