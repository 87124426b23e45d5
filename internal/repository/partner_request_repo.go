package repository

import (
	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/internal/model"
)

type PartnerRequestRepository struct {
	db *gorm.DB
}

func NewPartnerRequestRepository(db *gorm.DB) *PartnerRequestRepository {
	return &PartnerRequestRepository{db: db}
}

func (r *PartnerRequestRepository) WithTx(tx *gorm.DB) *PartnerRequestRepository {
	return &PartnerRequestRepository{db: tx}
}

func (r *PartnerRequestRepository) Create(request *model.PartnerRequest) error {
	return r.db.Create(request).Error
}

func (r *PartnerRequestRepository) GetByID(id int64) (*model.PartnerRequest, error) {
	var request model.PartnerRequest
	err := r.db.Where("id = ?", id).First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *PartnerRequestRepository) GetByCheckoutSessionID(sessionID string) (*model.PartnerRequest, error) {
	var request model.PartnerRequest
	err := r.db.Where("checkout_session_id = ?", sessionID).First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *PartnerRequestRepository) Update(request *model.PartnerRequest) error {
	return r.db.Save(request).Error
}

func (r *PartnerRequestRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.PartnerRequest{}).Where("id = ?", id).Updates(fields).Error
}

func (r *PartnerRequestRepository) ListByStatus(status string, page, pageSize int) ([]model.PartnerRequest, int64, error) {
	var requests []model.PartnerRequest
	var total int64

	query := r.db.Model(&model.PartnerRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *PartnerRequestRepository) CountPending() (int64, error) {
	var count int64
	err := r.db.Model(&model.PartnerRequest{}).
		Where("status = ?", model.RequestPending).
		Count(&count).Error
	return count, err
}
