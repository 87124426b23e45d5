package repository

import (
	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/internal/model"
)

type PartnerRepository struct {
	db *gorm.DB
}

func NewPartnerRepository(db *gorm.DB) *PartnerRepository {
	return &PartnerRepository{db: db}
}

// WithTx 返回绑定到事务的仓库副本
func (r *PartnerRepository) WithTx(tx *gorm.DB) *PartnerRepository {
	return &PartnerRepository{db: tx}
}

func (r *PartnerRepository) Create(partner *model.Partner) error {
	return r.db.Create(partner).Error
}

func (r *PartnerRepository) GetByID(id int64) (*model.Partner, error) {
	var partner model.Partner
	err := r.db.Where("id = ?", id).First(&partner).Error
	if err != nil {
		return nil, err
	}
	return &partner, nil
}

func (r *PartnerRepository) GetBySlug(slug string) (*model.Partner, error) {
	var partner model.Partner
	err := r.db.Where("slug = ?", slug).First(&partner).Error
	if err != nil {
		return nil, err
	}
	return &partner, nil
}

// GetByDomain 按白标域名解析合作伙伴
func (r *PartnerRepository) GetByDomain(domain string) (*model.Partner, error) {
	var partner model.Partner
	err := r.db.
		Joins("JOIN partner_domains ON partner_domains.partner_id = partners.id").
		Where("partner_domains.domain = ?", domain).
		First(&partner).Error
	if err != nil {
		return nil, err
	}
	return &partner, nil
}

func (r *PartnerRepository) GetByStripeCustomerID(customerID string) (*model.Partner, error) {
	var partner model.Partner
	err := r.db.Where("stripe_customer_id = ?", customerID).First(&partner).Error
	if err != nil {
		return nil, err
	}
	return &partner, nil
}

func (r *PartnerRepository) Update(partner *model.Partner) error {
	return r.db.Save(partner).Error
}

func (r *PartnerRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.Partner{}).Where("id = ?", id).Updates(fields).Error
}

func (r *PartnerRepository) List(page, pageSize int) ([]model.Partner, int64, error) {
	var partners []model.Partner
	var total int64

	if err := r.db.Model(&model.Partner{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&partners).Error
	if err != nil {
		return nil, 0, err
	}

	return partners, total, nil
}

func (r *PartnerRepository) ExistsBySlug(slug string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Partner{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *PartnerRepository) CreateDomain(domain *model.PartnerDomain) error {
	return r.db.Create(domain).Error
}

func (r *PartnerRepository) ListDomains(partnerID int64) ([]model.PartnerDomain, error) {
	var domains []model.PartnerDomain
	err := r.db.Where("partner_id = ?", partnerID).Find(&domains).Error
	return domains, err
}
