package repository

import (
	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/internal/model"
)

type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) WithTx(tx *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: tx}
}

func (r *MembershipRepository) Create(membership *model.Membership) error {
	return r.db.Create(membership).Error
}

// GetPartnerRole 用户在合作伙伴层级的角色（无 workspace 维度的成员关系）
func (r *MembershipRepository) GetPartnerRole(userID, partnerID int64) (*model.Membership, error) {
	var m model.Membership
	err := r.db.Where("user_id = ? AND partner_id = ? AND workspace_id IS NULL", userID, partnerID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetWorkspaceRole 用户在工作区的角色，无直接成员关系时回落到合作伙伴角色
func (r *MembershipRepository) GetWorkspaceRole(userID, partnerID, workspaceID int64) (*model.Membership, error) {
	var m model.Membership
	err := r.db.Where("user_id = ? AND workspace_id = ?", userID, workspaceID).First(&m).Error
	if err == nil {
		return &m, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	return r.GetPartnerRole(userID, partnerID)
}

func (r *MembershipRepository) ListByUser(userID int64) ([]model.Membership, error) {
	var memberships []model.Membership
	err := r.db.Where("user_id = ?", userID).Find(&memberships).Error
	return memberships, err
}

func (r *MembershipRepository) ListByPartner(partnerID int64) ([]model.Membership, error) {
	var memberships []model.Membership
	err := r.db.Where("partner_id = ?", partnerID).Find(&memberships).Error
	return memberships, err
}

func (r *MembershipRepository) Delete(id int64) error {
	return r.db.Delete(&model.Membership{}, id).Error
}
