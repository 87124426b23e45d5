package model

import (
	"time"
)

// 成员角色
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Membership 用户与合作伙伴/工作区的成员关系
// WorkspaceID 为空时表示合作伙伴层级的成员
type Membership struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	UserID      int64     `gorm:"not null;index:idx_memberships_user" json:"user_id"`
	PartnerID   int64     `gorm:"not null;index" json:"partner_id"`
	WorkspaceID *int64    `gorm:"index" json:"workspace_id,omitempty"`
	Role        string    `gorm:"size:20;not null;default:member" json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Membership) TableName() string {
	return "memberships"
}
