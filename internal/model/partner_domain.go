package model

import (
	"time"
)

// PartnerDomain 白标域名，按请求 Host 解析所属合作伙伴
type PartnerDomain struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	PartnerID int64     `gorm:"not null;index" json:"partner_id"`
	Domain    string    `gorm:"size:255;uniqueIndex;not null" json:"domain"`
	IsPrimary bool      `gorm:"default:true" json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
}

func (PartnerDomain) TableName() string {
	return "partner_domains"
}
