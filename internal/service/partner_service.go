package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/internal/model"
	"github.com/voxhub/voice_go_server/internal/model/dto"
	"github.com/voxhub/voice_go_server/internal/pkg/oss"
	"github.com/voxhub/voice_go_server/internal/repository"
)

var ErrDomainNotFound = errors.New("域名未注册")

type PartnerService struct {
	partnerRepo *repository.PartnerRepository
	ossClient   *oss.Client
}

func NewPartnerService(partnerRepo *repository.PartnerRepository, ossClient *oss.Client) *PartnerService {
	return &PartnerService{
		partnerRepo: partnerRepo,
		ossClient:   ossClient,
	}
}

// Get 获取合作伙伴
func (s *PartnerService) Get(id int64) (*model.Partner, error) {
	partner, err := s.partnerRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPartnerNotFound
		}
		return nil, err
	}
	return partner, nil
}

// Update 更新合作伙伴设置
func (s *PartnerService) Update(id int64, req *dto.UpdatePartnerRequest) (*model.Partner, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.PerMinuteRateCents != nil {
		fields["per_minute_rate_cents"] = *req.PerMinuteRateCents
	}
	if req.AccentColor != nil {
		fields["accent_color"] = *req.AccentColor
	}

	if len(fields) > 0 {
		if err := s.partnerRepo.UpdateFields(id, fields); err != nil {
			return nil, err
		}
	}

	return s.partnerRepo.GetByID(id)
}

// UploadLogo 上传品牌 Logo 到对象存储并更新 URL
func (s *PartnerService) UploadLogo(id int64, data []byte, ext string) (string, error) {
	partner, err := s.Get(id)
	if err != nil {
		return "", err
	}

	// 旧 Logo 清理失败不影响上传
	if partner.LogoURL != "" {
		_ = s.ossClient.Delete(s.ossClient.ExtractObjectKey(partner.LogoURL))
	}

	url, err := s.ossClient.UploadLogo(id, data, ext)
	if err != nil {
		return "", err
	}

	if err := s.partnerRepo.UpdateFields(id, map[string]interface{}{"logo_url": url}); err != nil {
		return "", err
	}

	return url, nil
}

// ListDomains 白标域名列表
func (s *PartnerService) ListDomains(partnerID int64) ([]model.PartnerDomain, error) {
	return s.partnerRepo.ListDomains(partnerID)
}

// AddDomain 绑定白标域名
func (s *PartnerService) AddDomain(partnerID int64, domain string, isPrimary bool) (*model.PartnerDomain, error) {
	d := &model.PartnerDomain{
		PartnerID: partnerID,
		Domain:    domain,
		IsPrimary: isPrimary,
	}
	if err := s.partnerRepo.CreateDomain(d); err != nil {
		return nil, err
	}
	return d, nil
}

// BrandingByDomain 按请求域名解析品牌信息（登录页公开接口）
func (s *PartnerService) BrandingByDomain(domain string) (*model.Partner, error) {
	partner, err := s.partnerRepo.GetByDomain(domain)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDomainNotFound
		}
		return nil, err
	}
	return partner, nil
}
