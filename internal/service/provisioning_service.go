package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/config"
	"github.com/voxhub/voice_go_server/internal/model"
	"github.com/voxhub/voice_go_server/internal/model/dto"
	"github.com/voxhub/voice_go_server/internal/pkg/email"
	"github.com/voxhub/voice_go_server/internal/pkg/payments"
	"github.com/voxhub/voice_go_server/internal/repository"
)

var (
	ErrRequestNotFound    = errors.New("入驻申请不存在")
	ErrRequestNotPending  = errors.New("申请不在待审核状态")
	ErrRequestNotApproved = errors.New("申请尚未通过审核")
)

type ProvisioningService struct {
	db           *gorm.DB
	requestRepo  *repository.PartnerRequestRepository
	partnerRepo  *repository.PartnerRepository
	userRepo     *repository.UserRepository
	stripeClient *payments.Client
	emailService *email.Service
	cfg          *config.Config
}

func NewProvisioningService(
	db *gorm.DB,
	requestRepo *repository.PartnerRequestRepository,
	partnerRepo *repository.PartnerRepository,
	userRepo *repository.UserRepository,
	stripeClient *payments.Client,
	emailService *email.Service,
	cfg *config.Config,
) *ProvisioningService {
	return &ProvisioningService{
		db:           db,
		requestRepo:  requestRepo,
		partnerRepo:  partnerRepo,
		userRepo:     userRepo,
		stripeClient: stripeClient,
		emailService: emailService,
		cfg:          cfg,
	}
}

// SubmitRequest 提交入驻申请（公开接口）
func (s *ProvisioningService) SubmitRequest(input *dto.CreatePartnerRequestInput) (*model.PartnerRequest, error) {
	exists, err := s.partnerRepo.ExistsBySlug(input.RequestedSlug)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrSlugExists
	}

	planTier := input.PlanTier
	if planTier == "" {
		planTier = "starter"
	}

	request := &model.PartnerRequest{
		CompanyName:     input.CompanyName,
		ContactEmail:    input.ContactEmail,
		ContactName:     input.ContactName,
		RequestedSlug:   input.RequestedSlug,
		RequestedDomain: input.RequestedDomain,
		PlanTier:        planTier,
		Status:          model.RequestPending,
	}

	if err := s.requestRepo.Create(request); err != nil {
		return nil, err
	}

	return request, nil
}

// Review 超管审核申请。通过时创建 Stripe 结账会话，开通在支付回调中完成
func (s *ProvisioningService) Review(id int64, input *dto.ReviewRequestInput) (*model.PartnerRequest, error) {
	request, err := s.requestRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if request.Status != model.RequestPending {
		return nil, ErrRequestNotPending
	}

	now := time.Now()

	if !input.Approve {
		request.Status = model.RequestRejected
		request.RejectReason = input.RejectReason
		request.ReviewedAt = &now
		if err := s.requestRepo.Update(request); err != nil {
			return nil, err
		}
		if err := s.emailService.SendRequestRejected(request.ContactEmail, request.CompanyName, input.RejectReason); err != nil {
			log.Printf("Failed to send rejection email to %s: %v", request.ContactEmail, err)
		}
		return request, nil
	}

	// 创建 Stripe 客户与订阅结账会话
	cust, err := s.stripeClient.CreateCustomer(request.ContactEmail, request.CompanyName, map[string]string{
		"partner_request_id": fmt.Sprintf("%d", request.ID),
	})
	if err != nil {
		return nil, err
	}

	plan, ok := s.cfg.Billing.Plans[request.PlanTier]
	if !ok {
		return nil, fmt.Errorf("未配置的套餐: %s", request.PlanTier)
	}

	sess, err := s.stripeClient.CreateSubscriptionCheckout(
		cust.ID,
		plan.StripePriceID,
		s.cfg.Stripe.CheckoutSuccessURL,
		s.cfg.Stripe.CheckoutCancelURL,
		map[string]string{
			"partner_request_id": fmt.Sprintf("%d", request.ID),
		},
	)
	if err != nil {
		return nil, err
	}

	request.Status = model.RequestApproved
	request.CheckoutSessionID = &sess.ID
	request.ReviewedAt = &now
	if err := s.requestRepo.Update(request); err != nil {
		return nil, err
	}

	return request, nil
}

// ProvisionFromCheckout 支付完成后的开通入口（checkout.session.completed）
func (s *ProvisioningService) ProvisionFromCheckout(sessionID, stripeCustomerID, stripeSubID string) (*model.Partner, error) {
	request, err := s.requestRepo.GetByCheckoutSessionID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return s.Provision(request, stripeCustomerID, stripeSubID)
}

// Provision 开通合作伙伴。
// 合作伙伴、域名、Owner 用户、成员关系、默认工作区、
// 初始赠送额度和流水在同一事务中创建，任一失败整体回滚。
// 欢迎邮件在事务提交后发送。
func (s *ProvisioningService) Provision(request *model.PartnerRequest, stripeCustomerID, stripeSubID string) (*model.Partner, error) {
	if request.Status == model.RequestProvisioned {
		if request.PartnerID != nil {
			return s.partnerRepo.GetByID(*request.PartnerID)
		}
		return nil, ErrRequestNotFound
	}
	if request.Status != model.RequestApproved {
		return nil, ErrRequestNotApproved
	}

	tempPassword, err := generateTempPassword()
	if err != nil {
		return nil, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var partner *model.Partner
	startingGrant := s.cfg.Billing.StartingGrantCents
	plan, hasPlan := s.cfg.Billing.Plans[request.PlanTier]

	err = s.db.Transaction(func(tx *gorm.DB) error {
		partner = &model.Partner{
			Name:             request.CompanyName,
			Slug:             request.RequestedSlug,
			PlanTier:         request.PlanTier,
			StripeCustomerID: &stripeCustomerID,
			BalanceCents:     startingGrant,
			Status:           "active",
		}
		if stripeSubID != "" {
			partner.StripeSubscriptionID = &stripeSubID
		}
		if err := s.partnerRepo.WithTx(tx).Create(partner); err != nil {
			return err
		}

		if request.RequestedDomain != "" {
			domain := &model.PartnerDomain{
				PartnerID: partner.ID,
				Domain:    request.RequestedDomain,
				IsPrimary: true,
			}
			if err := s.partnerRepo.WithTx(tx).CreateDomain(domain); err != nil {
				return err
			}
		}

		// Owner 用户，邮箱已注册时复用
		user, err := s.userRepo.WithTx(tx).GetByEmail(request.ContactEmail)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			user = &model.User{
				Email:         request.ContactEmail,
				PasswordHash:  string(hashed),
				Name:          request.ContactName,
				MustResetPass: true,
			}
			if err := s.userRepo.WithTx(tx).Create(user); err != nil {
				return err
			}
		} else {
			tempPassword = "" // 已有账号不发临时密码
		}

		membership := &model.Membership{
			UserID:    user.ID,
			PartnerID: partner.ID,
			Role:      model.RoleOwner,
		}
		if err := tx.Create(membership).Error; err != nil {
			return err
		}

		workspace := &model.Workspace{
			PartnerID: partner.ID,
			Name:      "Default",
			Slug:      fmt.Sprintf("%s-default", partner.Slug),
			Status:    "active",
		}
		if err := tx.Create(workspace).Error; err != nil {
			return err
		}

		if startingGrant > 0 {
			txn := &model.CreditTransaction{
				OwnerType:         model.OwnerPartner,
				OwnerID:           partner.ID,
				AmountCents:       startingGrant,
				BalanceAfterCents: startingGrant,
				Type:              model.TxnGrant,
				Description:       "开通赠送额度",
			}
			if err := tx.Create(txn).Error; err != nil {
				return err
			}
		}

		// Stripe 订阅在本地建立镜像
		if stripeSubID != "" && hasPlan {
			now := time.Now()
			sub := &model.Subscription{
				PartnerID:            partner.ID,
				Plan:                 request.PlanTier,
				Kind:                 plan.Kind,
				IncludedMinutes:      plan.IncludedMinutes,
				Status:               model.SubscriptionActive,
				CurrentPeriodStart:   now,
				CurrentPeriodEnd:     now.AddDate(0, 1, 0),
				StripeSubscriptionID: &stripeSubID,
			}
			if err := tx.Create(sub).Error; err != nil {
				return err
			}
		}

		request.Status = model.RequestProvisioned
		request.PartnerID = &partner.ID
		return s.requestRepo.WithTx(tx).Update(request)
	})
	if err != nil {
		return nil, err
	}

	if tempPassword != "" {
		loginURL := fmt.Sprintf("https://%s/login", request.RequestedDomain)
		if request.RequestedDomain == "" {
			loginURL = fmt.Sprintf("https://%s.%s/login", partner.Slug, s.cfg.Server.BaseDomain)
		}
		if err := s.emailService.SendWelcome(request.ContactEmail, partner.Name, loginURL, tempPassword); err != nil {
			log.Printf("Failed to send welcome email to %s: %v", request.ContactEmail, err)
		}
	}

	return partner, nil
}

// generateTempPassword 生成 16 位临时密码
func generateTempPassword() (string, error) {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
