package service

import (
	"errors"
	"strconv"

	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/config"
	"github.com/voxhub/voice_go_server/internal/model"
	"github.com/voxhub/voice_go_server/internal/model/dto"
	"github.com/voxhub/voice_go_server/internal/pkg/payments"
	"github.com/voxhub/voice_go_server/internal/repository"
)

var (
	ErrInsufficientBalance = errors.New("余额不足")
	ErrPartnerNotFound     = errors.New("合作伙伴不存在")
	ErrLedgerMismatch      = errors.New("余额与流水不一致")
)

type CreditService struct {
	db            *gorm.DB
	partnerRepo   *repository.PartnerRepository
	workspaceRepo *repository.WorkspaceRepository
	creditRepo    *repository.CreditRepository
	stripeClient  *payments.Client
	cfg           *config.Config
}

func NewCreditService(
	db *gorm.DB,
	partnerRepo *repository.PartnerRepository,
	workspaceRepo *repository.WorkspaceRepository,
	creditRepo *repository.CreditRepository,
	stripeClient *payments.Client,
	cfg *config.Config,
) *CreditService {
	return &CreditService{
		db:            db,
		partnerRepo:   partnerRepo,
		workspaceRepo: workspaceRepo,
		creditRepo:    creditRepo,
		stripeClient:  stripeClient,
		cfg:           cfg,
	}
}

// GetWorkspaceBalance 工作区余额与本月用量
func (s *CreditService) GetWorkspaceBalance(workspaceID int64) (*dto.BalanceResponse, error) {
	workspace, err := s.workspaceRepo.GetByID(workspaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, err
	}

	rate := workspace.PerMinuteRateCents
	if rate == 0 {
		partner, err := s.partnerRepo.GetByID(workspace.PartnerID)
		if err == nil && partner.PerMinuteRateCents > 0 {
			rate = partner.PerMinuteRateCents
		} else {
			rate = s.cfg.Billing.DefaultRateCents
		}
	}

	return &dto.BalanceResponse{
		BalanceCents:       workspace.BalanceCents,
		PerMinuteRateCents: rate,
		MinutesThisMonth:   workspace.MinutesThisMonth,
		CostThisMonthCents: workspace.CostThisMonthCents,
	}, nil
}

// ListTransactions 余额流水分页
func (s *CreditService) ListTransactions(ownerType string, ownerID int64, page, pageSize int) ([]model.CreditTransaction, int64, error) {
	return s.creditRepo.ListByOwner(ownerType, ownerID, page, pageSize)
}

// CreateTopupIntent 创建工作区充值 PaymentIntent，入账在 webhook 回调中完成
func (s *CreditService) CreateTopupIntent(workspaceID int64, req *dto.TopupRequest) (*dto.TopupResponse, error) {
	workspace, err := s.workspaceRepo.GetByID(workspaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, err
	}

	partner, err := s.partnerRepo.GetByID(workspace.PartnerID)
	if err != nil {
		return nil, err
	}

	customerID := ""
	if partner.StripeCustomerID != nil {
		customerID = *partner.StripeCustomerID
	}

	intent, err := s.stripeClient.CreateTopupIntent(customerID, req.AmountCents, map[string]string{
		"owner_type":   model.OwnerWorkspace,
		"workspace_id": strconv.FormatInt(workspaceID, 10),
	})
	if err != nil {
		return nil, err
	}

	return &dto.TopupResponse{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
	}, nil
}

// ApplyTopup 充值入账（由 Stripe webhook 触发），reference 为 PaymentIntent ID
func (s *CreditService) ApplyTopup(ownerType string, ownerID, amountCents int64, reference string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		balance, err := s.addBalance(tx, ownerType, ownerID, amountCents)
		if err != nil {
			return err
		}

		return s.creditRepo.WithTx(tx).Create(&model.CreditTransaction{
			OwnerType:         ownerType,
			OwnerID:           ownerID,
			AmountCents:       amountCents,
			BalanceAfterCents: balance,
			Type:              model.TxnTopup,
			Reference:         reference,
			Description:       "余额充值",
		})
	})
}

// GrantToWorkspace 合作伙伴向工作区划拨额度：伙伴扣、工作区入，两条流水同一事务
func (s *CreditService) GrantToWorkspace(partnerID int64, req *dto.GrantRequest) error {
	if req.AmountCents <= 0 {
		return errors.New("划拨金额必须为正数")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		workspace, err := s.workspaceRepo.WithTx(tx).GetByIDForUpdate(req.WorkspaceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWorkspaceNotFound
			}
			return err
		}
		if workspace.PartnerID != partnerID {
			return ErrWorkspaceNotFound
		}

		partner, err := s.partnerRepo.WithTx(tx).GetByID(partnerID)
		if err != nil {
			return err
		}
		if partner.BalanceCents < req.AmountCents {
			return ErrInsufficientBalance
		}

		desc := req.Description
		if desc == "" {
			desc = "额度划拨"
		}

		partner.BalanceCents -= req.AmountCents
		if err := s.partnerRepo.WithTx(tx).Update(partner); err != nil {
			return err
		}
		if err := s.creditRepo.WithTx(tx).Create(&model.CreditTransaction{
			OwnerType:         model.OwnerPartner,
			OwnerID:           partnerID,
			AmountCents:       -req.AmountCents,
			BalanceAfterCents: partner.BalanceCents,
			Type:              model.TxnGrant,
			Description:       desc,
		}); err != nil {
			return err
		}

		workspace.BalanceCents += req.AmountCents
		if err := s.workspaceRepo.WithTx(tx).Update(workspace); err != nil {
			return err
		}
		return s.creditRepo.WithTx(tx).Create(&model.CreditTransaction{
			OwnerType:         model.OwnerWorkspace,
			OwnerID:           workspace.ID,
			AmountCents:       req.AmountCents,
			BalanceAfterCents: workspace.BalanceCents,
			Type:              model.TxnGrant,
			Description:       desc,
		})
	})
}

// Adjust 超管手工调账，正负均可
func (s *CreditService) Adjust(req *dto.AdjustmentRequest) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		balance, err := s.addBalance(tx, req.OwnerType, req.OwnerID, req.AmountCents)
		if err != nil {
			return err
		}

		return s.creditRepo.WithTx(tx).Create(&model.CreditTransaction{
			OwnerType:         req.OwnerType,
			OwnerID:           req.OwnerID,
			AmountCents:       req.AmountCents,
			BalanceAfterCents: balance,
			Type:              model.TxnAdjustment,
			Description:       req.Description,
		})
	})
}

// VerifyLedger 校验余额与流水是否一致
func (s *CreditService) VerifyLedger(ownerType string, ownerID int64) error {
	sum, err := s.creditRepo.SumByOwner(ownerType, ownerID)
	if err != nil {
		return err
	}

	var balance int64
	switch ownerType {
	case model.OwnerPartner:
		partner, err := s.partnerRepo.GetByID(ownerID)
		if err != nil {
			return err
		}
		balance = partner.BalanceCents
	case model.OwnerWorkspace:
		workspace, err := s.workspaceRepo.GetByID(ownerID)
		if err != nil {
			return err
		}
		balance = workspace.BalanceCents
	default:
		return errors.New("未知账户类型")
	}

	if balance != sum {
		return ErrLedgerMismatch
	}
	return nil
}

// addBalance 给定账户加余额并返回最新余额
func (s *CreditService) addBalance(tx *gorm.DB, ownerType string, ownerID, amountCents int64) (int64, error) {
	switch ownerType {
	case model.OwnerPartner:
		partner, err := s.partnerRepo.WithTx(tx).GetByID(ownerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, ErrPartnerNotFound
			}
			return 0, err
		}
		partner.BalanceCents += amountCents
		if err := s.partnerRepo.WithTx(tx).Update(partner); err != nil {
			return 0, err
		}
		return partner.BalanceCents, nil

	case model.OwnerWorkspace:
		workspace, err := s.workspaceRepo.WithTx(tx).GetByIDForUpdate(ownerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, ErrWorkspaceNotFound
			}
			return 0, err
		}
		workspace.BalanceCents += amountCents
		if err := s.workspaceRepo.WithTx(tx).Update(workspace); err != nil {
			return 0, err
		}
		return workspace.BalanceCents, nil

	default:
		return 0, errors.New("未知账户类型")
	}
}
