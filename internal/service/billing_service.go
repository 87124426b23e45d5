package service

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/config"
	"github.com/voxhub/voice_go_server/internal/model"
	"github.com/voxhub/voice_go_server/internal/model/dto"
	"github.com/voxhub/voice_go_server/internal/repository"
)

var (
	ErrConversationNotFound = errors.New("通话记录不存在")
	ErrWorkspaceNotFound    = errors.New("工作区不存在")
)

type BillingService struct {
	db               *gorm.DB
	workspaceRepo    *repository.WorkspaceRepository
	partnerRepo      *repository.PartnerRepository
	conversationRepo *repository.ConversationRepository
	subscriptionRepo *repository.SubscriptionRepository
	creditRepo       *repository.CreditRepository
	agentRepo        *repository.AgentRepository
	cfg              *config.Config
}

func NewBillingService(
	db *gorm.DB,
	workspaceRepo *repository.WorkspaceRepository,
	partnerRepo *repository.PartnerRepository,
	conversationRepo *repository.ConversationRepository,
	subscriptionRepo *repository.SubscriptionRepository,
	creditRepo *repository.CreditRepository,
	agentRepo *repository.AgentRepository,
	cfg *config.Config,
) *BillingService {
	return &BillingService{
		db:               db,
		workspaceRepo:    workspaceRepo,
		partnerRepo:      partnerRepo,
		conversationRepo: conversationRepo,
		subscriptionRepo: subscriptionRepo,
		creditRepo:       creditRepo,
		agentRepo:        agentRepo,
		cfg:              cfg,
	}
}

// BilledMinutes 计费分钟数：不足一分钟按一分钟计
func BilledMinutes(durationSec int) int {
	if durationSec <= 0 {
		return 0
	}
	return (durationSec + 59) / 60
}

// ProcessCallCompletion 通话完成计费
//
// 扣费优先级：
//  1. 后付订阅且有效 → 仅记录用量，不立即扣费，超出部分记为超额分钟
//  2. 预付订阅且有效 → 先消耗套餐分钟，超出部分扣余额
//  3. 无订阅 → 直接扣工作区余额
//  4. 工作区计费豁免时，余额扣费一律落在合作伙伴余额上
//
// 展示费用恒等于 计费分钟 × 合作伙伴配置费率，与服务商报告成本无关。
// 幂等：cost_breakdown 已有 billing_type 视为已计费，直接返回成功。
// 所有写入（通话、工作区、订阅、流水、坐席统计）在同一事务中完成。
func (s *BillingService) ProcessCallCompletion(input *dto.CallBillingInput) (*dto.CallBillingResult, error) {
	result := &dto.CallBillingResult{}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		conv, err := s.conversationRepo.WithTx(tx).GetByIDForUpdate(input.ConversationID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrConversationNotFound
			}
			return err
		}

		// 幂等检查：已计费直接返回
		if conv.Billed() {
			breakdown, _ := conv.ParseCostBreakdown()
			result.Success = true
			result.AlreadyBilled = true
			result.BillingType = breakdown.BillingType
			result.DeductedCents = breakdown.DeductedCents
			result.BilledMinutes = breakdown.BilledMinutes
			return nil
		}

		workspace, err := s.workspaceRepo.WithTx(tx).GetByIDForUpdate(conv.WorkspaceID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrWorkspaceNotFound
			}
			return err
		}

		partner, err := s.partnerRepo.WithTx(tx).GetByID(workspace.PartnerID)
		if err != nil {
			return err
		}

		rate := s.resolveRate(workspace, partner)
		minutes := BilledMinutes(conv.DurationSeconds)
		totalCost := int64(minutes) * int64(rate)
		now := time.Now()

		breakdown := &model.CostBreakdown{
			RateCents:     rate,
			BilledMinutes: minutes,
			ProviderCost:  conv.ProviderCostCents,
			BilledAt:      now.Format(time.RFC3339),
		}

		// 订阅套餐优先
		sub, err := s.subscriptionRepo.WithTx(tx).GetActiveByWorkspace(workspace.ID)
		if err != nil {
			return err
		}
		if sub != nil && !sub.IsActive(now) {
			sub = nil
		}

		creditMinutes := minutes
		switch {
		case sub != nil && sub.Kind == model.SubscriptionPostpaid:
			// 后付：全部记账，不扣余额
			planMinutes := minutes
			if remain := sub.RemainingMinutes(); planMinutes > remain {
				sub.OverageMinutes += planMinutes - remain
				planMinutes = remain
			}
			sub.MinutesUsed += minutes
			if err := s.subscriptionRepo.WithTx(tx).Update(sub); err != nil {
				return err
			}
			breakdown.BillingType = model.BillingTypeSubscription
			breakdown.PlanMinutes = minutes
			creditMinutes = 0

		case sub != nil && sub.Kind == model.SubscriptionPrepaid:
			// 预付：先消耗套餐分钟
			planMinutes := minutes
			if remain := sub.RemainingMinutes(); planMinutes > remain {
				planMinutes = remain
			}
			sub.MinutesUsed += planMinutes
			if err := s.subscriptionRepo.WithTx(tx).Update(sub); err != nil {
				return err
			}
			breakdown.PlanMinutes = planMinutes
			creditMinutes = minutes - planMinutes
		}

		deducted := int64(creditMinutes) * int64(rate)
		breakdown.CreditMinutes = creditMinutes
		breakdown.DeductedCents = deducted

		if breakdown.BillingType == "" {
			if creditMinutes == 0 && breakdown.PlanMinutes > 0 {
				breakdown.BillingType = model.BillingTypePrepaidPlan
			} else if workspace.BillingExempt {
				breakdown.BillingType = model.BillingTypePartnerCredits
			} else {
				breakdown.BillingType = model.BillingTypeCredits
			}
		}

		// 余额扣费
		if deducted > 0 {
			ownerType := model.OwnerWorkspace
			ownerID := workspace.ID
			if workspace.BillingExempt {
				ownerType = model.OwnerPartner
				ownerID = partner.ID
				partner.BalanceCents -= deducted
				result.BalanceCents = partner.BalanceCents
				if err := s.partnerRepo.WithTx(tx).Update(partner); err != nil {
					return err
				}
			} else {
				workspace.BalanceCents -= deducted
				result.BalanceCents = workspace.BalanceCents
			}

			txn := &model.CreditTransaction{
				OwnerType:         ownerType,
				OwnerID:           ownerID,
				AmountCents:       -deducted,
				BalanceAfterCents: result.BalanceCents,
				Type:              model.TxnDeduction,
				ConversationID:    &conv.ID,
				Description:       "通话计费扣费",
			}
			if err := s.creditRepo.WithTx(tx).Create(txn); err != nil {
				return err
			}
		} else if workspace.BillingExempt {
			result.BalanceCents = partner.BalanceCents
		} else {
			result.BalanceCents = workspace.BalanceCents
		}

		// 工作区月度用量
		workspace.MinutesThisMonth += minutes
		workspace.CostThisMonthCents += totalCost
		if err := s.workspaceRepo.WithTx(tx).Update(workspace); err != nil {
			return err
		}

		// 通话展示费用与计费明细（幂等标记在此写入）
		conv.TotalCostCents = totalCost
		if err := conv.SetCostBreakdown(breakdown); err != nil {
			return err
		}
		if err := s.conversationRepo.WithTx(tx).Update(conv); err != nil {
			return err
		}

		// 坐席聚合统计
		if conv.AgentID != nil {
			if err := s.agentRepo.WithTx(tx).AddCallStats(*conv.AgentID, minutes, totalCost); err != nil {
				return err
			}
		}

		result.Success = true
		result.BillingType = breakdown.BillingType
		result.DeductedCents = deducted
		result.BilledMinutes = minutes
		return nil
	})

	if err != nil {
		log.Printf("Billing failed for conversation %d: %v", input.ConversationID, err)
		result.Success = false
		result.FailReason = err.Error()
		return result, err
	}

	return result, nil
}

// resolveRate 工作区费率，未配置时继承合作伙伴费率，再回落到全局默认
func (s *BillingService) resolveRate(workspace *model.Workspace, partner *model.Partner) int {
	if workspace.PerMinuteRateCents > 0 {
		return workspace.PerMinuteRateCents
	}
	if partner.PerMinuteRateCents > 0 {
		return partner.PerMinuteRateCents
	}
	return s.cfg.Billing.DefaultRateCents
}

// ReconcileUnbilled 重试历史未计费通话，返回成功计费的数量
func (s *BillingService) ReconcileUnbilled(olderThan time.Duration, batchSize int) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	convs, err := s.conversationRepo.ListUnbilled(cutoff, batchSize)
	if err != nil {
		return 0, err
	}

	billed := 0
	for _, conv := range convs {
		input := &dto.CallBillingInput{
			ConversationID: conv.ID,
			WorkspaceID:    conv.WorkspaceID,
			DurationSec:    conv.DurationSeconds,
			Provider:       conv.Provider,
		}
		result, err := s.ProcessCallCompletion(input)
		if err != nil {
			log.Printf("Reconcile: conversation %d still failing: %v", conv.ID, err)
			continue
		}
		if result.Success && !result.AlreadyBilled {
			billed++
		}
	}

	return billed, nil
}
