package worker

import (
	"context"
	"log"

	"github.com/voxhub/voice_go_server/config"
	"github.com/voxhub/voice_go_server/internal/model"
	"github.com/voxhub/voice_go_server/internal/pkg/email"
	"github.com/voxhub/voice_go_server/internal/pkg/pubsub"
	"github.com/voxhub/voice_go_server/internal/pkg/queue"
	"github.com/voxhub/voice_go_server/internal/repository"
	"github.com/voxhub/voice_go_server/internal/service"
)

// Processor 消费计费队列，执行通话计费
type Processor struct {
	billingService *service.BillingService
	workspaceRepo  *repository.WorkspaceRepository
	membershipRepo *repository.MembershipRepository
	userRepo       *repository.UserRepository
	publisher      *pubsub.Publisher
	emailService   *email.Service
	cfg            *config.Config
}

func NewProcessor(
	billingService *service.BillingService,
	workspaceRepo *repository.WorkspaceRepository,
	membershipRepo *repository.MembershipRepository,
	userRepo *repository.UserRepository,
	publisher *pubsub.Publisher,
	emailService *email.Service,
	cfg *config.Config,
) *Processor {
	return &Processor{
		billingService: billingService,
		workspaceRepo:  workspaceRepo,
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
		publisher:      publisher,
		emailService:   emailService,
		cfg:            cfg,
	}
}

// Process 处理一条计费任务。
// 计费失败只记录日志，由对账任务兜底重试；
// 计费成功后推送实时事件并检查余额阈值。
func (p *Processor) Process(ctx context.Context, job *queue.BillingJob) error {
	result, err := p.billingService.ProcessCallCompletion(service.BillingInputFromJob(job))
	if err != nil {
		return err
	}

	if result.AlreadyBilled {
		return nil
	}

	event := &pubsub.CallEvent{
		Type:           pubsub.EventCallBilled,
		WorkspaceID:    job.WorkspaceID,
		ConversationID: job.ConversationID,
		DurationSec:    job.DurationSec,
		CostCents:      result.DeductedCents,
		BillingType:    result.BillingType,
	}
	if err := p.publisher.PublishCallEvent(ctx, event); err != nil {
		log.Printf("Failed to publish billed event for conversation %d: %v", job.ConversationID, err)
	}

	p.checkLowBalance(job.WorkspaceID, result.BillingType, result.BalanceCents)

	return nil
}

// checkLowBalance 余额跌破阈值时提醒工作区 Owner
func (p *Processor) checkLowBalance(workspaceID int64, billingType string, balanceCents int64) {
	if billingType != model.BillingTypeCredits {
		return
	}
	threshold := p.cfg.Billing.LowBalanceCents
	if threshold <= 0 || balanceCents > threshold {
		return
	}

	workspace, err := p.workspaceRepo.GetByID(workspaceID)
	if err != nil {
		return
	}

	memberships, err := p.membershipRepo.ListByPartner(workspace.PartnerID)
	if err != nil {
		return
	}
	for _, m := range memberships {
		if m.Role != model.RoleOwner || m.WorkspaceID != nil {
			continue
		}
		user, err := p.userRepo.GetByID(m.UserID)
		if err != nil {
			continue
		}
		if err := p.emailService.SendLowBalance(user.Email, workspace.Name, balanceCents); err != nil {
			log.Printf("Failed to send low balance email for workspace %d: %v", workspaceID, err)
		}
		return
	}
}
