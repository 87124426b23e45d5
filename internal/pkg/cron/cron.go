package cron

import (
	"log"
	"time"

	"github.com/voxhub/voice_go_server/config"
	"github.com/voxhub/voice_go_server/internal/repository"
	"github.com/voxhub/voice_go_server/internal/service"
)

type Service struct {
	billingService   *service.BillingService
	subscriptionRepo *repository.SubscriptionRepository
	workspaceRepo    *repository.WorkspaceRepository
	cfg              *config.Config
	stopChan         chan struct{}
}

func NewService(
	billingService *service.BillingService,
	subscriptionRepo *repository.SubscriptionRepository,
	workspaceRepo *repository.WorkspaceRepository,
	cfg *config.Config,
) *Service {
	return &Service{
		billingService:   billingService,
		subscriptionRepo: subscriptionRepo,
		workspaceRepo:    workspaceRepo,
		cfg:              cfg,
		stopChan:         make(chan struct{}),
	}
}

// Start 启动定时任务
func (s *Service) Start() {
	go s.runHourly()
	go s.runMonthlyReset()
	log.Println("Cron service started (subscription expiry + reconcile + monthly reset)")
}

// Stop 停止定时任务
func (s *Service) Stop() {
	close(s.stopChan)
	log.Println("Cron service stopped")
}

// runHourly 每小时：过期订阅标记逾期、补计费未结通话
func (s *Service) runHourly() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.expireSubscriptions()
			s.reconcileUnbilled()
		}
	}
}

// expireSubscriptions 周期已结束但未收到续费事件的订阅标记为逾期
func (s *Service) expireSubscriptions() {
	count, err := s.subscriptionRepo.MarkExpiredPastDue(time.Now())
	if err != nil {
		log.Printf("Failed to expire subscriptions: %v", err)
		return
	}
	if count > 0 {
		log.Printf("Marked %d subscriptions past_due", count)
	}
}

// reconcileUnbilled 对长时间未计费的通话重新计费
func (s *Service) reconcileUnbilled() {
	olderThan := time.Duration(s.cfg.Billing.ReconcileAfterMins) * time.Minute
	if olderThan <= 0 {
		olderThan = 30 * time.Minute
	}
	batchSize := s.cfg.Billing.ReconcileBatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	billed, err := s.billingService.ReconcileUnbilled(olderThan, batchSize)
	if err != nil {
		log.Printf("Reconcile failed: %v", err)
		return
	}
	if billed > 0 {
		log.Printf("Reconcile billed %d conversations", billed)
	}
}

// runMonthlyReset 每月一日零点重置工作区月度用量计数
func (s *Service) runMonthlyReset() {
	for {
		now := time.Now().UTC()
		nextMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
		timer := time.NewTimer(nextMonth.Sub(now))

		select {
		case <-s.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			s.resetMonthlyCounters()
		}
	}
}

// resetMonthlyCounters 清零所有工作区的本月分钟数和费用
func (s *Service) resetMonthlyCounters() {
	log.Println("Starting monthly counter reset...")
	if err := s.workspaceRepo.ResetMonthlyCounters(); err != nil {
		log.Printf("Failed to reset monthly counters: %v", err)
		return
	}
	log.Println("Monthly counter reset completed")
}

// RunReconcileNow 立即执行一次对账（用于测试或手动触发）
func (s *Service) RunReconcileNow() (int, error) {
	olderThan := time.Duration(s.cfg.Billing.ReconcileAfterMins) * time.Minute
	if olderThan <= 0 {
		olderThan = 30 * time.Minute
	}
	batchSize := s.cfg.Billing.ReconcileBatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	return s.billingService.ReconcileUnbilled(olderThan, batchSize)
}
