package main

import (
	"log"
	"time"

	"github.com/voxhub/voice_go_server/config"
	"github.com/voxhub/voice_go_server/internal/database"
	"github.com/voxhub/voice_go_server/internal/repository"
	"github.com/voxhub/voice_go_server/internal/service"
)

// 对账任务：对超过等待时间仍未计费的通话重新计费。
// 设计为一次性执行，由外部调度（crontab / k8s CronJob）周期运行。
func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Println("Database connected")

	// 初始化 Repository
	partnerRepo := repository.NewPartnerRepository(db)
	workspaceRepo := repository.NewWorkspaceRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	agentRepo := repository.NewAgentRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	creditRepo := repository.NewCreditRepository(db)

	billingService := service.NewBillingService(db, workspaceRepo, partnerRepo, conversationRepo, subscriptionRepo, creditRepo, agentRepo, cfg)

	olderThan := time.Duration(cfg.Billing.ReconcileAfterMins) * time.Minute
	if olderThan <= 0 {
		olderThan = 30 * time.Minute
	}
	batchSize := cfg.Billing.ReconcileBatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	billed, err := billingService.ReconcileUnbilled(olderThan, batchSize)
	if err != nil {
		log.Fatalf("Reconcile failed: %v", err)
	}

	log.Printf("Reconcile complete, billed %d conversations", billed)
}
