package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voxhub/voice_go_server/config"
	"github.com/voxhub/voice_go_server/internal/database"
	"github.com/voxhub/voice_go_server/internal/pkg/email"
	"github.com/voxhub/voice_go_server/internal/pkg/pubsub"
	"github.com/voxhub/voice_go_server/internal/pkg/queue"
	"github.com/voxhub/voice_go_server/internal/repository"
	"github.com/voxhub/voice_go_server/internal/service"
	"github.com/voxhub/voice_go_server/internal/worker"
)

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

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	// 初始化 Queue 和 Pub/Sub
	billingQueue := queue.NewQueue(rdb, cfg.Queue.BillingQueue)
	publisher := pubsub.NewPublisher(rdb)
	emailService := email.NewService(&cfg.Email)

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	partnerRepo := repository.NewPartnerRepository(db)
	workspaceRepo := repository.NewWorkspaceRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	agentRepo := repository.NewAgentRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	creditRepo := repository.NewCreditRepository(db)

	billingService := service.NewBillingService(db, workspaceRepo, partnerRepo, conversationRepo, subscriptionRepo, creditRepo, agentRepo, cfg)

	// 创建任务处理器
	processor := worker.NewProcessor(billingService, workspaceRepo, membershipRepo, userRepo, publisher, emailService, cfg)

	// 创建 context 用于优雅关闭
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Received shutdown signal")
		cancel()
	}()

	log.Printf("Worker started, max workers: %d", cfg.Queue.MaxWorkers)

	// 启动 worker 循环
	for i := 0; i < cfg.Queue.MaxWorkers; i++ {
		go func(workerID int) {
			for {
				select {
				case <-ctx.Done():
					log.Printf("Worker %d shutting down", workerID)
					return
				default:
					// 从队列获取任务
					job, err := billingQueue.Pop(ctx, 5*time.Second)
					if err != nil {
						if ctx.Err() != nil {
							return
						}
						log.Printf("Worker %d: failed to pop job: %v", workerID, err)
						continue
					}

					if job == nil {
						continue // 超时，继续等待
					}

					log.Printf("Worker %d: billing conversation %d", workerID, job.ConversationID)
					if err := processor.Process(ctx, job); err != nil {
						log.Printf("Worker %d: billing conversation %d failed: %v", workerID, job.ConversationID, err)
					}
				}
			}
		}(i)
	}

	// 等待 context 取消
	<-ctx.Done()
	log.Println("Worker shutdown complete")
}
