package main

import (
	"context"
	"fmt"
	"log"

	"github.com/voxhub/voice_go_server/config"
	"github.com/voxhub/voice_go_server/internal/api"
	"github.com/voxhub/voice_go_server/internal/api/handler"
	"github.com/voxhub/voice_go_server/internal/database"
	"github.com/voxhub/voice_go_server/internal/pkg/cron"
	"github.com/voxhub/voice_go_server/internal/pkg/email"
	"github.com/voxhub/voice_go_server/internal/pkg/oauth"
	"github.com/voxhub/voice_go_server/internal/pkg/oss"
	"github.com/voxhub/voice_go_server/internal/pkg/payments"
	"github.com/voxhub/voice_go_server/internal/pkg/pubsub"
	"github.com/voxhub/voice_go_server/internal/pkg/queue"
	"github.com/voxhub/voice_go_server/internal/pkg/ws"
	"github.com/voxhub/voice_go_server/internal/repository"
	"github.com/voxhub/voice_go_server/internal/service"
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

	// 初始化 OSS（可选）
	var ossClient *oss.Client
	if cfg.OSS.Endpoint != "" && cfg.OSS.AccessKeyID != "" {
		ossClient, err = oss.NewClient(&cfg.OSS)
		if err != nil {
			log.Printf("Warning: Failed to init OSS client: %v", err)
		} else {
			log.Println("OSS client initialized")
		}
	}

	// 初始化基础组件
	billingQueue := queue.NewQueue(rdb, cfg.Queue.BillingQueue)
	publisher := pubsub.NewPublisher(rdb)
	subscriber := pubsub.NewSubscriber(rdb)
	stateStore := oauth.NewStateStore(rdb)
	stripeClient := payments.NewClient(&cfg.Stripe)
	emailService := email.NewService(&cfg.Email)
	wsHub := ws.NewHub()

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	partnerRepo := repository.NewPartnerRepository(db)
	workspaceRepo := repository.NewWorkspaceRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	agentRepo := repository.NewAgentRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	creditRepo := repository.NewCreditRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	requestRepo := repository.NewPartnerRequestRepository(db)
	integrationRepo := repository.NewIntegrationRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	// 初始化 Service
	authService := service.NewAuthService(userRepo, membershipRepo, partnerRepo, workspaceRepo, cfg)
	billingService := service.NewBillingService(db, workspaceRepo, partnerRepo, conversationRepo, subscriptionRepo, creditRepo, agentRepo, cfg)
	creditService := service.NewCreditService(db, partnerRepo, workspaceRepo, creditRepo, stripeClient, cfg)
	workspaceService := service.NewWorkspaceService(workspaceRepo, membershipRepo, userRepo, conversationRepo, agentRepo, campaignRepo)
	agentService := service.NewAgentService(agentRepo)
	conversationService := service.NewConversationService(conversationRepo)
	searchService := service.NewSearchService(conversationRepo, rdb, cfg)
	campaignService := service.NewCampaignService(campaignRepo, ossClient)
	partnerService := service.NewPartnerService(partnerRepo, ossClient)
	provisioningService := service.NewProvisioningService(db, requestRepo, partnerRepo, userRepo, stripeClient, emailService, cfg)
	stripeService := service.NewStripeService(stripeClient, webhookEventRepo, partnerRepo, subscriptionRepo, membershipRepo, userRepo, creditService, provisioningService, emailService, cfg)
	webhookService := service.NewWebhookService(conversationRepo, workspaceRepo, campaignRepo, webhookEventRepo, billingQueue, publisher, cfg)
	integrationService := service.NewIntegrationService(integrationRepo, stateStore, cfg)
	adminService := service.NewAdminService(partnerRepo, workspaceRepo, conversationRepo, creditRepo, requestRepo, subscriptionRepo)

	// 初始化 Handler
	authHandler := handler.NewAuthHandler(authService)
	publicHandler := handler.NewPublicHandler(partnerService, provisioningService)
	workspaceHandler := handler.NewWorkspaceHandler(workspaceService, creditService)
	agentHandler := handler.NewAgentHandler(agentService)
	conversationHandler := handler.NewConversationHandler(conversationService, searchService)
	campaignHandler := handler.NewCampaignHandler(campaignService)
	integrationHandler := handler.NewIntegrationHandler(integrationService)
	partnerHandler := handler.NewPartnerHandler(partnerService, workspaceService, creditService)
	adminHandler := handler.NewAdminHandler(adminService, provisioningService, creditService)
	webhookHandler := handler.NewWebhookHandler(webhookService, stripeService)
	websocketHandler := handler.NewWebSocketHandler(wsHub, workspaceRepo, membershipRepo, cfg.JWT.Secret)

	// Redis 通话事件转发到 WebSocket
	go func() {
		err := subscriber.Subscribe(context.Background(), func(event *pubsub.CallEvent) {
			_ = wsHub.SendToWorkspace(event.WorkspaceID, &ws.Message{
				Type: event.Type,
				Data: event,
			})
		})
		if err != nil && err != context.Canceled {
			log.Printf("Call event subscriber stopped: %v", err)
		}
	}()

	// 定时任务
	cronService := cron.NewService(billingService, subscriptionRepo, workspaceRepo, cfg)
	cronService.Start()
	defer cronService.Stop()

	// 初始化 Router
	router := api.NewRouter(
		authHandler,
		publicHandler,
		workspaceHandler,
		agentHandler,
		conversationHandler,
		campaignHandler,
		integrationHandler,
		partnerHandler,
		adminHandler,
		webhookHandler,
		websocketHandler,
		workspaceRepo,
		membershipRepo,
		partnerRepo,
		userRepo,
		cfg,
	)
	engine := router.Setup()

	// 启动服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := engine.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
