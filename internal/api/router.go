package api

import (
	"github.com/gin-gonic/gin"

	"github.com/voxhub/voice_go_server/config"
	"github.com/voxhub/voice_go_server/internal/api/handler"
	"github.com/voxhub/voice_go_server/internal/api/middleware"
	"github.com/voxhub/voice_go_server/internal/model"
	"github.com/voxhub/voice_go_server/internal/repository"
)

type Router struct {
	authHandler         *handler.AuthHandler
	publicHandler       *handler.PublicHandler
	workspaceHandler    *handler.WorkspaceHandler
	agentHandler        *handler.AgentHandler
	conversationHandler *handler.ConversationHandler
	campaignHandler     *handler.CampaignHandler
	integrationHandler  *handler.IntegrationHandler
	partnerHandler      *handler.PartnerHandler
	adminHandler        *handler.AdminHandler
	webhookHandler      *handler.WebhookHandler
	websocketHandler    *handler.WebSocketHandler
	workspaceRepo       *repository.WorkspaceRepository
	membershipRepo      *repository.MembershipRepository
	partnerRepo         *repository.PartnerRepository
	userRepo            *repository.UserRepository
	cfg                 *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	publicHandler *handler.PublicHandler,
	workspaceHandler *handler.WorkspaceHandler,
	agentHandler *handler.AgentHandler,
	conversationHandler *handler.ConversationHandler,
	campaignHandler *handler.CampaignHandler,
	integrationHandler *handler.IntegrationHandler,
	partnerHandler *handler.PartnerHandler,
	adminHandler *handler.AdminHandler,
	webhookHandler *handler.WebhookHandler,
	websocketHandler *handler.WebSocketHandler,
	workspaceRepo *repository.WorkspaceRepository,
	membershipRepo *repository.MembershipRepository,
	partnerRepo *repository.PartnerRepository,
	userRepo *repository.UserRepository,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:         authHandler,
		publicHandler:       publicHandler,
		workspaceHandler:    workspaceHandler,
		agentHandler:        agentHandler,
		conversationHandler: conversationHandler,
		campaignHandler:     campaignHandler,
		integrationHandler:  integrationHandler,
		partnerHandler:      partnerHandler,
		adminHandler:        adminHandler,
		webhookHandler:      webhookHandler,
		websocketHandler:    websocketHandler,
		workspaceRepo:       workspaceRepo,
		membershipRepo:      membershipRepo,
		partnerRepo:         partnerRepo,
		userRepo:            userRepo,
		cfg:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	// API 文档（手工维护的 OpenAPI 摘要）
	engine.StaticFile("/docs", "./docs/openapi.json")

	api := engine.Group("/api/v1")
	{
		// WebSocket
		api.GET("/ws", r.websocketHandler.Handle)

		// 公开接口
		api.GET("/branding", r.publicHandler.Branding)
		api.POST("/partner-requests", r.publicHandler.SubmitRequest)
		api.GET("/integrations/callback", r.integrationHandler.Callback)

		// Webhook（签名校验，无 JWT）
		webhooks := api.Group("/webhooks")
		{
			webhooks.POST("/stripe", r.webhookHandler.Stripe)
			webhooks.POST("/voice/:provider", r.webhookHandler.Voice)
		}

		// 认证
		auth := api.Group("/auth")
		{
			auth.POST("/login", r.authHandler.Login)
		}
		authed := api.Group("/auth")
		authed.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			authed.GET("/me", r.authHandler.Me)
			authed.POST("/change-password", r.authHandler.ChangePassword)
		}

		// 工作区作用域
		workspace := api.Group("/w/:slug")
		workspace.Use(middleware.Auth(r.cfg.JWT.Secret))
		workspace.Use(middleware.WorkspaceScope(r.workspaceRepo, r.membershipRepo))
		{
			workspace.GET("", r.workspaceHandler.Get)
			workspace.GET("/dashboard", r.workspaceHandler.Dashboard)

			billing := workspace.Group("/billing")
			{
				billing.GET("/balance", r.workspaceHandler.Balance)
				billing.GET("/transactions", r.workspaceHandler.Transactions)
				billing.POST("/topup",
					middleware.RequireRole(model.RoleOwner, model.RoleAdmin),
					r.workspaceHandler.Topup)
			}

			agents := workspace.Group("/agents")
			{
				agents.GET("", r.agentHandler.List)
				agents.GET("/:id", r.agentHandler.Get)
				agents.POST("", middleware.RequireRole(model.RoleOwner, model.RoleAdmin), r.agentHandler.Create)
				agents.PUT("/:id", middleware.RequireRole(model.RoleOwner, model.RoleAdmin), r.agentHandler.Update)
				agents.DELETE("/:id", middleware.RequireRole(model.RoleOwner, model.RoleAdmin), r.agentHandler.Delete)
			}

			conversations := workspace.Group("/conversations")
			{
				conversations.GET("", r.conversationHandler.List)
				conversations.GET("/:id", r.conversationHandler.Get)
			}

			campaigns := workspace.Group("/campaigns")
			{
				campaigns.GET("", r.campaignHandler.List)
				campaigns.GET("/:id", r.campaignHandler.Get)
				campaigns.POST("", r.campaignHandler.Create)
				campaigns.PUT("/:id/draft", r.campaignHandler.SaveDraft)
				campaigns.POST("/:id/contacts", r.campaignHandler.UploadContacts)
				campaigns.POST("/:id/schedule", r.campaignHandler.Schedule)
				campaigns.POST("/:id/start", r.campaignHandler.Start)
				campaigns.POST("/:id/pause", r.campaignHandler.Pause)
				campaigns.POST("/:id/complete", r.campaignHandler.Complete)
				campaigns.DELETE("/:id", r.campaignHandler.Delete)
			}

			integrations := workspace.Group("/integrations")
			{
				integrations.GET("", r.integrationHandler.List)
				integrations.POST("/calendar/connect",
					middleware.RequireRole(model.RoleOwner, model.RoleAdmin),
					r.integrationHandler.Connect)
				integrations.DELETE("/:provider",
					middleware.RequireRole(model.RoleOwner, model.RoleAdmin),
					r.integrationHandler.Disconnect)
			}
		}

		// 合作伙伴作用域
		partner := api.Group("/partner")
		partner.Use(middleware.Auth(r.cfg.JWT.Secret))
		partner.Use(middleware.PartnerScope(r.partnerRepo, r.membershipRepo))
		{
			partner.GET("", r.partnerHandler.Get)
			partner.PUT("", middleware.RequireRole(model.RoleOwner, model.RoleAdmin), r.partnerHandler.Update)
			partner.POST("/logo", middleware.RequireRole(model.RoleOwner, model.RoleAdmin), r.partnerHandler.UploadLogo)

			partner.GET("/domains", r.partnerHandler.ListDomains)
			partner.POST("/domains", middleware.RequireRole(model.RoleOwner), r.partnerHandler.AddDomain)

			partner.GET("/workspaces", r.partnerHandler.ListWorkspaces)
			partner.POST("/workspaces", middleware.RequireRole(model.RoleOwner, model.RoleAdmin), r.partnerHandler.CreateWorkspace)
			partner.PUT("/workspaces/:id", middleware.RequireRole(model.RoleOwner, model.RoleAdmin), r.partnerHandler.UpdateWorkspace)

			partner.GET("/billing/transactions", r.partnerHandler.Transactions)
			partner.POST("/billing/grant", middleware.RequireRole(model.RoleOwner, model.RoleAdmin), r.partnerHandler.Grant)

			partner.GET("/members", r.partnerHandler.ListMembers)
			partner.POST("/members", middleware.RequireRole(model.RoleOwner, model.RoleAdmin), r.partnerHandler.AddMember)
			partner.DELETE("/members/:id", middleware.RequireRole(model.RoleOwner, model.RoleAdmin), r.partnerHandler.RemoveMember)
		}

		// 超管作用域
		admin := api.Group("/super-admin")
		admin.Use(middleware.Auth(r.cfg.JWT.Secret))
		admin.Use(middleware.SuperAdmin(r.userRepo))
		{
			admin.GET("/stats", r.adminHandler.Stats)
			admin.GET("/partners", r.adminHandler.ListPartners)
			admin.POST("/partners/:id/suspend", r.adminHandler.SuspendPartner)
			admin.POST("/partners/:id/resume", r.adminHandler.ResumePartner)
			admin.GET("/requests", r.adminHandler.ListRequests)
			admin.POST("/requests/:id/review", r.adminHandler.ReviewRequest)
			admin.POST("/billing/adjust", r.adminHandler.Adjust)
		}
	}

	return engine
}
