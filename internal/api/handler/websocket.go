package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/internal/pkg/jwt"
	"github.com/voxhub/voice_go_server/internal/pkg/ws"
	"github.com/voxhub/voice_go_server/internal/repository"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: 生产环境需要验证 Origin
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type WebSocketHandler struct {
	hub            *ws.Hub
	workspaceRepo  *repository.WorkspaceRepository
	membershipRepo *repository.MembershipRepository
	jwtSecret      string
}

func NewWebSocketHandler(
	hub *ws.Hub,
	workspaceRepo *repository.WorkspaceRepository,
	membershipRepo *repository.MembershipRepository,
	jwtSecret string,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		workspaceRepo:  workspaceRepo,
		membershipRepo: membershipRepo,
		jwtSecret:      jwtSecret,
	}
}

// Handle WebSocket 连接处理，订阅工作区实时通话事件
// GET /api/v1/ws?token=xxx&workspace=slug
func (h *WebSocketHandler) Handle(c *gin.Context) {
	// 验证 JWT Token
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	claims, err := jwt.ParseToken(token, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	// 验证工作区访问权限
	slug := c.Query("workspace")
	workspace, err := h.workspaceRepo.GetBySlug(slug)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}
	if _, err := h.membershipRepo.GetWorkspaceRole(claims.UserID, workspace.PartnerID, workspace.ID); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	// 升级连接
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	client := &ws.Client{
		WorkspaceID: workspace.ID,
		UserID:      claims.UserID,
		Conn:        conn,
	}

	h.hub.Register(client)

	// 保持连接，读取消息（主要用于检测断开）
	go func() {
		defer h.hub.Unregister(client)
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				break
			}
		}
	}()
}
