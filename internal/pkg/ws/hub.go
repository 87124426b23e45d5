package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

type Hub struct {
	// 每个工作区可以有多个连接（多成员、多标签页、重连等场景）
	clients map[int64]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	WorkspaceID int64
	UserID      int64
	Conn        *websocket.Conn
	mu          sync.Mutex // 写锁，防止并发写入
}

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[int64]map[*Client]struct{}),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.WorkspaceID] == nil {
		h.clients[client.WorkspaceID] = make(map[*Client]struct{})
	}
	h.clients[client.WorkspaceID][client] = struct{}{}

	log.Printf("Workspace %d connected (user %d), ws_conns: %d",
		client.WorkspaceID, client.UserID, len(h.clients[client.WorkspaceID]))
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.clients[client.WorkspaceID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.clients, client.WorkspaceID)
		}
	}
	log.Printf("Workspace %d disconnected (user %d)", client.WorkspaceID, client.UserID)
}

// SendToWorkspace 向指定工作区的所有连接发送消息
func (h *Hub) SendToWorkspace(workspaceID int64, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.RLock()
	conns, ok := h.clients[workspaceID]
	if !ok {
		h.mu.RUnlock()
		return nil
	}
	// 复制一份引用，避免长时间持锁
	clients := make([]*Client, 0, len(conns))
	for c := range conns {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.mu.Lock()
		err := c.Conn.WriteMessage(websocket.TextMessage, data)
		c.mu.Unlock()
		if err != nil {
			log.Printf("SendToWorkspace write error for workspace %d: %v", workspaceID, err)
		}
	}
	return nil
}

// ConnectionCount 获取在线连接数
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, conns := range h.clients {
		total += len(conns)
	}
	return total
}
