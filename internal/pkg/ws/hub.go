package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub 管理住户的 websocket 连接，推送账单通知。
// 同一住户可能有多个连接（多个标签页或设备）。
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[*Client]struct{}
}

type Client struct {
	UserID string
	Conn   *websocket.Conn
	mu     sync.Mutex // gorilla 连接不支持并发写
}

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[*Client]struct{})}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	set, ok := h.conns[client.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.conns[client.UserID] = set
	}
	set[client] = struct{}{}
	n := len(set)
	h.mu.Unlock()

	log.Printf("Resident %s connected (%d connections)", client.UserID, n)
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if set, ok := h.conns[client.UserID]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(h.conns, client.UserID)
		}
	}
	h.mu.Unlock()

	log.Printf("Resident %s disconnected", client.UserID)
}

// SendToUser 推送给住户的所有连接，住户不在线时直接返回
func (h *Hub) SendToUser(userID string, msg *Message) error {
	clients := h.clientsOf(userID)
	if len(clients) == 0 {
		return nil
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	for _, c := range clients {
		// 单个连接写失败由读循环负责注销
		if err := c.write(data); err != nil {
			log.Printf("Push to resident %s failed: %v", userID, err)
		}
	}
	return nil
}

// IsOnline 住户是否至少有一个连接
func (h *Hub) IsOnline(userID string) bool {
	return len(h.clientsOf(userID)) > 0
}

// ConnectionCount 全部在线连接数
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, set := range h.conns {
		total += len(set)
	}
	return total
}

func (h *Hub) clientsOf(userID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	set := h.conns[userID]
	clients := make([]*Client, 0, len(set))
	for c := range set {
		clients = append(clients, c)
	}
	return clients
}

// Send 向单个连接发送消息
func (c *Client) Send(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.write(data)
}

func (c *Client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}
