package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/qs3c/ipl_server/internal/pkg/jwt"
	"github.com/qs3c/ipl_server/internal/pkg/ws"
	"github.com/qs3c/ipl_server/internal/service"
)

// MessageTypeConnected 连接建立后推送的首条消息
const MessageTypeConnected = "connected"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: 按 cors.allowed_origins 校验 Origin
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type WebSocketHandler struct {
	hub                 *ws.Hub
	notificationService *service.NotificationService
	jwtSecret           string
}

func NewWebSocketHandler(hub *ws.Hub, notificationService *service.NotificationService, jwtSecret string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:                 hub,
		notificationService: notificationService,
		jwtSecret:           jwtSecret,
	}
}

// Handle 住户的账单通知通道
// GET /api/v1/ws?token=xxx
func (h *WebSocketHandler) Handle(c *gin.Context) {
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

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	client := &ws.Client{
		UserID: claims.UserID,
		Conn:   conn,
	}
	h.hub.Register(client)

	var unread int64
	if h.notificationService != nil {
		if unread, err = h.notificationService.UnreadCount(claims.UserID); err != nil {
			log.Printf("Failed to count unread notifications for %s: %v", claims.UserID, err)
		}
	}
	if err := client.Send(&ws.Message{
		Type: MessageTypeConnected,
		Data: gin.H{"unread": unread},
	}); err != nil {
		log.Printf("Failed to send welcome message: %v", err)
	}

	// 读循环只用于检测断开
	go func() {
		defer h.hub.Unregister(client)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
