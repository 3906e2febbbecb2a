package handler

import (
	"net/http"

	"mentorloop-go/internal/service"
	"mentorloop-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 前端与 API 不同源，握手阶段由 JWT 中间件把关
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler 负责导师端草稿事件订阅的 WebSocket 升级。
type WSHandler struct {
	hub *service.DraftEventHub
}

// NewWSHandler 创建一个新的 WSHandler 实例。
func NewWSHandler(hub *service.DraftEventHub) *WSHandler {
	return &WSHandler{hub: hub}
}

// SubscribeDraftEvents 把当前请求升级为 WebSocket 连接并登记到事件集线器。
// 连接是单向推送的，收到的任何消息都被丢弃，读循环只用于感知断开。
func (h *WSHandler) SubscribeDraftEvents(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warnf("WebSocket 升级失败, user: %s, error: %v", user.Username, err)
		return
	}

	h.hub.Add(conn)
	log.Infof("导师 %s 订阅草稿事件", user.Username)

	go func() {
		defer func() {
			h.hub.Remove(conn)
			_ = conn.Close()
			log.Infof("导师 %s 的草稿事件订阅已断开", user.Username)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
