// Package service 包含了应用的业务逻辑层。
package service

import (
	"encoding/json"
	"sync"
	"time"

	"mentorloop-go/internal/model"
	"mentorloop-go/pkg/log"

	"github.com/gorilla/websocket"
)

const (
	// eventBufferSize 是每个订阅连接的事件缓冲大小，写满即丢弃新事件。
	eventBufferSize = 16
	// eventWriteTimeout 限制单次 WebSocket 写的最长耗时。
	eventWriteTimeout = 5 * time.Second
)

// EventConn 是集线器对订阅连接的最小依赖，*websocket.Conn 天然满足。
type EventConn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// DraftEventHub 向订阅的导师端连接广播草稿生命周期事件。
// 学员端仍然走轮询契约；这个通道只服务导师分诊视图的即时刷新。
// 每个连接有独立的写协程与缓冲：慢连接丢事件，广播本身永不阻塞。
type DraftEventHub struct {
	mu    sync.Mutex
	conns map[EventConn]chan []byte
}

// NewDraftEventHub 创建一个空的事件集线器。
func NewDraftEventHub() *DraftEventHub {
	return &DraftEventHub{conns: make(map[EventConn]chan []byte)}
}

// Add 登记一个订阅连接并启动它的写协程。
func (h *DraftEventHub) Add(conn EventConn) {
	ch := make(chan []byte, eventBufferSize)
	h.mu.Lock()
	h.conns[conn] = ch
	h.mu.Unlock()
	go h.writeLoop(conn, ch)
}

// Remove 注销一个订阅连接。重复注销是无害的。
func (h *DraftEventHub) Remove(conn EventConn) {
	h.mu.Lock()
	if ch, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		close(ch)
	}
	h.mu.Unlock()
}

// writeLoop 串行消费单连接的事件缓冲。写失败的连接直接剔除并关闭。
func (h *DraftEventHub) writeLoop(conn EventConn, ch chan []byte) {
	for b := range ch {
		_ = conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Warnf("推送草稿事件失败，移除连接: %v", err)
			h.Remove(conn)
			_ = conn.Close()
			return
		}
	}
}

// NotifyDraftEvent 满足 DraftNotifier 接口。只向各连接的缓冲投递，
// 缓冲已满时丢弃该连接的这条事件；广播失败绝不影响状态转换本身。
func (h *DraftEventHub) NotifyDraftEvent(event string, draft *model.Draft) {
	payload := map[string]interface{}{
		"type":      event,
		"draftId":   draft.ID,
		"studentId": draft.StudentID,
		"status":    draft.Status,
		"timestamp": time.Now().UnixMilli(),
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.conns {
		select {
		case ch <- b:
		default:
			log.Warnf("连接消费过慢，丢弃草稿事件: %s", event)
		}
	}
}

// NoopNotifier 是不做任何事的通知器，测试与离线任务场景使用。
type NoopNotifier struct{}

// NotifyDraftEvent 满足 DraftNotifier 接口。
func (NoopNotifier) NotifyDraftEvent(event string, draft *model.Draft) {}
