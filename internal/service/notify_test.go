package service

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mentorloop-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stalledConn 模拟对端不读、写入永远挂起的连接。
type stalledConn struct {
	release chan struct{}
	writes  int32
}

func newStalledConn() *stalledConn { return &stalledConn{release: make(chan struct{})} }

func (c *stalledConn) WriteMessage(messageType int, data []byte) error {
	atomic.AddInt32(&c.writes, 1)
	<-c.release
	return nil
}

func (c *stalledConn) SetWriteDeadline(t time.Time) error { return nil }
func (c *stalledConn) Close() error                       { return nil }

// recordingConn 记录所有成功写入的事件负载。
type recordingConn struct {
	mu       sync.Mutex
	payloads []string
}

func (c *recordingConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, string(data))
	return nil
}

func (c *recordingConn) SetWriteDeadline(t time.Time) error { return nil }
func (c *recordingConn) Close() error                       { return nil }

func (c *recordingConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.payloads)
}

// failingConn 任何写入都报错。
type failingConn struct{ closed int32 }

func (c *failingConn) WriteMessage(messageType int, data []byte) error {
	return errors.New("broken pipe")
}

func (c *failingConn) SetWriteDeadline(t time.Time) error { return nil }
func (c *failingConn) Close() error {
	atomic.AddInt32(&c.closed, 1)
	return nil
}

func (h *DraftEventHub) holds(conn EventConn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.conns[conn]
	return ok
}

func TestDraftEventHubStalledConnDoesNotBlockBroadcast(t *testing.T) {
	hub := NewDraftEventHub()
	stalled := newStalledConn()
	healthy := &recordingConn{}
	hub.Add(stalled)
	hub.Add(healthy)
	defer close(stalled.release)

	draft := &model.Draft{ID: "draft-1", StudentID: 7, Status: model.DraftStatusPending}
	total := eventBufferSize + 8

	done := make(chan struct{})
	go func() {
		for i := 0; i < total; i++ {
			hub.NotifyDraftEvent(DraftEventCreated, draft)
		}
		close(done)
	}()

	// 一个挂死的连接不能拖住广播：所有调用必须很快返回
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked by a stalled connection")
	}

	// 健康连接仍然收到事件，且负载带有事件类型与草稿 id
	require.Eventually(t, func() bool { return healthy.count() > 0 }, 2*time.Second, 10*time.Millisecond)
	healthy.mu.Lock()
	first := healthy.payloads[0]
	healthy.mu.Unlock()
	assert.Contains(t, first, DraftEventCreated)
	assert.Contains(t, first, "draft-1")

	// 挂死连接最多占用一次写，其余事件进缓冲或被丢弃
	require.Eventually(t, func() bool { return atomic.LoadInt32(&stalled.writes) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestDraftEventHubEvictsConnOnWriteError(t *testing.T) {
	hub := NewDraftEventHub()
	conn := &failingConn{}
	hub.Add(conn)

	draft := &model.Draft{ID: "draft-2", StudentID: 8, Status: model.DraftStatusPending}
	hub.NotifyDraftEvent(DraftEventCreated, draft)

	require.Eventually(t, func() bool { return !hub.holds(conn) }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&conn.closed) == 1 }, 2*time.Second, 10*time.Millisecond)

	// 被剔除后再注销是无害的
	hub.Remove(conn)
}

func TestDraftEventHubRemoveStopsDelivery(t *testing.T) {
	hub := NewDraftEventHub()
	conn := &recordingConn{}
	hub.Add(conn)
	hub.Remove(conn)
	hub.Remove(conn)

	draft := &model.Draft{ID: "draft-3", StudentID: 9, Status: model.DraftStatusPending}
	hub.NotifyDraftEvent(DraftEventReleased, draft)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, conn.count())
}
