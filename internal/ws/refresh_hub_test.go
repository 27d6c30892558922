package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func dial(t *testing.T, hub *RefreshHub) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/refresh", RefreshHandler(hub))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/refresh"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(msg)
}

func TestRefreshHubBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewRefreshHub(nil)
	go hub.Run(ctx)

	first := dial(t, hub)
	second := dial(t, hub)
	for _, conn := range []*websocket.Conn{first, second} {
		if got := readEvent(t, conn); got != `{"type":"connected"}` {
			t.Fatalf("greeting = %s", got)
		}
	}

	hub.Broadcast(RefreshEvent{Type: "refresh", Path: "/"})

	for _, conn := range []*websocket.Conn{first, second} {
		if got := readEvent(t, conn); got != `{"type":"refresh","path":"/"}` {
			t.Errorf("event = %s", got)
		}
	}
}

func TestRefreshHubStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewRefreshHub(nil)
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	conn := dial(t, hub)
	readEvent(t, conn)
	cancel()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("connection still open after hub stopped")
	}
}

func TestBroadcastOnNilHub(t *testing.T) {
	var hub *RefreshHub
	hub.Broadcast(RefreshEvent{Type: "refresh"})
}

func TestRefreshHandlerWithoutHub(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/refresh", RefreshHandler(nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws/refresh", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}
