package stream

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/components"
)

var testLimits = Limits{MaxSpawn: 10, RequestsPerSecond: 100, RequestBurst: 10}

type fakeController struct {
	mu     sync.Mutex
	spawns []int
	agents []components.Class
}

func (f *fakeController) RequestSpawn(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spawns = append(f.spawns, n)
}

func (f *fakeController) RequestAgent(class components.Class, _, _ r2.Vec) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agents = append(f.agents, class)
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_HelloAndBroadcast(t *testing.T) {
	hub := NewHub(nil, 1200, 600, testLimits)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()
	conn := dial(t, srv)

	var hello Hello
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if hello.Type != "config" || hello.Width != 1200 || hello.Height != 600 {
		t.Errorf("unexpected hello %+v", hello)
	}

	waitFor(t, func() bool { return hub.Clients() == 1 })
	hub.Broadcast(map[string]int{"tick": 7})

	var frame map[string]int
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if frame["tick"] != 7 {
		t.Errorf("expected tick 7, got %v", frame)
	}
}

func TestHub_BroadcastNeverBlocks(t *testing.T) {
	hub := NewHub(nil, 10, 10, testLimits)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Broadcast(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked without a running hub")
	}

	if v := <-hub.frames; v != 99 {
		t.Errorf("expected only the latest frame pending, got %v", v)
	}
}

func TestHub_ForwardsRequests(t *testing.T) {
	ctrl := &fakeController{}
	hub := NewHub(ctrl, 100, 100, testLimits)

	srv := httptest.NewServer(hub)
	defer srv.Close()
	conn := dial(t, srv)

	var hello Hello
	_ = conn.ReadJSON(&hello)

	if err := conn.WriteJSON(Message{Type: "spawn", N: 10}); err != nil {
		t.Fatalf("write spawn: %v", err)
	}
	if err := conn.WriteJSON(Message{Type: "add_agent", Class: components.ClassEnemy, X: 5, Y: 5}); err != nil {
		t.Fatalf("write add_agent: %v", err)
	}
	_ = conn.WriteJSON(Message{Type: "bogus"})

	waitFor(t, func() bool {
		ctrl.mu.Lock()
		defer ctrl.mu.Unlock()
		return len(ctrl.spawns) == 1 && len(ctrl.agents) == 1
	})

	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	if ctrl.spawns[0] != 10 || ctrl.agents[0] != components.ClassEnemy {
		t.Errorf("unexpected forwarded requests: spawns=%v agents=%v", ctrl.spawns, ctrl.agents)
	}
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub := NewHub(nil, 100, 100, testLimits)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	waitFor(t, func() bool { return hub.Clients() == 1 })

	_ = conn.Close()
	waitFor(t, func() bool { return hub.Clients() == 0 })
}

func TestHub_ClampsSpawnRequests(t *testing.T) {
	ctrl := &fakeController{}
	hub := NewHub(ctrl, 100, 100, testLimits)

	srv := httptest.NewServer(hub)
	defer srv.Close()
	conn := dial(t, srv)

	var hello Hello
	_ = conn.ReadJSON(&hello)

	msgs := []Message{
		{Type: "spawn", N: 1 << 22},
		{Type: "spawn", N: 0},
		{Type: "spawn", N: -5},
		{Type: "add_agent", Class: components.ClassBoid, X: 500, Y: 5},
		{Type: "add_agent", Class: components.ClassBoid, X: 5, Y: -1},
		{Type: "add_agent", Class: components.ClassBoid, X: 50, Y: 50},
	}
	for _, m := range msgs {
		if err := conn.WriteJSON(m); err != nil {
			t.Fatalf("write %s: %v", m.Type, err)
		}
	}

	// Messages are handled in order, so the last add means all were seen
	waitFor(t, func() bool {
		ctrl.mu.Lock()
		defer ctrl.mu.Unlock()
		return len(ctrl.agents) == 1
	})

	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	if len(ctrl.spawns) != 1 || ctrl.spawns[0] != testLimits.MaxSpawn {
		t.Errorf("expected one spawn clamped to %d, got %v", testLimits.MaxSpawn, ctrl.spawns)
	}
}

func TestHub_RateLimitsRequests(t *testing.T) {
	ctrl := &fakeController{}
	hub := NewHub(ctrl, 100, 100, testLimits)
	c := &client{limiter: rate.NewLimiter(rate.Limit(0.001), 2)}

	for i := 0; i < 5; i++ {
		hub.handle(c, Message{Type: "spawn", N: 1})
	}
	hub.handle(c, Message{Type: "add_agent", Class: components.ClassEnemy, X: 1, Y: 1})

	if len(ctrl.spawns) != 2 {
		t.Errorf("expected 2 spawns within the burst, got %d", len(ctrl.spawns))
	}
	if len(ctrl.agents) != 0 {
		t.Errorf("expected agent add to be rate limited, got %d", len(ctrl.agents))
	}
}

func TestHub_OversizedMessageDisconnects(t *testing.T) {
	hub := NewHub(&fakeController{}, 100, 100, testLimits)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	waitFor(t, func() bool { return hub.Clients() == 1 })

	big := Message{Type: strings.Repeat("x", 2*maxMessageSize)}
	_ = conn.WriteJSON(big)
	waitFor(t, func() bool { return hub.Clients() == 0 })
}
