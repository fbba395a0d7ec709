// Package stream serves simulation frames to websocket observers and feeds
// their requests back into the simulation's mutation queue.
package stream

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/components"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// maxMessageSize bounds a single client message.
const maxMessageSize = 4096

// Controller is the thread-safe request surface of the simulation.
type Controller interface {
	RequestSpawn(n int)
	RequestAgent(class components.Class, pos, vel r2.Vec)
}

// Message is a client request.
type Message struct {
	Type  string           `json:"type"` // "spawn" or "add_agent"
	N     int              `json:"n,omitempty"`
	Class components.Class `json:"class,omitempty"`
	X     float64          `json:"x,omitempty"`
	Y     float64          `json:"y,omitempty"`
	VX    float64          `json:"vx,omitempty"`
	VY    float64          `json:"vy,omitempty"`
}

// Hello is sent to every client on connect.
type Hello struct {
	Type   string  `json:"type"`
	Width  float64 `json:"w"`
	Height float64 `json:"h"`
}

// Limits bounds what a single client may ask of the simulation.
type Limits struct {
	MaxSpawn          int     // points per spawn request; larger requests are clamped
	RequestsPerSecond float64 // sustained mutation requests per client
	RequestBurst      int
}

type client struct {
	conn    *websocket.Conn
	mu      sync.Mutex
	limiter *rate.Limiter
}

func (c *client) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub fans frames out to connected clients. Broadcast never blocks the
// caller: when a frame is still pending, it is replaced by the newer one.
type Hub struct {
	ctrl   Controller
	hello  Hello
	limits Limits

	mu      sync.Mutex
	clients map[*client]struct{}

	frames chan any
}

// NewHub creates a hub for a world of the given size. ctrl may be nil,
// in which case client requests are ignored.
func NewHub(ctrl Controller, width, height float64, limits Limits) *Hub {
	return &Hub{
		ctrl:    ctrl,
		hello:   Hello{Type: "config", Width: width, Height: height},
		limits:  limits,
		clients: make(map[*client]struct{}),
		frames:  make(chan any, 1),
	}
}

// Broadcast queues v for delivery to every client.
func (h *Hub) Broadcast(v any) {
	for {
		select {
		case h.frames <- v:
			return
		default:
		}
		// Drop the stale frame and retry
		select {
		case <-h.frames:
		default:
		}
	}
}

// Run delivers queued frames until ctx is done, then disconnects all clients.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case v := <-h.frames:
			h.deliver(v)
		}
	}
}

func (h *Hub) deliver(v any) {
	h.mu.Lock()
	list := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		list = append(list, c)
	}
	h.mu.Unlock()

	for _, c := range list {
		if err := c.send(v); err != nil {
			slog.Warn("stream client send failed", "error", err)
			h.remove(c)
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		_ = c.conn.Close()
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	list := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		list = append(list, c)
	}
	h.mu.Unlock()
	for _, c := range list {
		h.remove(c)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the connection and reads client requests until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("stream upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(maxMessageSize)
	c := &client{
		conn:    conn,
		limiter: rate.NewLimiter(rate.Limit(h.limits.RequestsPerSecond), h.limits.RequestBurst),
	}
	if err := c.send(h.hello); err != nil {
		_ = conn.Close()
		return
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		h.handle(c, msg)
	}
	h.remove(c)
}

func (h *Hub) handle(c *client, msg Message) {
	if h.ctrl == nil {
		return
	}
	switch msg.Type {
	case "spawn":
		if msg.N <= 0 || h.limits.MaxSpawn <= 0 {
			slog.Debug("stream rejecting spawn", "n", msg.N)
			return
		}
		if !c.limiter.Allow() {
			slog.Debug("stream request rate limited", "type", msg.Type)
			return
		}
		h.ctrl.RequestSpawn(min(msg.N, h.limits.MaxSpawn))
	case "add_agent":
		if !h.validAgent(msg) {
			slog.Debug("stream rejecting agent", "class", msg.Class, "x", msg.X, "y", msg.Y)
			return
		}
		if !c.limiter.Allow() {
			slog.Debug("stream request rate limited", "type", msg.Type)
			return
		}
		h.ctrl.RequestAgent(msg.Class, r2.Vec{X: msg.X, Y: msg.Y}, r2.Vec{X: msg.VX, Y: msg.VY})
	default:
		slog.Debug("stream ignoring message", "type", msg.Type)
	}
}

// validAgent accepts known classes placed inside the world.
func (h *Hub) validAgent(msg Message) bool {
	if msg.Class != components.ClassBoid && msg.Class != components.ClassEnemy {
		return false
	}
	return msg.X >= 0 && msg.X <= h.hello.Width && msg.Y >= 0 && msg.Y <= h.hello.Height
}
