package game

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/components"
)

type requestKind uint8

const (
	reqSpawn requestKind = iota
	reqDecay
	reqAgent
)

type request struct {
	kind  requestKind
	n     int
	class components.Class
	pos   r2.Vec
	vel   r2.Vec
}

// mutationQueue collects external mutations until the next step drains them.
type mutationQueue struct {
	mu      sync.Mutex
	pending []request
}

func (q *mutationQueue) push(r request) {
	q.mu.Lock()
	q.pending = append(q.pending, r)
	q.mu.Unlock()
}

// drain returns the queued requests in arrival order and empties the queue.
// buf is reused as the destination.
func (q *mutationQueue) drain(buf []request) []request {
	q.mu.Lock()
	buf = append(buf[:0], q.pending...)
	q.pending = q.pending[:0]
	q.mu.Unlock()
	return buf
}

func (q *mutationQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// RequestSpawn queues a batch of n resource points. Safe from any goroutine.
func (g *Game) RequestSpawn(n int) {
	if n <= 0 {
		return
	}
	g.queue.push(request{kind: reqSpawn, n: n})
}

// RequestDecay queues one life decay tick. Safe from any goroutine.
func (g *Game) RequestDecay() {
	g.queue.push(request{kind: reqDecay})
}

// RequestAgent queues a new agent. Safe from any goroutine.
func (g *Game) RequestAgent(class components.Class, pos, vel r2.Vec) {
	g.queue.push(request{kind: reqAgent, class: class, pos: pos, vel: vel})
}

// Pending returns the number of queued mutations.
func (g *Game) Pending() int {
	return g.queue.len()
}

func (g *Game) applyRequests() {
	for _, r := range g.queue.drain(nil) {
		switch r.kind {
		case reqSpawn:
			g.collector.RecordSpawn(len(g.field.SpawnBatch(r.n)))
		case reqDecay:
			g.applyDecay()
		case reqAgent:
			if r.class == components.ClassEnemy {
				g.AddEnemy(r.pos, r.vel)
			} else {
				g.AddBoid(r.pos, r.vel)
			}
		}
	}
}
