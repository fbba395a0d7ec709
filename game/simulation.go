package game

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/policy"
	"github.com/pthm-cable/shoal/systems"
	"github.com/pthm-cable/shoal/telemetry"
)

// Advance runs one simulation step and returns a copy of the resulting frame.
// dt only advances simulated time; kinematics are per frame.
func (g *Game) Advance(dt float64) FrameResult {
	g.frameEaten = 0
	g.frameDied = 0
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseQueue)
	g.applyRequests()

	g.perfCollector.StartPhase(telemetry.PhaseIndex)
	g.rebuildIndex()

	g.perfCollector.StartPhase(telemetry.PhaseDecide)
	g.updateBoids()
	g.updateEnemies()

	g.perfCollector.StartPhase(telemetry.PhaseIntegrate)
	g.integrate()

	g.perfCollector.StartPhase(telemetry.PhaseLearn)
	g.learn()

	g.perfCollector.StartPhase(telemetry.PhaseCleanup)
	g.cleanupDead()

	g.tick++
	g.simTime += dt

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()
	frame := g.snapshot()

	g.perfCollector.EndTick()
	return frame
}

// rebuildIndex snapshots every living agent into the spatial index so
// neighbor queries see frame-start state. Dead boids stay in the world
// until cleanup but are invisible to neighbors.
func (g *Game) rebuildIndex() {
	g.occupants = g.occupants[:0]

	boids := g.boidFilter.Query()
	for boids.Next() {
		pos, vel, _, _, agent, life, _ := boids.Get()
		if !life.Alive {
			continue
		}
		g.occupants = append(g.occupants, occupant(boids.Entity(), agent, pos, vel))
	}

	enemies := g.kinFilter.Query()
	for enemies.Next() {
		pos, vel, _, _, agent := enemies.Get()
		if agent.Class != components.ClassEnemy {
			continue
		}
		g.occupants = append(g.occupants, occupant(enemies.Entity(), agent, pos, vel))
	}

	g.index.Rebuild(g.occupants)
}

func occupant(e ecs.Entity, agent *components.Agent, pos *components.Position, vel *components.Velocity) systems.Occupant {
	return systems.Occupant{
		E:     e,
		ID:    agent.ID,
		Class: agent.Class,
		Pos:   r2.Vec(*pos),
		Vel:   r2.Vec(*vel),
	}
}

// updateBoids handles resources, flocking, contact and the policy action for
// every living boid. All forces go into the acceleration accumulator.
func (g *Game) updateBoids() {
	consumeRadius := g.cfg.Resource.ConsumeRadius
	jitterMin, jitterMax := g.cfg.Boid.JitterMin, g.cfg.Boid.JitterMax

	query := g.boidFilter.Query()
	for query.Next() {
		pos, vel, acc, lim, agent, life, dec := query.Get()
		if !life.Alive {
			continue
		}

		body := systems.Body{
			ID:       agent.ID,
			Pos:      r2.Vec(*pos),
			Vel:      r2.Vec(*vel),
			MaxSpeed: lim.MaxSpeed,
			MaxForce: lim.MaxForce,
		}
		g.neighbors = g.index.NeighborsInto(g.neighbors[:0], body.Pos)

		// Consume the nearest point in reach; first boid in query order wins
		life.Eating = false
		ate := 0
		if p, d, ok := g.field.NearestTo(body.Pos); ok && d < consumeRadius {
			if g.field.Consume(p.ID) {
				grew := systems.Eat(life, g.life)
				g.collector.RecordMeal(grew)
				g.frameEaten++
				g.totalEaten++
				ate++
			}
		}

		ctx := policy.Context{
			Body:      body,
			Neighbors: g.neighbors,
			Bounds:    g.bounds,
		}
		if p, d, ok := g.field.NearestTo(body.Pos); ok {
			ctx.Target, ctx.Distance, ctx.HasTarget = p.Pos, d, true
		}

		g.flockmates = systems.FilterClass(g.flockmates[:0], g.neighbors, components.ClassBoid)
		systems.Accumulate(acc, systems.Flock(body, g.flockmates, g.weights))
		systems.Accumulate(acc, r2.Scale(g.contactWeight, systems.Contact(body, g.neighbors, g.contactRadius)))

		g.decide(ctx, dec, ate)
		// A boid that ate this frame does not also seek the next point
		actCtx := ctx
		if ate > 0 {
			actCtx.HasTarget = false
		}
		systems.Accumulate(acc, g.policy.Apply(actCtx, policy.Action(dec.Action)))

		systems.Accumulate(acc, systems.Jitter(g.rng, jitterMin, jitterMax))
	}
}

// decide accumulates the boid's reward and, on its decision tick, observes,
// picks a new action and queues the finished transition for learning.
func (g *Game) decide(ctx policy.Context, dec *components.Decision, ate int) {
	if ate > 0 {
		dec.Reward += g.policy.Reward(policy.Outcome{Ate: ate})
	}

	dec.Countdown--
	if dec.Countdown > 0 {
		return
	}
	dec.Countdown = g.interval

	state := g.policy.Observe(ctx)
	if dec.HasState {
		g.transitions = append(g.transitions, policy.Transition{
			State:  policy.State(dec.State),
			Action: policy.Action(dec.Action),
			Reward: dec.Reward,
			Next:   state,
		})
	}

	dec.State = state
	dec.Action = int(g.policy.Act(state))
	dec.Reward = 0
	dec.HasState = true
}

// updateEnemies applies the random perturbation enemies move by.
func (g *Game) updateEnemies() {
	jitterMin, jitterMax := g.cfg.Enemy.JitterMin, g.cfg.Enemy.JitterMax

	query := g.kinFilter.Query()
	for query.Next() {
		_, _, acc, _, agent := query.Get()
		if agent.Class != components.ClassEnemy {
			continue
		}
		systems.Accumulate(acc, systems.Jitter(g.rng, jitterMin, jitterMax))
	}
}

// integrate moves every agent, caps its speed, clears its acceleration and
// reflects it off the world bounds.
func (g *Game) integrate() {
	query := g.kinFilter.Query()
	for query.Next() {
		pos, vel, acc, lim, _ := query.Get()
		systems.Integrate(pos, vel, acc, *lim)
		systems.Reflect(*pos, vel, g.bounds)
	}
}

// learn hands finished transitions to the policy, including a terminal one
// for every boid that died this step.
func (g *Game) learn() {
	query := g.boidFilter.Query()
	for query.Next() {
		_, _, _, _, _, life, dec := query.Get()
		if life.Alive || !dec.HasState {
			continue
		}
		g.transitions = append(g.transitions, policy.Transition{
			State:  policy.State(dec.State),
			Action: policy.Action(dec.Action),
			Reward: dec.Reward + g.policy.Reward(policy.Outcome{Died: true}),
			Next:   policy.State(dec.State),
			Done:   true,
		})
		dec.HasState = false
	}

	for _, t := range g.transitions {
		g.policy.Learn(t)
	}
	g.transitions = g.transitions[:0]
}
