package game

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/policy"
	"github.com/pthm-cable/shoal/systems"
)

// seed creates the configured boids, enemies and initial resources.
func (g *Game) seed() {
	cfg := g.cfg

	for i := 0; i < cfg.Boid.Count; i++ {
		g.AddBoid(g.randomPos(), r2.Vec(systems.InitialVelocity(g.rng, cfg.Boid.MinSpeed, cfg.Boid.InitSpeed)))
	}
	for i := 0; i < cfg.Enemy.Count; i++ {
		g.AddEnemy(g.randomPos(), r2.Vec(systems.InitialVelocity(g.rng, cfg.Enemy.MinSpeed, cfg.Enemy.InitSpeed)))
	}
	g.field.SpawnBatch(cfg.Resource.Initial)
}

func (g *Game) randomPos() r2.Vec {
	return r2.Vec{X: g.rng.Float64() * g.bounds.Width, Y: g.rng.Float64() * g.bounds.Height}
}

func limitsFrom(a config.AgentConfig) components.Limits {
	return components.Limits{MaxSpeed: a.MaxSpeed, MaxForce: a.MaxForce}
}

// AddBoid creates a boid immediately. Owner goroutine only, never during Advance;
// other goroutines use RequestAgent.
func (g *Game) AddBoid(pos, vel r2.Vec) ecs.Entity {
	id := g.nextID
	g.nextID++

	p := components.Position(pos)
	v := components.Velocity(vel)
	acc := components.Acceleration{}
	lim := limitsFrom(g.cfg.Boid)
	agent := components.Agent{ID: id, Class: components.ClassBoid}
	life := systems.NewLife(g.cfg.Life.Initial, g.cfg.Life.ColorInitial)
	// Stagger first decisions so boids do not all decide on the same tick
	dec := components.Decision{Action: int(policy.ActionSteer), Countdown: int(id) % g.interval}

	g.numBoids++
	return g.boidMapper.NewEntity(&p, &v, &acc, &lim, &agent, &life, &dec)
}

// AddEnemy creates an enemy immediately. Owner goroutine only.
func (g *Game) AddEnemy(pos, vel r2.Vec) ecs.Entity {
	id := g.nextID
	g.nextID++

	p := components.Position(pos)
	v := components.Velocity(vel)
	acc := components.Acceleration{}
	lim := limitsFrom(g.cfg.Enemy)
	agent := components.Agent{ID: id, Class: components.ClassEnemy}

	g.numEnemies++
	return g.enemyMapper.NewEntity(&p, &v, &acc, &lim, &agent)
}

// applyDecay runs one decay tick over every boid. Boids reaching zero are
// marked dead and removed by cleanupDead at the end of the step.
func (g *Game) applyDecay() {
	query := g.boidFilter.Query()
	for query.Next() {
		_, _, _, _, _, life, _ := query.Get()
		systems.Decay(life, g.life)
	}
	g.collector.RecordDecay()
}

// cleanupDead removes dead boids.
func (g *Game) cleanupDead() {
	// Collect first; the world is locked while a query is open
	var toRemove []ecs.Entity

	query := g.boidFilter.Query()
	for query.Next() {
		_, _, _, _, _, life, _ := query.Get()
		if !life.Alive {
			toRemove = append(toRemove, query.Entity())
		}
	}

	for _, e := range toRemove {
		g.world.RemoveEntity(e)
		g.numBoids--
		g.frameDied++
		g.totalDied++
		g.collector.RecordDeath()
	}
}

// AddResource places a resource point immediately. Owner goroutine only.
func (g *Game) AddResource(pos r2.Vec) systems.ResourcePoint {
	return g.field.Add(pos)
}
