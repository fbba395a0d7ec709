package policy

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/neural"
	"github.com/pthm-cable/shoal/systems"
)

// stubModel returns fixed Q values and records fit targets.
type stubModel struct {
	q       []float64
	err     error
	release chan struct{}
	rec     *fitRecorder
}

type fitRecorder struct {
	mu      sync.Mutex
	targets [][]float64
}

func (m *stubModel) Predict([]float64) []float64 { return append([]float64(nil), m.q...) }

func (m *stubModel) Fit(_, target []float64, _ float64) error {
	if m.release != nil {
		<-m.release
	}
	if m.rec != nil {
		m.rec.mu.Lock()
		m.rec.targets = append(m.rec.targets, append([]float64(nil), target...))
		m.rec.mu.Unlock()
	}
	if m.err != nil {
		return m.err
	}
	m.q = target
	return nil
}

func (m *stubModel) Clone() Model {
	c := *m
	c.q = append([]float64(nil), m.q...)
	return &c
}

func testCtx() Context {
	return Context{
		Body:   systems.Body{ID: 1, Pos: r2.Vec{X: 600, Y: 150}, Vel: r2.Vec{X: 3, Y: -6}, MaxSpeed: 6, MaxForce: 0.5},
		Bounds: systems.Bounds{Width: 1200, Height: 600},
	}
}

func TestObserve_Normalized(t *testing.T) {
	ctx := testCtx()
	s := Observe(ctx)

	want := State{0.5, 0.25, 0.5, -1, 1}
	for i := range want {
		if math.Abs(s[i]-want[i]) > 1e-9 {
			t.Errorf("state[%d]: expected %f, got %f", i, want[i], s[i])
		}
	}

	ctx.HasTarget = true
	ctx.Distance = math.Hypot(1200, 600) / 4
	if s := Observe(ctx); math.Abs(s[4]-0.25) > 1e-9 {
		t.Errorf("expected normalized distance 0.25, got %f", s[4])
	}
}

func TestReward(t *testing.T) {
	tests := []struct {
		o    Outcome
		want float64
	}{
		{Outcome{}, 0},
		{Outcome{Ate: 1}, 1},
		{Outcome{Ate: 2}, 2},
		{Outcome{Died: true}, -1},
		{Outcome{Ate: 1, Died: true}, 0},
	}
	for _, tt := range tests {
		if got := Reward(tt.o); got != tt.want {
			t.Errorf("Reward(%+v): expected %f, got %f", tt.o, tt.want, got)
		}
	}
}

func TestSteeringPolicy(t *testing.T) {
	var p Policy = SteeringPolicy{}
	ctx := testCtx()

	if a := p.Act(p.Observe(ctx)); a != ActionSteer {
		t.Errorf("expected ActionSteer, got %v", a)
	}
	if f := p.Apply(ctx, ActionSteer); f != (r2.Vec{}) {
		t.Errorf("expected zero force without a target, got %v", f)
	}

	ctx.HasTarget = true
	ctx.Target = r2.Vec{X: 700, Y: 150}
	f := p.Apply(ctx, ActionSteer)
	if r2.Norm(f) == 0 || r2.Norm(f) > ctx.Body.MaxForce+1e-9 {
		t.Errorf("expected seek force in (0, maxForce], got %v", f)
	}
	p.Learn(Transition{}) // no-op
}

func TestLearnedPolicy_ActGreedy(t *testing.T) {
	m := &stubModel{q: []float64{0, 0, 5, 1}}
	p := NewLearnedPolicy(m, rand.New(rand.NewSource(42)), LearnedConfig{Push: 0.5}, nil)

	for i := 0; i < 20; i++ {
		if a := p.Act(State{}); a != ActionPushPosY {
			t.Fatalf("expected greedy +y, got %v", a)
		}
	}
}

func TestLearnedPolicy_ActExplores(t *testing.T) {
	m := &stubModel{q: []float64{9, 0, 0, 0}}
	p := NewLearnedPolicy(m, rand.New(rand.NewSource(42)), LearnedConfig{Epsilon: 1}, nil)

	seen := map[Action]bool{}
	for i := 0; i < 200; i++ {
		seen[p.Act(State{})] = true
	}
	if len(seen) != NumActions {
		t.Errorf("expected all %d actions explored, saw %v", NumActions, seen)
	}
}

func TestLearnedPolicy_Apply(t *testing.T) {
	p := NewLearnedPolicy(&stubModel{q: make([]float64, 4)}, rand.New(rand.NewSource(42)), LearnedConfig{Push: 0.5}, nil)

	tests := []struct {
		a    Action
		want r2.Vec
	}{
		{ActionPushPosX, r2.Vec{X: 0.5}},
		{ActionPushNegX, r2.Vec{X: -0.5}},
		{ActionPushPosY, r2.Vec{Y: 0.5}},
		{ActionPushNegY, r2.Vec{Y: -0.5}},
		{ActionSteer, r2.Vec{}},
	}
	for _, tt := range tests {
		if got := p.Apply(testCtx(), tt.a); got != tt.want {
			t.Errorf("Apply(%v): expected %v, got %v", tt.a, tt.want, got)
		}
	}
}

func TestLearnedPolicy_LearnTarget(t *testing.T) {
	rec := &fitRecorder{}
	m := &stubModel{q: []float64{1, 2, 3, 4}, rec: rec}
	p := NewLearnedPolicy(m, rand.New(rand.NewSource(42)), LearnedConfig{Gamma: 0.5}, nil)

	p.Learn(Transition{Action: ActionPushNegX, Reward: 1})
	p.Wait()
	p.Learn(Transition{Action: ActionPushPosX, Reward: -1, Done: true})
	p.Wait()

	if len(rec.targets) != 2 {
		t.Fatalf("expected 2 fits, got %d", len(rec.targets))
	}
	// 1 + 0.5*max(1,2,3,4) overwrites only index 1
	if want := []float64{1, 3, 3, 4}; !equal(rec.targets[0], want) {
		t.Errorf("expected target %v, got %v", want, rec.targets[0])
	}
	// terminal: reward only, computed against the published fit above
	if want := []float64{-1, 3, 3, 4}; !equal(rec.targets[1], want) {
		t.Errorf("expected terminal target %v, got %v", want, rec.targets[1])
	}
	if s := p.TrainStats(); s.Fits != 2 || s.Dropped != 0 || s.Failed != 0 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestLearnedPolicy_DropsWhileBusy(t *testing.T) {
	release := make(chan struct{})
	m := &stubModel{q: make([]float64, 4), release: release}
	p := NewLearnedPolicy(m, rand.New(rand.NewSource(42)), LearnedConfig{}, nil)

	p.Learn(Transition{Action: ActionPushPosX, Reward: 1})
	if !p.Training() {
		t.Fatal("expected a fit in flight")
	}
	p.Learn(Transition{Action: ActionPushPosY, Reward: 1})
	p.Learn(Transition{Action: ActionPushPosY, Reward: 1})

	close(release)
	p.Wait()

	s := p.TrainStats()
	if s.Fits != 1 || s.Dropped != 2 {
		t.Errorf("expected 1 fit and 2 dropped, got %+v", s)
	}
	if p.Training() {
		t.Error("expected flag cleared after fit")
	}
}

func TestLearnedPolicy_FailedFitForgotten(t *testing.T) {
	m := &stubModel{q: []float64{1, 1, 1, 1}, err: neural.ErrDiverged}
	p := NewLearnedPolicy(m, rand.New(rand.NewSource(42)), LearnedConfig{}, nil)

	p.Learn(Transition{Action: ActionPushPosX, Reward: 10})
	p.Wait()

	if s := p.TrainStats(); s.Failed != 1 || s.Fits != 0 {
		t.Errorf("expected one failed fit, got %+v", s)
	}
	if p.Model() != Model(m) {
		t.Error("failed fit must not replace the published model")
	}
	if p.Training() {
		t.Error("expected flag cleared after failure")
	}

	// Next request is accepted
	p.Learn(Transition{Action: ActionPushPosX})
	p.Wait()
	if s := p.TrainStats(); s.Failed != 2 || s.Dropped != 0 {
		t.Errorf("expected retry to run, got %+v", s)
	}
}

func TestLearnedPolicy_IgnoresSteerAction(t *testing.T) {
	p := NewLearnedPolicy(&stubModel{q: make([]float64, 4)}, rand.New(rand.NewSource(42)), LearnedConfig{}, nil)
	p.Learn(Transition{Action: ActionSteer, Reward: 1})
	p.Wait()
	if s := p.TrainStats(); s != (TrainStats{}) {
		t.Errorf("expected no training for steer action, got %+v", s)
	}
}

type memWeights struct {
	mu      sync.Mutex
	w       map[string]neural.Weights
	loadErr error
	saves   int
}

func (s *memWeights) LoadWeights(_ context.Context, name string) (neural.Weights, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return neural.Weights{}, false, s.loadErr
	}
	w, ok := s.w[name]
	return w, ok, nil
}

func (s *memWeights) SaveWeights(_ context.Context, name string, w neural.Weights) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == nil {
		s.w = map[string]neural.Weights{}
	}
	s.w[name] = w
	s.saves++
	return nil
}

func TestLoadOrCreate(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	fresh, err := LoadOrCreate(ctx, nil, "boid-q", rng, nil)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if got := fresh.Sizes(); !equalInts(got, []int{5, 24, 24, 4}) {
		t.Errorf("expected default architecture 5-24-24-4, got %v", got)
	}

	store := &memWeights{}
	_ = store.SaveWeights(ctx, "boid-q", fresh.Weights())
	loaded, err := LoadOrCreate(ctx, store, "boid-q", rng, nil)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	x := []float64{0.1, 0.2, 0.3, 0.4, 0.5}
	if !equal(loaded.Predict(x), fresh.Predict(x)) {
		t.Error("expected stored weights to be loaded")
	}

	// Wrong shape is replaced with a fresh network
	small, _ := neural.NewFFNN(rng, 5, 3, 4)
	_ = store.SaveWeights(ctx, "small", small.MarshalWeights())
	m, err := LoadOrCreate(ctx, store, "small", rng, nil)
	if err != nil || !equalInts(m.Sizes(), []int{5, 24, 24, 4}) {
		t.Errorf("expected fresh network for mismatched shape, got %v (%v)", m.Sizes(), err)
	}

	// Load failure falls back silently
	store.loadErr = errors.New("disk gone")
	if _, err := LoadOrCreate(ctx, store, "boid-q", rng, nil); err != nil {
		t.Errorf("load failure must not be returned, got %v", err)
	}
}

func TestLearnedPolicy_SavesAfterFit(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	model, _ := LoadOrCreate(context.Background(), nil, "q", rng, []int{8})
	store := &memWeights{}
	p := NewLearnedPolicy(model, rng, LearnedConfig{Name: "q", Gamma: 0.9, LearningRate: 0.01}, store)

	p.Learn(Transition{Action: ActionPushNegY, Reward: 1, Next: State{0.1, 0.1, 0, 0, 0.5}})
	p.Wait()

	if store.saves != 1 {
		t.Fatalf("expected 1 save, got %d", store.saves)
	}
	if _, ok := store.w["q"]; !ok {
		t.Error("expected weights saved under policy name")
	}
	if p.Model() == Model(model) {
		t.Error("expected a new model to be published")
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	rng := rand.New(rand.NewSource(42))

	p, err := FromConfig(context.Background(), cfg, nil, rng)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if _, ok := p.(SteeringPolicy); !ok {
		t.Errorf("expected SteeringPolicy for default config, got %T", p)
	}

	cfg.Policy.Kind = KindLearned
	p, err = FromConfig(context.Background(), cfg, nil, rng)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if _, ok := p.(*LearnedPolicy); !ok {
		t.Errorf("expected *LearnedPolicy, got %T", p)
	}

	cfg.Policy.Kind = "oracle"
	if _, err := FromConfig(context.Background(), cfg, nil, rng); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("expected ErrInvalid for unknown kind, got %v", err)
	}
}

func BenchmarkLearnedAct(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	model, _ := LoadOrCreate(context.Background(), nil, "q", rng, nil)
	p := NewLearnedPolicy(model, rng, LearnedConfig{Epsilon: 0.1}, nil)
	s := State{0.5, 0.5, 0.1, -0.2, 0.3}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = p.Act(s)
	}
}

func equal(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
