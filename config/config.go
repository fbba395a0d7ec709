// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

//go:embed schema.json
var schemaJSON string

// ErrInvalid is wrapped by every configuration validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen" json:"screen"`
	World     WorldConfig     `yaml:"world" json:"world"`
	Grid      GridConfig      `yaml:"grid" json:"grid"`
	Boid      AgentConfig     `yaml:"boid" json:"boid"`
	Enemy     AgentConfig     `yaml:"enemy" json:"enemy"`
	Steering  SteeringConfig  `yaml:"steering" json:"steering"`
	Resource  ResourceConfig  `yaml:"resource" json:"resource"`
	Life      LifeConfig      `yaml:"life" json:"life"`
	Policy    PolicyConfig    `yaml:"policy" json:"policy"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
	Stream    StreamConfig    `yaml:"stream" json:"stream"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-" json:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width" json:"width"`
	Height    int `yaml:"height" json:"height"`
	TargetFPS int `yaml:"target_fps" json:"target_fps"`
}

// WorldConfig holds simulation world dimensions.
type WorldConfig struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// GridConfig holds spatial index parameters.
type GridConfig struct {
	CellSize float64 `yaml:"cell_size" json:"cell_size"`
}

// AgentConfig holds per-class kinematics and population.
type AgentConfig struct {
	Count     int     `yaml:"count" json:"count"`
	MaxSpeed  float64 `yaml:"max_speed" json:"max_speed"`
	MaxForce  float64 `yaml:"max_force" json:"max_force"`
	MinSpeed  float64 `yaml:"min_speed" json:"min_speed"`   // initial speed lower bound
	InitSpeed float64 `yaml:"init_speed" json:"init_speed"` // initial speed upper bound
	JitterMin float64 `yaml:"jitter_min" json:"jitter_min"` // per-frame random perturbation
	JitterMax float64 `yaml:"jitter_max" json:"jitter_max"`
}

// SteeringConfig holds perception radii and flocking weights.
type SteeringConfig struct {
	AlignRadius      float64 `yaml:"align_radius" json:"align_radius"`
	CohesionRadius   float64 `yaml:"cohesion_radius" json:"cohesion_radius"`
	SeparationRadius float64 `yaml:"separation_radius" json:"separation_radius"`
	ContactRadius    float64 `yaml:"contact_radius" json:"contact_radius"`
	AlignWeight      float64 `yaml:"align_weight" json:"align_weight"`
	CohesionWeight   float64 `yaml:"cohesion_weight" json:"cohesion_weight"`
	SeparationWeight float64 `yaml:"separation_weight" json:"separation_weight"`
	ContactWeight    float64 `yaml:"contact_weight" json:"contact_weight"`
}

// ResourceConfig holds food point parameters.
type ResourceConfig struct {
	Initial       int     `yaml:"initial" json:"initial"`
	SpawnCount    int     `yaml:"spawn_count" json:"spawn_count"`
	SpawnInterval float64 `yaml:"spawn_interval" json:"spawn_interval"` // seconds, host cadence
	ConsumeRadius float64 `yaml:"consume_radius" json:"consume_radius"`
}

// LifeConfig holds boid life and color parameters.
type LifeConfig struct {
	Initial       int     `yaml:"initial" json:"initial"`
	DecayAmount   int     `yaml:"decay_amount" json:"decay_amount"`
	DecayInterval float64 `yaml:"decay_interval" json:"decay_interval"` // seconds, host cadence
	EatGain       int     `yaml:"eat_gain" json:"eat_gain"`
	ColorInitial  float64 `yaml:"color_initial" json:"color_initial"`
	ColorCap      float64 `yaml:"color_cap" json:"color_cap"`
	ColorGain     float64 `yaml:"color_gain" json:"color_gain"`
	ColorDecay    float64 `yaml:"color_decay" json:"color_decay"`
}

// PolicyConfig holds decision policy parameters.
type PolicyConfig struct {
	Kind             string  `yaml:"kind" json:"kind"` // "steering" or "learned"
	DecisionInterval int     `yaml:"decision_interval" json:"decision_interval"`
	Push             float64 `yaml:"push" json:"push"`
	Epsilon          float64 `yaml:"epsilon" json:"epsilon"`
	Gamma            float64 `yaml:"gamma" json:"gamma"`
	LearningRate     float64 `yaml:"learning_rate" json:"learning_rate"`
	HiddenLayers     []int   `yaml:"hidden_layers" json:"hidden_layers"`
	StorePath        string  `yaml:"store_path" json:"store_path"`
	Name             string  `yaml:"name" json:"name"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window" json:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window" json:"perf_collector_window"`
}

// StreamConfig holds websocket observer parameters.
type StreamConfig struct {
	Addr  string `yaml:"addr" json:"addr"`
	Every int    `yaml:"every" json:"every"` // broadcast every N frames

	// Limits on requests from observers
	MaxSpawn          int     `yaml:"max_spawn" json:"max_spawn"` // points per spawn request
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	RequestBurst      int     `yaml:"request_burst" json:"request_burst"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	FrameDT     float64 // 1 / Screen.TargetFPS
	GridCols    int
	GridRows    int
	MaxNeighbor float64 // largest steering perception radius
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.computeDerived()

	return cfg, nil
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString("schema.json", schemaJSON)
})

// Validate checks the merged config against the embedded JSON schema and
// the cross-field rules the schema cannot express.
func (c *Config) Validate() error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}

	// The validator wants plain JSON values, so round-trip the struct.
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if c.Grid.CellSize <= 0 {
		return fmt.Errorf("%w: grid.cell_size must be > 0, got %g", ErrInvalid, c.Grid.CellSize)
	}
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("%w: world dimensions must be > 0, got %gx%g", ErrInvalid, c.World.Width, c.World.Height)
	}
	if c.Boid.MinSpeed > c.Boid.InitSpeed || c.Enemy.MinSpeed > c.Enemy.InitSpeed {
		return fmt.Errorf("%w: min_speed exceeds init_speed", ErrInvalid)
	}
	if c.Boid.JitterMin > c.Boid.JitterMax || c.Enemy.JitterMin > c.Enemy.JitterMax {
		return fmt.Errorf("%w: jitter_min exceeds jitter_max", ErrInvalid)
	}
	return nil
}

// Refresh re-validates c and recomputes derived values after fields were
// changed in code.
func (c *Config) Refresh() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	if c.Screen.TargetFPS > 0 {
		c.Derived.FrameDT = 1.0 / float64(c.Screen.TargetFPS)
	} else {
		c.Derived.FrameDT = 1.0 / 60.0
	}
	c.Derived.GridCols = int(c.World.Width/c.Grid.CellSize) + 1
	c.Derived.GridRows = int(c.World.Height/c.Grid.CellSize) + 1

	s := c.Steering
	c.Derived.MaxNeighbor = max(s.AlignRadius, s.CohesionRadius, s.SeparationRadius, s.ContactRadius)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
