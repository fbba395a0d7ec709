package main

import (
	"github.com/pthm-cable/shoal/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name string
	Min  float64
	Max  float64

	get func(*config.Config) float64
	set func(*config.Config, float64)
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of steering parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{
				Name: "align_weight", Min: 0, Max: 3,
				get: func(c *config.Config) float64 { return c.Steering.AlignWeight },
				set: func(c *config.Config, v float64) { c.Steering.AlignWeight = v },
			},
			{
				Name: "cohesion_weight", Min: 0, Max: 3,
				get: func(c *config.Config) float64 { return c.Steering.CohesionWeight },
				set: func(c *config.Config, v float64) { c.Steering.CohesionWeight = v },
			},
			{
				Name: "separation_weight", Min: 0, Max: 3,
				get: func(c *config.Config) float64 { return c.Steering.SeparationWeight },
				set: func(c *config.Config, v float64) { c.Steering.SeparationWeight = v },
			},
			{
				Name: "contact_weight", Min: 0, Max: 3,
				get: func(c *config.Config) float64 { return c.Steering.ContactWeight },
				set: func(c *config.Config, v float64) { c.Steering.ContactWeight = v },
			},
			{
				Name: "align_radius", Min: 20, Max: 200,
				get: func(c *config.Config) float64 { return c.Steering.AlignRadius },
				set: func(c *config.Config, v float64) { c.Steering.AlignRadius = v },
			},
			{
				Name: "cohesion_radius", Min: 20, Max: 200,
				get: func(c *config.Config) float64 { return c.Steering.CohesionRadius },
				set: func(c *config.Config, v float64) { c.Steering.CohesionRadius = v },
			},
			{
				Name: "separation_radius", Min: 10, Max: 100,
				get: func(c *config.Config) float64 { return c.Steering.SeparationRadius },
				set: func(c *config.Config, v float64) { c.Steering.SeparationRadius = v },
			},
			{
				Name: "boid_max_force", Min: 0.05, Max: 2,
				get: func(c *config.Config) float64 { return c.Boid.MaxForce },
				set: func(c *config.Config, v float64) { c.Boid.MaxForce = v },
			},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// FromConfig reads the current parameter values from cfg.
func (pv *ParamVector) FromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.get(cfg)
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped values into cfg and refreshes its derived values.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	for i, v := range pv.Clamp(values) {
		pv.Specs[i].set(cfg, v)
	}
	return cfg.Refresh()
}
