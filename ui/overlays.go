package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayGrid        OverlayID = "grid"
	OverlayVisionLinks OverlayID = "vision_links"
	OverlayVelocity    OverlayID = "velocity"
	OverlayRadii       OverlayID = "radii"
	OverlayHistory     OverlayID = "history"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID       OverlayID
	Name     string
	Key      int32 // 0 = no key
	KeyLabel string
	Category string
	Default  bool
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	byID        map[OverlayID]OverlayDescriptor
	enabled     map[OverlayID]bool
}

// NewOverlayRegistry creates a registry with default overlays.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{
		byID:    make(map[OverlayID]OverlayDescriptor),
		enabled: make(map[OverlayID]bool),
	}
	reg.registerDefaults()
	return reg
}

func (r *OverlayRegistry) registerDefaults() {
	r.Register(OverlayDescriptor{
		ID:       OverlayGrid,
		Name:     "Grid",
		Key:      rl.KeyG,
		KeyLabel: "G",
		Category: "world",
		Default:  true,
	})
	r.Register(OverlayDescriptor{
		ID:       OverlayVisionLinks,
		Name:     "Vision Links",
		Key:      rl.KeyV,
		KeyLabel: "V",
		Category: "perception",
		Default:  true,
	})
	r.Register(OverlayDescriptor{
		ID:       OverlayRadii,
		Name:     "Steering Radii",
		Key:      rl.KeyR,
		KeyLabel: "R",
		Category: "perception",
	})
	r.Register(OverlayDescriptor{
		ID:       OverlayVelocity,
		Name:     "Velocity",
		Key:      rl.KeyA,
		KeyLabel: "A",
		Category: "debug",
		Default:  true,
	})
	r.Register(OverlayDescriptor{
		ID:       OverlayHistory,
		Name:     "Population Graph",
		Key:      rl.KeyH,
		KeyLabel: "H",
		Category: "debug",
	})
}

// Register adds an overlay to the registry.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.byID[desc.ID] = desc
	r.enabled[desc.ID] = desc.Default
}

// Toggle switches an overlay on or off and returns the new state.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	r.enabled[id] = !r.enabled[id]
	return r.enabled[id]
}

// SetEnabled explicitly sets an overlay's state.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	if _, ok := r.byID[id]; ok {
		r.enabled[id] = enabled
	}
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// All returns all registered overlays in registration order.
func (r *OverlayRegistry) All() []OverlayDescriptor {
	return r.descriptors
}

// HandleKeyPress toggles the overlay bound to key, if any.
func (r *OverlayRegistry) HandleKeyPress(key int32) (OverlayID, bool, bool) {
	for _, desc := range r.descriptors {
		if desc.Key == key {
			return desc.ID, r.Toggle(desc.ID), true
		}
	}
	return "", false, false
}
