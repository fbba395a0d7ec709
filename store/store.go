// Package store persists learned policy weights and run summaries.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pthm-cable/shoal/neural"
)

// ErrNotInitialized is returned by stores used before Init.
var ErrNotInitialized = errors.New("store is not initialized")

// CodecVersion tags every encoded weights payload.
const CodecVersion = 1

// Store holds named weight sets and run summaries.
type Store interface {
	Init(ctx context.Context) error
	SaveWeights(ctx context.Context, name string, w neural.Weights) error
	LoadWeights(ctx context.Context, name string) (neural.Weights, bool, error)
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	Close() error
}

// Run summarizes one simulation run.
type Run struct {
	ID        string    `json:"id"`
	Policy    string    `json:"policy"`
	Seed      int64     `json:"seed"`
	StartedAt time.Time `json:"started_at"`
	Ticks     int32     `json:"ticks"`
	Eaten     int       `json:"eaten"`
	Deaths    int       `json:"deaths"`
	Survivors int       `json:"survivors"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Open returns a memory store for an empty path and a sqlite store otherwise.
// The store is initialized before it is returned.
func Open(ctx context.Context, path string) (Store, error) {
	var s Store
	if path == "" {
		s = NewMemoryStore()
	} else {
		s = NewSQLiteStore(path)
	}
	if err := s.Init(ctx); err != nil {
		return nil, fmt.Errorf("opening store %q: %w", path, err)
	}
	return s, nil
}

type weightsEnvelope struct {
	CodecVersion int            `json:"codec_version"`
	Weights      neural.Weights `json:"weights"`
}

// EncodeWeights serializes weights with the current codec version.
func EncodeWeights(w neural.Weights) ([]byte, error) {
	return json.Marshal(weightsEnvelope{CodecVersion: CodecVersion, Weights: w})
}

// DecodeWeights parses a payload written by EncodeWeights.
func DecodeWeights(data []byte) (neural.Weights, error) {
	var env weightsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return neural.Weights{}, err
	}
	if env.CodecVersion != CodecVersion {
		return neural.Weights{}, fmt.Errorf("unsupported codec version %d", env.CodecVersion)
	}
	return env.Weights, nil
}
