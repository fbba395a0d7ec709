// Command tune searches steering weights and radii with CMA-ES, scoring
// each candidate by how long boids survive and how much they eat in
// headless runs.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/policy"
)

// EvalRecord is one row of the evaluation log.
type EvalRecord struct {
	Eval             int     `csv:"eval"`
	Fitness          float64 `csv:"fitness"`
	Survival         float64 `csv:"survival"`
	Meals            float64 `csv:"meals"`
	AlignWeight      float64 `csv:"align_weight"`
	CohesionWeight   float64 `csv:"cohesion_weight"`
	SeparationWeight float64 `csv:"separation_weight"`
	ContactWeight    float64 `csv:"contact_weight"`
	AlignRadius      float64 `csv:"align_radius"`
	CohesionRadius   float64 `csv:"cohesion_radius"`
	SeparationRadius float64 `csv:"separation_radius"`
	BoidMaxForce     float64 `csv:"boid_max_force"`
}

func newEvalRecord(eval int, fitness, survival, meals float64, cfg *config.Config) EvalRecord {
	s := cfg.Steering
	return EvalRecord{
		Eval:             eval,
		Fitness:          fitness,
		Survival:         survival,
		Meals:            meals,
		AlignWeight:      s.AlignWeight,
		CohesionWeight:   s.CohesionWeight,
		SeparationWeight: s.SeparationWeight,
		ContactWeight:    s.ContactWeight,
		AlignRadius:      s.AlignRadius,
		CohesionRadius:   s.CohesionRadius,
		SeparationRadius: s.SeparationRadius,
		BoidMaxForce:     cfg.Boid.MaxForce,
	}
}

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	maxTicks := flag.Int("max-ticks", 6000, "Simulation length per run in ticks")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if *outputDir == "" {
		slog.Error("--output is required")
		os.Exit(2)
	}
	if err := run(*configPath, int32(*maxTicks), *seeds, *maxEvals, *population, *outputDir); err != nil {
		slog.Error("tuning failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, maxTicks int32, seeds, maxEvals, population int, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	baseCfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	// Tuning scores the steering rules; learned runs would train between evaluations
	baseCfg.Policy.Kind = policy.KindSteering

	params := NewParamVector()
	evalSeeds := make([]int64, seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, maxTicks, evalSeeds, baseCfg)

	dim := params.Dim()
	initX := params.Normalize(params.FromConfig(baseCfg))

	popSize := population
	if popSize == 0 {
		popSize = 4 + int(3*math.Log(float64(dim)))
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}
	settings := &optimize.Settings{
		FuncEvaluations: maxEvals,
		Concurrent:      0, // seeds already run in parallel
	}

	logPath := filepath.Join(outputDir, "tune_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()

	evalCount := 0
	bestFitness := math.Inf(1)
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(raw)
			evalCount++

			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = raw
			}

			survival, meals := evaluator.Last()
			cfg := evaluator.copyConfig()
			_ = params.ApplyToConfig(cfg, raw)
			rec := []EvalRecord{newEvalRecord(evalCount, fitness, survival, meals, cfg)}
			var werr error
			if evalCount == 1 {
				werr = gocsv.Marshal(rec, logFile)
			} else {
				werr = gocsv.MarshalWithoutHeaders(rec, logFile)
			}
			if werr != nil {
				slog.Warn("failed to write eval log", "error", werr)
			}

			elapsed := time.Since(startTime)
			remaining := time.Duration(maxEvals-evalCount) * (elapsed / time.Duration(evalCount))
			slog.Info("eval",
				"n", evalCount,
				"of", maxEvals,
				"fitness", fitness,
				"survival", survival,
				"meals", meals,
				"best", bestFitness,
				"elapsed", formatDuration(elapsed),
				"eta", formatDuration(remaining),
			)
			return fitness
		},
	}

	slog.Info("starting CMA-ES",
		"params", dim,
		"population", popSize,
		"max_evals", maxEvals,
		"seeds", seeds,
		"ticks", maxTicks,
	)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		slog.Info("optimization ended", "reason", err)
	}
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		return fmt.Errorf("no evaluations completed")
	}

	slog.Info("optimization complete",
		"evals", evalCount,
		"elapsed", formatDuration(time.Since(startTime)),
		"best_fitness", bestFitness,
	)
	for i, spec := range params.Specs {
		slog.Info("best parameter", "name", spec.Name, "value", bestParams[i])
	}

	bestCfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := params.ApplyToConfig(bestCfg, bestParams); err != nil {
		return fmt.Errorf("applying best parameters: %w", err)
	}
	configOutPath := filepath.Join(outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		return err
	}
	slog.Info("best config saved", "path", configOutPath)
	return nil
}
