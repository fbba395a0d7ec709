package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/game"
	"github.com/pthm-cable/shoal/store"
	"github.com/pthm-cable/shoal/stream"
	"github.com/pthm-cable/shoal/telemetry"
	"github.com/pthm-cable/shoal/viewer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per window frame")
	policyKind := flag.String("policy", "", "Decision policy: steering or learned (empty = use config)")
	weightsPath := flag.String("weights", "", "SQLite file for learned weights and run summaries (empty = use config)")
	serveAddr := flag.String("serve", "", "Serve frames over websocket at this address, e.g. :8080 (empty = use config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(runArgs{
		configPath:     *configPath,
		headless:       *headless,
		logStats:       *logStats,
		outputDir:      *outputDir,
		seed:           *seed,
		maxTicks:       *maxTicks,
		stepsPerUpdate: *stepsPerUpdate,
		policyKind:     *policyKind,
		weightsPath:    *weightsPath,
		serveAddr:      *serveAddr,
	}); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

type runArgs struct {
	configPath     string
	headless       bool
	logStats       bool
	outputDir      string
	seed           int64
	maxTicks       int
	stepsPerUpdate int
	policyKind     string
	weightsPath    string
	serveAddr      string
}

func run(args runArgs) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize config before anything else
	if err := config.Init(args.configPath); err != nil {
		return err
	}
	cfg := config.Cfg()
	if args.policyKind != "" {
		cfg.Policy.Kind = args.policyKind
	}
	if args.weightsPath != "" {
		cfg.Policy.StorePath = args.weightsPath
	}
	if args.serveAddr != "" {
		cfg.Stream.Addr = args.serveAddr
	}
	if err := cfg.Refresh(); err != nil {
		return err
	}

	rngSeed := args.seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	st, err := store.Open(ctx, cfg.Policy.StorePath)
	if err != nil {
		return err
	}
	defer st.Close()

	runID := store.NewRunID()
	started := time.Now()

	// The viewer is created after the game, so stats are forwarded late-bound
	var onStats func(telemetry.WindowStats)
	g, err := game.NewGame(cfg, game.Options{
		Seed:      rngSeed,
		RunID:     runID,
		LogStats:  args.logStats,
		OutputDir: args.outputDir,
		Store:     st,
		OnStats: func(s telemetry.WindowStats) {
			if onStats != nil {
				onStats(s)
			}
		},
	})
	if err != nil {
		return err
	}
	driver := game.NewDriver(g)

	onFrame, stopStream := serveStream(ctx, cfg, g)
	defer stopStream()

	slog.Info("starting simulation",
		"run_id", runID,
		"seed", rngSeed,
		"policy", cfg.Policy.Kind,
		"headless", args.headless,
		"max_ticks", args.maxTicks,
	)

	if args.headless {
		runHeadless(ctx, driver, args.maxTicks, onFrame)
	} else {
		rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Shoal")
		rl.SetWindowState(rl.FlagWindowResizable)
		rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

		v := viewer.New(driver, viewer.Options{
			Title:    "Shoal",
			MaxTicks: args.maxTicks,
			Steps:    args.stepsPerUpdate,
			OnFrame:  onFrame,
		})
		onStats = v.RecordStats
		v.Run()
		rl.CloseWindow()
	}

	if err := g.Close(); err != nil {
		slog.Error("failed to close telemetry output", "error", err)
	}

	eaten, died := g.Totals()
	summary := store.Run{
		ID:        runID,
		Policy:    cfg.Policy.Kind,
		Seed:      rngSeed,
		StartedAt: started,
		Ticks:     g.Tick(),
		Eaten:     eaten,
		Deaths:    died,
		Survivors: g.BoidCount(),
	}
	// The signal context may already be cancelled here
	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := st.SaveRun(saveCtx, summary); err != nil {
		return err
	}
	slog.Info("run finished", "run", summary)
	return nil
}

func runHeadless(ctx context.Context, driver *game.Driver, maxTicks int, onFrame func(game.FrameResult)) {
	for ctx.Err() == nil {
		frame := driver.Step()
		if onFrame != nil {
			onFrame(frame)
		}

		if maxTicks > 0 && int(frame.Tick) >= maxTicks {
			slog.Info("max ticks reached", "tick", frame.Tick)
			return
		}
	}
	slog.Info("interrupted", "tick", driver.Game.Tick())
}

// serveStream starts the websocket hub when an address is configured. It
// returns the per-frame hook (nil when disabled) and a shutdown func.
func serveStream(ctx context.Context, cfg *config.Config, g *game.Game) (func(game.FrameResult), func()) {
	if cfg.Stream.Addr == "" {
		return nil, func() {}
	}

	hub := stream.NewHub(g, cfg.World.Width, cfg.World.Height, stream.Limits{
		MaxSpawn:          cfg.Stream.MaxSpawn,
		RequestsPerSecond: cfg.Stream.RequestsPerSecond,
		RequestBurst:      cfg.Stream.RequestBurst,
	})
	hubCtx, cancel := context.WithCancel(ctx)
	go hub.Run(hubCtx)

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	srv := &http.Server{Addr: cfg.Stream.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("stream server failed", "error", err)
		}
	}()
	slog.Info("streaming frames", "addr", cfg.Stream.Addr, "every", cfg.Stream.Every)

	every := max(cfg.Stream.Every, 1)
	n := 0
	onFrame := func(f game.FrameResult) {
		n++
		if n%every == 0 {
			hub.Broadcast(f)
		}
	}
	shutdown := func() {
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		_ = srv.Shutdown(shutdownCtx)
	}
	return onFrame, shutdown
}
