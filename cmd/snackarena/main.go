package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/snackarena/server/internal/broadcast"
	"github.com/snackarena/server/internal/config"
	coresys "github.com/snackarena/server/internal/core/system"
	"github.com/snackarena/server/internal/data"
	"github.com/snackarena/server/internal/handler"
	"github.com/snackarena/server/internal/lobby"
	"github.com/snackarena/server/internal/persist"
	"github.com/snackarena/server/internal/scripting"
	"github.com/snackarena/server/internal/system"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func printBanner(serverName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            snackarena  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s\n\n", serverName)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := strconv.Itoa(count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

func run() error {
	// 1. Load config
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Optional leaderboard database
	var (
		db      *persist.DB
		results lobby.ResultRecorder = lobby.NopRecorder{}
		board   *persist.ResultRepo
	)
	if cfg.Database.DSN != "" {
		printSection("database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err = persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			cancel()
			return fmt.Errorf("database: %w", err)
		}
		version, err := persist.RunMigrations(ctx, db.Pool)
		cancel()
		if err != nil {
			db.Close()
			return fmt.Errorf("migrations: %w", err)
		}
		board = persist.NewResultRepo(db)
		results = board
		printOK("PostgreSQL connected")
		printOK(fmt.Sprintf("schema at version %d", version))
		fmt.Println()
	}

	// 4. Load data and scripts
	printSection("data")
	maps, err := data.LoadMapTable(cfg.Game.MapFile)
	if err != nil {
		return fmt.Errorf("load maps: %w", err)
	}
	printStat("maps", maps.Count())
	if _, ok := maps.Rows(cfg.Game.DefaultMap); !ok {
		return fmt.Errorf("default map %q not found in %s", cfg.Game.DefaultMap, cfg.Game.MapFile)
	}
	engine, err := scripting.NewEngine(cfg.Scripts.Dir, log)
	if err != nil {
		return fmt.Errorf("load scripts: %w", err)
	}
	engine.SetCallLimit(cfg.Scripts.CallLimit)
	printStat("herbivore scripts", len(engine.HerbivoreScripts()))
	printStat("predator scripts", len(engine.PredatorScripts()))
	fmt.Println()

	// 5. Lobbies, transport and systems
	settings := lobby.DefaultSettings()
	settings.RoundDuration = cfg.Game.RoundDuration
	settings.PlayersPerRound = cfg.Game.PlayersPerRound
	settings.MinMembers = cfg.Game.MinMembers
	settings.ItemRate = cfg.Game.ItemRate
	settings.AgentDelay = cfg.Game.AgentDelay
	settings.DefaultMap = cfg.Game.DefaultMap
	settings.EasyScript = cfg.Scripts.EasyPredator
	settings.DifficultScript = cfg.Scripts.DifficultPredator
	lobbies := lobby.NewManager(settings, engine, maps, log)

	codec, err := broadcast.NewCodec(cfg.Broadcast.Encoding)
	if err != nil {
		return err
	}
	hub := broadcast.NewWSHub(codec, cfg.Broadcast.WriteTimeout, log)
	hub.Allow = func(id string) bool {
		_, err := lobbies.Lobby(id)
		return err == nil
	}

	deps := &handler.Deps{Lobbies: lobbies, Log: log}
	reg := handler.NewRegistry(log)
	handler.RegisterAll(reg, deps)

	aggregate := system.NewAggregateSystem(lobbies, hub, results, settings.Rules.MessageEnergy, log)
	runner := coresys.NewRunner()
	runner.Register(system.NewPhysicsSystem(lobbies))
	runner.Register(system.NewItemRespawnSystem(lobbies, cfg.Game.ItemRespawnInterval, cfg.Game.ItemRespawnChance,
		rand.New(rand.NewSource(time.Now().UnixNano())), log))
	runner.Register(aggregate)

	mux := http.NewServeMux()
	mux.Handle(cfg.Broadcast.Path, hub)
	mux.Handle("/play", handler.NewServer(reg, deps, cfg.Broadcast.WriteTimeout))
	mux.HandleFunc("/leaderboard", leaderboardHandler(board, log))
	httpSrv := &http.Server{
		Addr:              cfg.Server.BindAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// 6. Start game loop
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loopDone := make(chan struct{})
	go func() {
		runner.Run(ctx, cfg.Server.TickRate)
		close(loopDone)
	}()
	serveErr := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	printSection("ready")
	printReady(fmt.Sprintf("listening on %s", cfg.Server.BindAddress))
	printReady(fmt.Sprintf("game loop running (tick: %s)", cfg.Server.TickRate))
	fmt.Println()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serveErr:
		runErr = fmt.Errorf("http server: %w", err)
		stop()
	}
	<-loopDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	runErr = multierr.Append(runErr, httpSrv.Shutdown(shutdownCtx))
	open := lobbies.Lobbies()
	for _, l := range open {
		lobbies.Finalize(l.ID)
	}
	for _, l := range open {
		select {
		case <-l.Done():
		case <-shutdownCtx.Done():
			log.Warn("lobby agents still running at shutdown", zap.String("lobby", l.ID))
		}
	}
	runErr = multierr.Append(runErr, hub.Close())
	aggregate.Wait()
	if db != nil {
		db.Close()
	}
	log.Info("server stopped")
	return runErr
}

func leaderboardHandler(board *persist.ResultRepo, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if board == nil {
			http.Error(w, "leaderboard disabled", http.StatusNotFound)
			return
		}
		n, err := strconv.Atoi(r.URL.Query().Get("n"))
		if err != nil || n <= 0 || n > 100 {
			n = 10
		}
		rows, err := board.Top(r.Context(), n)
		if err != nil {
			log.Error("leaderboard query", zap.Error(err))
			http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(rows); err != nil {
			log.Debug("leaderboard write", zap.Error(err))
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
