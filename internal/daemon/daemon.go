package daemon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mmss-network/mmss/internal/api"
	"github.com/mmss-network/mmss/internal/app/emergence"
	"github.com/mmss-network/mmss/internal/app/processor"
	"github.com/mmss-network/mmss/internal/app/ruleengine"
	"github.com/mmss-network/mmss/internal/domain"
	"github.com/mmss-network/mmss/internal/health"
	"github.com/mmss-network/mmss/internal/infra/llm"
	_ "github.com/mmss-network/mmss/internal/infra/metrics" // Register Prometheus metrics
	"github.com/mmss-network/mmss/internal/infra/sqlite"
)

// Daemon is the core MMSS runtime. It wires together all services.
type Daemon struct {
	Config    Config
	DB        *sqlite.DB // nil when persistence is disabled
	Processor *processor.Processor
	Rules     *ruleengine.Engine
	Gateway   *llm.Gateway // nil when no API key is configured
	Health    *health.Checker
	Server    *api.Server
	cancel    context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	d := &Daemon{Config: cfg}

	// Persistence gateway: SQLite when enabled, otherwise the disabled
	// store (loads report no data, writes report unsupported).
	var store processor.Store = sqlite.Disabled{}
	if cfg.Storage.Persist {
		dir := cfg.Storage.Dir
		if dir == "" {
			dir = mmssHome()
		}
		db, err := sqlite.Open(dir)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		d.DB = db
		store = db
	}

	// Emergence engine and task processor
	proc := processor.New(emergence.NewLogic())
	proc.SetStore(store)
	if delay := parseDuration(cfg.Engine.ExecutionDelay, processor.DefaultExecutionDelay); delay > 0 {
		proc.SetExecutionDelay(delay)
	}

	// Resume from the last persisted snapshot, if any. Best-effort: a
	// missing or unreadable snapshot leaves the baseline in place.
	if last, err := store.LoadLatestMetrics(); err != nil {
		log.Printf("[daemon] restore metrics: %v", err)
	} else if last != nil {
		proc.RestoreMetrics(*last)
		log.Printf("[daemon] restored metrics snapshot (v_geometric=%g)", last.VGeometric)
	}
	d.Processor = proc

	// Derived-metric rule engine
	d.Rules = ruleengine.NewEngine()

	// Background health checker
	var pinger health.Pinger
	if d.DB != nil {
		pinger = d.DB
	}
	d.Health = health.NewChecker(proc, pinger, cfg.Storage.Dir)

	// API server
	srv := api.NewServer(proc, d.Rules)
	srv.SetHealthChecker(d.Health)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	// LLM query gateway; absent credentials just disable /api/query
	gw, err := llm.NewGateway(llm.Config{
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		Endpoint: cfg.LLM.Endpoint,
	})
	switch {
	case err == nil:
		d.Gateway = gw
		srv.SetGateway(gw)
	case errors.Is(err, domain.ErrLLMNotConfigured):
		log.Printf("[daemon] no Mistral API key, /api/query disabled")
	default:
		return nil, fmt.Errorf("llm gateway: %w", err)
	}

	d.Server = srv
	return d, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	// Health checker (always runs)
	go d.Health.Run(ctx)

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
		if d.DB != nil {
			_ = d.DB.Close()
		}
	}()

	fmt.Printf("MMSS serving on http://%s\n", addr)
	if d.Gateway != nil {
		fmt.Printf("  Query gateway: enabled\n")
	}
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
