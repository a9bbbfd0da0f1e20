package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ndrandal/commoditysim/internal/config"
	"github.com/ndrandal/commoditysim/internal/log"
	"github.com/ndrandal/commoditysim/internal/metrics"
	"github.com/ndrandal/commoditysim/internal/simulation"
)

func main() {
	configPath := flag.String("config", "", "path to a RuntimeConfig override file (yaml/json/toml)")
	env := flag.String("env", "dev", "logger environment: prod or dev")
	addr := flag.String("addr", "127.0.0.1:8090", "metrics/health HTTP listen address")
	autostart := flag.Bool("autostart", true, "start the run loop immediately")
	flag.Parse()

	logger, err := log.NewSugar(*env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := config.Default()
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			logger.Fatalf("load config %q: %v", *configPath, err)
		}
	}

	m, metricsHandler, err := metrics.Setup("commoditysim")
	if err != nil {
		logger.Fatalf("setup metrics: %v", err)
	}

	sim, err := simulation.New(cfg, logger, m)
	if err != nil {
		logger.Fatalf("build simulation: %v", err)
	}
	logger.Infow("simulation built", "run_id", sim.ID(), "seed", cfg.Simulation.Seed, "symbols", len(sim.GetCommodities()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infof("received signal %v, shutting down", sig)
		cancel()
	}()

	if *autostart {
		if err := sim.Start(); err != nil {
			logger.Fatalf("start simulation: %v", err)
		}
		logger.Infow("run loop started", "tick_rate_ms", cfg.Simulation.TickRateMs)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsHandler)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		state := sim.GetState()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","running":%t,"currentTick":%d,"simDate":%q}`,
			state.Running, state.CurrentTick, state.SimDate)
	})

	srv := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if sim.GetState().Running {
			if err := sim.Stop(); err != nil {
				logger.Warnf("stop simulation: %v", err)
			}
		}
		srv.Shutdown(shutdownCtx)
	}()

	logger.Infof("metrics/health listening on http://%s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
	logger.Info("commodity market simulator stopped")
}
