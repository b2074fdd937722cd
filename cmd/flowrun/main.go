// Command flowrun is the CLI/example host for the flow execution engine:
// load a Flow Definition, materialize it, and either run it once against a
// task string or serve it behind an HTTP trigger.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/phenobarbital/ai-parrot-sub006/internal/agent/echo"
	"github.com/phenobarbital/ai-parrot-sub006/internal/config"
	"github.com/phenobarbital/ai-parrot-sub006/internal/trigger"
	flowengine "github.com/phenobarbital/ai-parrot-sub006"
)

func main() {
	var (
		flowPath   = flag.String("flow", "", "path to a Flow Definition JSON file")
		flowName   = flag.String("name", "", "flow name to load from -store instead of -flow")
		store      = flag.String("store", "", "KV store DSN to load/save definitions (overrides FLOWRUN_STORE_DSN); empty path uses in-memory SQLite")
		task       = flag.String("task", "", "task string to run once (ignored in -serve mode)")
		entryPoint = flag.String("entry", "", "override the Definition's entry node for this run")
		timeout    = flag.Duration("timeout", 0, "run timeout, 0 uses the definition's execution_timeout (unbounded if unset)")
		serve      = flag.Bool("serve", false, "serve the flow behind an HTTP trigger instead of running once")
		addr       = flag.String("addr", "", "listen address in -serve mode (overrides FLOWRUN_ADDR)")
		logLevel   = flag.String("log-level", "", "zerolog level: debug, info, warn, error (overrides FLOWRUN_LOG_LEVEL)")
	)
	flag.Parse()

	cfg := config.Load()
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *store != "" {
		cfg.StoreDSN = *store
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	flowengine.ConfigureLogging(os.Stderr, level)
	log := flowengine.Logger()

	var def *flowengine.Definition
	switch {
	case *flowPath != "":
		def, err = flowengine.LoadDefinitionFile(*flowPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *flowPath).Msg("failed to load flow definition")
		}
	case *flowName != "":
		kv, err := flowengine.OpenStore(cfg.StoreDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open flow store")
		}
		defer kv.Close()
		if err := flowengine.InitStore(context.Background(), kv); err != nil {
			log.Fatal().Err(err).Msg("failed to initialize flow store schema")
		}
		def, err = kv.Load(context.Background(), *flowName)
		if err != nil {
			log.Fatal().Err(err).Str("name", *flowName).Msg("failed to load flow definition from store")
		}
	default:
		log.Fatal().Msg("one of -flow or -name is required")
	}

	registry := flowengine.NewStaticAgents(map[string]flowengine.Agent{
		"echo": echo.New("echo", ""),
	})

	eng, err := flowengine.NewEngine(def, registry, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to materialize flow definition")
	}

	runOpts := flowengine.RunOptions{EntryPoint: *entryPoint, Timeout: *timeout}

	if !*serve {
		ctx, payload := trigger.NewManual().Fire(context.Background(), map[string]any{"task": *task})
		taskVal, _ := payload["task"].(string)
		result, err := flowengine.Run(ctx, eng, taskVal, runOpts)
		if err != nil {
			log.Fatal().Err(err).Msg("run failed")
		}
		flowengine.DisplayResult(result)
		if result.Status != flowengine.StatusCompleted {
			os.Exit(1)
		}
		return
	}

	runOnce := func(ctx context.Context, payload map[string]any) (int, any) {
		taskVal, _ := payload["task"].(string)
		result, err := flowengine.Run(ctx, eng, taskVal, runOpts)
		if err != nil {
			return http.StatusInternalServerError, map[string]any{"error": err.Error()}
		}
		status := http.StatusOK
		if result.Status != flowengine.StatusCompleted {
			status = http.StatusUnprocessableEntity
		}
		return status, result
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/run", trigger.NewHTTP(trigger.HTTPConfig{Path: "/run", Method: http.MethodPost}).Handler(runOnce))

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Str("flow", def.Flow).Msg("serving flow")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log.Info().Msg("exited gracefully")
}
