package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/resistingdestiny/memedici/internal/agent/model"
	"github.com/resistingdestiny/memedici/internal/agent/registry"
	"github.com/resistingdestiny/memedici/internal/agent/runtime"
	"github.com/resistingdestiny/memedici/internal/agent/store"
	"github.com/resistingdestiny/memedici/internal/agent/tools"
	"github.com/resistingdestiny/memedici/internal/api"
	"github.com/resistingdestiny/memedici/internal/core"
	"github.com/resistingdestiny/memedici/internal/dataset"
	logx "github.com/resistingdestiny/memedici/pkg/logger"
	pkgredis "github.com/resistingdestiny/memedici/pkg/redis"
)

// AppConfig defines all configurable parameters for the platform, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis     pkgredis.Config
	MemoryTTL string `envconfig:"MEMORY_TTL" default:"168h"`
	SeedDir   string `envconfig:"SEED_DIR"`

	// Domain
	Runtime model.RuntimeConfig
	Engine  model.EngineConfig
	Dataset model.DatasetConfig
	Server  model.ServerConfig
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	env := core.ParseEnvironment(envCfg.Environment)
	logx.Init(logx.LoggerOpts{Environment: env})
	if env.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Record store and thread memory: Redis when configured, in-process
	// otherwise.
	var recordStore store.RecordStore
	var memory runtime.MemoryStore
	if envCfg.Redis.URL != "" {
		rdb, err := envCfg.Redis.New()
		if err != nil {
			log.Fatalf("Failed to initialise Redis client: %v", err)
		}
		defer rdb.Close()

		ttl, err := time.ParseDuration(envCfg.MemoryTTL)
		if err != nil {
			log.Fatalf("Invalid MEMORY_TTL '%s': %v", envCfg.MemoryTTL, err)
		}
		recordStore = store.NewRedisRecordStore(rdb)
		memory = runtime.NewRedisMemory(rdb, ttl)
		logx.Info().Msg("connected to Redis")
	} else {
		recordStore = store.NewMemoryRecordStore()
		memory = runtime.NewInProcMemory()
		logx.Warn().Msg("REDIS_URL not set; agents and memory will not survive restarts")
	}

	reg := registry.New(recordStore)
	toolManager := tools.NewCustomToolManager(recordStore)
	resolver := tools.NewResolver(tools.StubBackend{}, toolManager)

	engine, err := buildEngine(ctx, envCfg.Engine)
	if err != nil {
		log.Fatalf("Failed to initialise reasoning engine: %v", err)
	}

	var sink dataset.Sink = dataset.NopSink{}
	if envCfg.Dataset.NatsURL != "" {
		natsSink, err := dataset.NewNatsSink(envCfg.Dataset.NatsURL, envCfg.Dataset.Subject)
		if err != nil {
			logx.Warn().Err(err).Msg("dataset sink unavailable; interaction records will be dropped")
		} else {
			sink = natsSink
			defer natsSink.Close()
		}
	}

	rt := runtime.New(reg, resolver, engine, memory, sink, envCfg.Runtime)

	if envCfg.SeedDir != "" {
		if report, err := reg.Seed(ctx, envCfg.SeedDir); err != nil {
			logx.Warn().Err(err).Str("dir", envCfg.SeedDir).Msg("seed import failed")
		} else {
			logx.Info().Int("agents", report.Agents).Int("studios", report.Studios).Msg("seed import done")
		}
	}

	router := gin.Default()
	api.NewServer(reg, rt, toolManager).SetupRoutes(router)

	srv := &http.Server{Addr: envCfg.Server.Addr, Handler: router}
	go func() {
		logx.Info().Str("addr", envCfg.Server.Addr).Str("provider", envCfg.Engine.Provider).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logx.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("forced shutdown")
	}
}

func buildEngine(ctx context.Context, cfg model.EngineConfig) (runtime.ReasoningEngine, error) {
	switch cfg.Provider {
	case "gemini":
		return runtime.NewGeminiEngine(ctx, cfg.APIKey, cfg.BaseURL)
	case "openai":
		return runtime.NewOpenAIEngine(cfg.APIKey, cfg.BaseURL), nil
	default:
		return nil, errors.New("unsupported ENGINE_PROVIDER: " + cfg.Provider)
	}
}
