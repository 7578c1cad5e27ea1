// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"travel-itinerary-ai/internal/config"
	"travel-itinerary-ai/internal/domain/ports/adapter"
	"travel-itinerary-ai/internal/infra/api"
	aiAdapters "travel-itinerary-ai/internal/infra/adapters/ai"
	pg "travel-itinerary-ai/internal/infra/db/postgres"
	"travel-itinerary-ai/internal/infra/logging"
	"travel-itinerary-ai/internal/infra/metrics"
	red "travel-itinerary-ai/internal/infra/redis"
	"travel-itinerary-ai/internal/infra/sched"
	"travel-itinerary-ai/internal/infra/web"
	"travel-itinerary-ai/internal/infra/worker"
	"travel-itinerary-ai/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "development mode (console logs, noop provider allowed)")
	mintToken := flag.Bool("mint-sweep-token", false, "print a scheduler token for the internal sweep endpoint and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	authMgr := web.NewAuthManager(cfg.Auth.SweepSecret, cfg.Auth.TokenTTL)
	if *mintToken {
		tok, err := authMgr.Mint()
		if err != nil {
			log.Fatalf("mint token: %v", err)
		}
		fmt.Println(tok)
		return
	}

	// ---- Postgres (durable store) ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()
	if err := pg.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("schema: %v", err)
	}

	// ---- Redis (queue store) ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()

	// ---- Repositories ----
	jobsRepo := red.NewJobQueueRepo(redisClient)
	docsRepo := pg.NewItineraryRepo(pool)

	// ---- Generation provider (OpenAI / Gemini via config) ----
	byProvider := map[string]adapter.GenerationAdapter{}
	if cfg.AI.OpenAIKey != "" {
		oa, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.DefaultModel, cfg.AI.OpenAIBaseURL)
		if err != nil {
			log.Fatalf("openai adapter: %v", err)
		}
		byProvider["openai"] = oa
	}
	if cfg.AI.GeminiKey != "" {
		ga, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel)
		if err != nil {
			log.Fatalf("gemini adapter: %v", err)
		}
		byProvider["gemini"] = ga
	}
	if len(byProvider) == 0 {
		if !cfg.Runtime.Dev {
			log.Fatalf("no generation provider configured: set ai.openai_key or ai.gemini_key in %s", *cfgPath)
		}
		logger.Warn().Msg("dev mode without provider keys, using noop generation")
		byProvider["noop"] = aiAdapters.NewNoopAdapter()
		cfg.AI.DefaultProvider = "noop"
	}
	gen := aiAdapters.NewLimitedGeneration(
		aiAdapters.NewMultiAdapter(cfg.AI.DefaultProvider, byProvider),
		cfg.AI.ConcurrentLimit,
	)
	logger.Info().Str("provider", gen.Name()).Str("model", cfg.AI.DefaultModel).Msg("generation adapter ready")

	// ---- Use cases ----
	genUC := usecase.NewGenerationUseCase(gen, cfg.AI.MaxRetries, cfg.AI.BackoffBase, logger)
	itineraryUC := usecase.NewItineraryUseCase(jobsRepo, docsRepo, logger)

	// ---- Processor + pool + periodic sweep ----
	processor := worker.NewProcessor(jobsRepo, docsRepo, genUC, cfg.Worker.StaleThreshold, cfg.AI.Timeout, logger)
	wpool := worker.NewPool(cfg.Worker.Workers, logger)
	wpool.Start(ctx)
	defer wpool.Stop()

	itineraryUC.SetProcessTrigger(func(jobID string) {
		if err := wpool.Submit(func(ctx context.Context) error {
			processor.ProcessJob(ctx, jobID)
			return nil
		}); err != nil {
			logger.Warn().Err(err).Str("job_id", jobID).Msg("on-demand processing dropped, sweep will pick the job up")
		}
	})

	sweeper := sched.NewSweepWorker(cfg.Worker.SweepInterval, wpool, processor, logger)
	go func() { _ = sweeper.Run(ctx) }()

	// ---- HTTP server ----
	metrics.MustRegister()
	srv := api.NewServer(itineraryUC, func() error {
		return wpool.Submit(func(ctx context.Context) error {
			return processor.Sweep(ctx)
		})
	}, logger)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(logger, api.RequireScheduler(authMgr)),
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server failed")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		logger.Info().Str("signal", s.String()).Msg("shutting down")
	case <-ctx.Done():
	}

	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	if err := httpServer.Shutdown(shCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}
