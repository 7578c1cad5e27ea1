package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"time"

	"travel-itinerary-ai/internal/config"
	"travel-itinerary-ai/internal/infra/adapters/ai"
	"travel-itinerary-ai/internal/infra/db/postgres"
	"travel-itinerary-ai/internal/infra/logging"
	"travel-itinerary-ai/internal/infra/redis"
	"travel-itinerary-ai/internal/infra/worker"
	"travel-itinerary-ai/internal/usecase"
)

// Runs one job through the whole pipeline against real stores, using the
// noop provider so no API key is needed. Useful for eyeballing the flow
// end to end without the HTTP layer.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, 2)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	defer pool.Close()
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("schema error: %v", err)
	}

	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis connect error: %v", err)
	}
	defer redisClient.Close()

	jobsRepo := redis.NewJobQueueRepo(redisClient)
	docsRepo := postgres.NewItineraryRepo(pool)

	genUC := usecase.NewGenerationUseCase(ai.NewNoopAdapter(), cfg.AI.MaxRetries, cfg.AI.BackoffBase, logger)
	itineraryUC := usecase.NewItineraryUseCase(jobsRepo, docsRepo, logger)
	processor := worker.NewProcessor(jobsRepo, docsRepo, genUC, cfg.Worker.StaleThreshold, cfg.AI.Timeout, logger)

	// 1. Submit
	jobID, err := itineraryUC.Submit(ctx, "Lisbon, Portugal", 2)
	if err != nil {
		log.Fatalf("submit error: %v", err)
	}
	log.Printf("submitted job %s", jobID)

	// 2. Wait for the detached document write, then process on demand.
	time.Sleep(500 * time.Millisecond)
	processor.ProcessJob(ctx, jobID)

	// 3. Read the final state back.
	view, err := itineraryUC.Status(ctx, jobID)
	if err != nil {
		log.Fatalf("status error: %v", err)
	}
	out, _ := json.MarshalIndent(view, "", "  ")
	log.Printf("final status:\n%s", out)
}
