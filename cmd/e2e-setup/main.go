package main

import (
	"context"
	"flag"
	"log"
	"time"

	"travel-itinerary-ai/internal/config"
	"travel-itinerary-ai/internal/infra/db/postgres"
	"travel-itinerary-ai/internal/infra/redis"
)

// This script resets the backing stores to a clean, predictable state
// for manual end-to-end testing.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, 5)
	if err != nil {
		log.Fatalf("postgres connection failed: %v", err)
	}
	defer pool.Close()

	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer redisClient.Close()

	log.Println("--- Starting E2E Environment Setup ---")

	// 1. Wipe the queue store so no stale job records survive.
	log.Println("[1/3] Wiping Redis queue store...")
	if err := redisClient.FlushDB(ctx); err != nil {
		log.Fatalf("failed to flush redis: %v", err)
	}

	// 2. Recreate the durable store schema and empty it.
	log.Println("[2/3] Resetting itinerary documents...")
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE itineraries`); err != nil {
		log.Fatalf("failed to truncate itineraries: %v", err)
	}

	log.Println("[3/3] (Optional) Seeding specific test data...")
	// Add fixed documents here when a test scenario needs them.

	log.Println("--- E2E Environment Setup Complete ---")
}
