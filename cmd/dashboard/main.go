package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tradedeck/internal/api"
	"tradedeck/internal/backend"
	"tradedeck/internal/cache"
	"tradedeck/internal/config"
	"tradedeck/internal/metrics"
	"tradedeck/internal/models"
	"tradedeck/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()
	metrics.InitMetrics()

	// The in-memory store both channels feed
	engine := store.NewEngine()

	// Connect to Redis for the warm-start snapshot cache
	cacheClient, err := cache.New(cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v (continuing without cache)", err)
		cacheClient = nil
	} else {
		defer cacheClient.Close()
		log.Println("Connected to Redis cache")
		seedFromCache(context.Background(), engine, cacheClient)
	}

	session := backend.NewSession(cfg.Backend.Token)
	client := backend.NewClient(cfg.Backend.BaseURL, session, cfg.Backend.Timeout)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start one poller per resource
	pollIntervals := map[models.Kind]time.Duration{
		models.KindSignal: cfg.Poll.Signals,
		models.KindOrder:  cfg.Poll.Orders,
		models.KindTrade:  cfg.Poll.Trades,
	}
	for kind, interval := range pollIntervals {
		poller := backend.NewPoller(string(kind), interval, session, makePoll(engine, client, cacheClient, kind))
		go func(kind models.Kind, interval time.Duration) {
			log.Printf("Starting poller for %s (interval: %s)", kind, interval)
			poller.Run(ctx)
		}(kind, interval)
	}

	accountPoller := backend.NewPoller("account", cfg.Poll.Account, session, func(ctx context.Context) error {
		summary, err := client.FetchAccount(ctx)
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		engine.SetAccount(summary, time.Now())
		return nil
	})
	go accountPoller.Run(ctx)

	// Start the push channel
	dispatcher := backend.NewDispatcher(engine)
	switch cfg.Push.Transport {
	case "kafka":
		stream := backend.NewKafkaStream(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic, cfg.Kafka.ConsumerGroup, dispatcher.Handle)
		go func() {
			log.Printf("Starting Kafka push stream (brokers: %v, topic: %s)", cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)
			if err := stream.Run(ctx); err != nil {
				log.Printf("Kafka push stream error: %v", err)
			}
		}()
	default:
		stream := backend.NewStream(cfg.Push.WebSocketURL, session, dispatcher.Handle)
		go func() {
			log.Printf("Starting WebSocket push stream: %s", cfg.Push.WebSocketURL)
			stream.Run(ctx)
		}()
	}

	// Set up HTTP handler and routes
	handler := api.NewHandler(engine, client, session, pollIntervals)
	router := api.SetupRoutes(handler)

	// Create HTTP server
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Cancel context to stop pollers and the push stream
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// makePoll builds the fetch-and-apply cycle for one resource. The snapshot
// is applied with its fetch timestamp, then written through to the cache.
func makePoll(engine *store.Engine, client *backend.Client, cacheClient *cache.Client, kind models.Kind) backend.PollFunc {
	return func(ctx context.Context) error {
		records, err := client.FetchCollection(ctx, kind)
		if err != nil {
			return err
		}
		// Cancellation racing completion: discard the result, never apply it.
		if ctx.Err() != nil {
			return ctx.Err()
		}

		asOf := time.Now()
		engine.ApplySnapshot(kind, records, asOf)

		if cacheClient != nil {
			if err := cacheClient.SaveSnapshot(ctx, kind, records, asOf); err != nil {
				log.Printf("Warning: failed to cache %s snapshot: %v", kind, err)
			}
		}
		return nil
	}
}

// seedFromCache replays the last cached snapshots into the engine so the
// dashboard has data before the first poll completes.
func seedFromCache(ctx context.Context, engine *store.Engine, cacheClient *cache.Client) {
	for _, kind := range models.Kinds {
		raw, asOf, err := cacheClient.LoadSnapshot(ctx, kind)
		if err != nil {
			log.Printf("Warning: failed to load cached %s snapshot: %v", kind, err)
			continue
		}
		if raw == nil {
			continue
		}
		records, err := backend.DecodeRecords(kind, raw)
		if err != nil {
			log.Printf("Warning: discarding unreadable cached %s snapshot: %v", kind, err)
			continue
		}
		engine.ApplySnapshot(kind, records, asOf)
		log.Printf("Seeded %d %s from cache (as of %s)", len(records), kind, asOf.Format(time.RFC3339))
	}
}
