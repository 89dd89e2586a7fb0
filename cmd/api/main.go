// cmd/api/main.go

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"hive/internal/adapter/storage"
	"hive/internal/config"
	"hive/internal/metrics"
	"hive/internal/notify"
	"hive/internal/server"
	"hive/internal/service/builderflow"
	recommendService "hive/internal/service/recommend"
	socialService "hive/internal/service/social"
	spaceService "hive/internal/service/space"
	toolService "hive/internal/service/tool"
)

// recommendSource satisfies recommendService.Source by combining the
// social and recommendation stores.
type recommendSource struct {
	*storage.SocialStore
	*storage.RecommendationStore
}

func main() {
	// Load .env in development; ignore absence in production
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Register Prometheus collectors
	metrics.Register()

	// Initialize dependencies
	db, err := initDatabase(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	natsConn, err := initNATS(cfg.NATS)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer natsConn.Close()

	// Initialize storage adapters
	spaceStore := storage.NewSpaceStore(db)
	toolStore := storage.NewToolStore(db)
	builderStore := storage.NewBuilderRequestStore(db)
	socialStore := storage.NewSocialStore(db)
	recommendationStore := storage.NewRecommendationStore(db)

	// Notification dispatcher
	dispatcher := notify.NewDispatcher(natsConn)

	// Initialize space lifecycle manager
	spaceManager := spaceService.NewManager(
		spaceStore,
		dispatcher,
		spaceService.ManagerConfig{
			EventsTopic:    cfg.Space.EventsTopic,
			DormancyWindow: cfg.Space.DormancyWindow,
			SweepLimit:     cfg.Space.SweepLimit,
		},
	)

	// Initialize builder request workflow
	builderWorkflow := builderflow.NewWorkflow(builderStore, spaceStore, dispatcher)

	// Initialize tool placement service
	toolSvc := toolService.NewService(
		toolStore,
		spaceStore,
		spaceManager,
		dispatcher,
		toolService.ServiceConfig{
			EventsTopic:    cfg.Space.EventsTopic,
			SurgeThreshold: cfg.Tool.SurgeThreshold,
			SurgeHalfLife:  cfg.Tool.SurgeHalfLife,
		},
	)

	// Initialize engagement aggregator
	aggregator := socialService.NewAggregator(
		socialStore,
		dispatcher,
		socialService.AggregatorConfig{
			DecayWindow:       cfg.Social.DecayWindow,
			EventWeight:       cfg.Social.EventWeight,
			SpaceWeight:       cfg.Social.SpaceWeight,
			SocialWeight:      cfg.Social.SocialWeight,
			ContentWeight:     cfg.Social.ContentWeight,
			StrongConnections: cfg.Social.StrongConnections,
			InsightsBatch:     cfg.Social.InsightsBatch,
		},
	)

	// Subscribe the aggregator to recorded activity events
	if err := aggregator.Subscribe(natsConn); err != nil {
		log.Fatalf("Failed to subscribe aggregator: %v", err)
	}

	// Initialize recommendation scorer
	scorer := recommendService.NewScorer(
		recommendSource{socialStore, recommendationStore},
		recommendationStore,
		recommendService.ScorerConfig{
			ActiveUserWindow:  cfg.Recommend.ActiveUserWindow,
			BatchLimit:        cfg.Recommend.BatchLimit,
			Concurrency:       cfg.Recommend.Concurrency,
			MaxPerUser:        cfg.Recommend.MaxPerUser,
			MinItemScore:      cfg.Recommend.MinItemScore,
			MinPersonScore:    cfg.Recommend.MinPersonScore,
			InterestTagWeight: cfg.Recommend.InterestTagWeight,
			SharedSpaceBonus:  cfg.Recommend.SharedSpaceBonus,
			MutualWeight:      cfg.Recommend.MutualWeight,
			MutualCap:         cfg.Recommend.MutualCap,
			RecencyBonus:      cfg.Recommend.RecencyBonus,
			CandidateLimit:    cfg.Recommend.BatchLimit,
		},
	)

	// Background loops
	go runDormancySweeps(ctx, spaceManager, cfg.Space.SweepInterval)
	go runRecommendationBatches(ctx, scorer, cfg.Recommend.RunInterval)
	go runWeeklyInsights(ctx, aggregator, cfg.Social.InsightsInterval)

	// Initialize HTTP server
	httpServer := server.NewServer(
		cfg.Server,
		cfg.Space.EventsTopic,
		natsConn,
		spaceManager,
		builderWorkflow,
		toolSvc,
		aggregator,
		recommendationStore,
	)

	// Start HTTP server
	go func() {
		log.Printf("Starting HTTP server on %s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	log.Println("Shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Graceful shutdown
	log.Println("Shutting down services...")

	// Shutdown HTTP server
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Stop consuming activity events
	aggregator.Unsubscribe()

	// Stop background loops
	cancel()

	log.Println("Shutdown complete")
}

// runDormancySweeps periodically demotes idle active spaces
func runDormancySweeps(ctx context.Context, manager *spaceService.Manager, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			demoted, err := manager.RunDormancySweep(ctx)
			if err != nil {
				log.Printf("Dormancy sweep failed: %v", err)
				continue
			}
			if demoted > 0 {
				log.Printf("Dormancy sweep demoted %d spaces", demoted)
			}
		}
	}
}

// runRecommendationBatches regenerates recommendations on a fixed cadence
func runRecommendationBatches(ctx context.Context, scorer *recommendService.Scorer, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			users, err := scorer.RunDaily(ctx)
			if err != nil {
				log.Printf("Recommendation batch failed: %v", err)
				continue
			}
			log.Printf("Recommendation batch generated for %d users", users)
		}
	}
}

// runWeeklyInsights generates weekly engagement summaries
func runWeeklyInsights(ctx context.Context, aggregator *socialService.Aggregator, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			users, err := aggregator.RunWeeklyInsights(ctx)
			if err != nil {
				log.Printf("Weekly insights run failed: %v", err)
				continue
			}
			log.Printf("Weekly insights generated for %d users", users)
		}
	}
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig) (*nats.Conn, error) {
	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Printf("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
