// cmd/api/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/your-org/factory-backend/internal/config"
	"github.com/your-org/factory-backend/internal/domain/catalog"
	"github.com/your-org/factory-backend/internal/domain/finance"
	"github.com/your-org/factory-backend/internal/domain/inventory"
	"github.com/your-org/factory-backend/internal/domain/machine"
	"github.com/your-org/factory-backend/internal/domain/notification"
	"github.com/your-org/factory-backend/internal/domain/production"
	"github.com/your-org/factory-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/factory-backend/internal/infrastructure/database/redis"
	"github.com/your-org/factory-backend/internal/interfaces/http"
	"github.com/your-org/factory-backend/internal/interfaces/http/routes"
	"github.com/your-org/factory-backend/internal/pkg/auth"
	"github.com/your-org/factory-backend/internal/pkg/logger"
	"github.com/your-org/factory-backend/internal/pkg/report"
	"github.com/your-org/factory-backend/internal/pkg/simulation"
	"github.com/your-org/factory-backend/internal/ticker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("🚀 Starting %s v%s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Environment)

	appLogger := logger.New(cfg)

	// Connect to database
	db, err := postgres.NewConnection(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Connect to Redis
	redisClient, err := redis.NewConnection(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Health check
	if err := db.Health(); err != nil {
		log.Fatalf("Database health check failed: %v", err)
	}

	if err := redisClient.Health(); err != nil {
		log.Fatalf("Redis health check failed: %v", err)
	}

	// Run database migrations
	migration := postgres.NewMigration(db.GetDB())

	if err := migration.RunAutoMigrations(); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}

	if err := migration.CreateIndexes(); err != nil {
		log.Printf("Warning: Index creation failed: %v", err)
	}

	if err := migration.SeedInitialData(); err != nil {
		log.Printf("Warning: Data seeding failed: %v", err)
	}

	// Seed a demo company in development
	if cfg.IsDevelopment() {
		passwords := auth.NewPasswordManager(cfg)
		hash, err := passwords.HashPassword("Demo1234")
		if err == nil {
			if err := migration.SeedDevelopmentData(hash); err != nil {
				log.Printf("Warning: Development data seeding failed: %v", err)
			}
		}
		migration.GetTableInfo()
	}

	// Wire the simulation core. Services are shared between the HTTP
	// handlers and the tick sweeps.
	gormDB := db.GetDB()
	rdb := redisClient.GetClient()

	clock := simulation.NewClock(cfg.Simulation.StartTime)
	resolver := simulation.NewResolver()

	catalogService := catalog.NewService(gormDB)
	financeService := finance.NewService(gormDB, clock)
	notificationService := notification.NewService(gormDB, rdb, clock, appLogger)
	inventoryService := inventory.NewService(gormDB, clock, notificationService, appLogger)
	machineService := machine.NewService(gormDB, clock, resolver, financeService, catalogService, notificationService, appLogger)
	productionService := production.NewService(gormDB, clock, resolver, catalogService, inventoryService, financeService, notificationService, appLogger)
	machineService.SetOrderCanceller(productionService)
	reportService := report.NewService(cfg, gormDB, clock)

	simTicker := ticker.New(gormDB, clock, cfg, rdb, machineService, productionService, inventoryService, appLogger)

	// Resume the simulated clock where the last run left off
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 5*time.Second)
	if err := simTicker.RestoreClock(startupCtx); err != nil {
		log.Printf("Warning: Clock restore failed: %v", err)
	}
	cancelStartup()
	log.Printf("⏱️ Simulated time: %s", clock.Now().Format(time.RFC3339))

	log.Println("✅ All systems operational!")

	deps := &routes.Dependencies{
		Config:        cfg,
		DB:            gormDB,
		Redis:         rdb,
		Clock:         clock,
		Catalog:       catalogService,
		Inventory:     inventoryService,
		Finance:       financeService,
		Machines:      machineService,
		Production:    productionService,
		Notifications: notificationService,
		Reports:       reportService,
		Ticker:        simTicker,
	}

	// Create and start HTTP server
	server := http.NewServer(cfg, deps)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Drive ticks from wall-clock time when no external scheduler does
	tickCtx, cancelTicks := context.WithCancel(context.Background())
	if cfg.Simulation.AutoTick {
		go simTicker.Run(tickCtx)
	}

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("👋 Shutting down gracefully...")
	cancelTicks()

	// Give server 30 seconds to shutdown gracefully
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.Printf("Failed to shutdown HTTP server gracefully: %v", err)
	}

	log.Println("✅ Server shutdown completed")
}
