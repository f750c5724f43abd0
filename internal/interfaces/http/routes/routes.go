// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/factory-backend/internal/config"
	"github.com/your-org/factory-backend/internal/domain/catalog"
	"github.com/your-org/factory-backend/internal/domain/finance"
	"github.com/your-org/factory-backend/internal/domain/inventory"
	"github.com/your-org/factory-backend/internal/domain/machine"
	"github.com/your-org/factory-backend/internal/domain/notification"
	"github.com/your-org/factory-backend/internal/domain/production"
	"github.com/your-org/factory-backend/internal/interfaces/http/handlers"
	"github.com/your-org/factory-backend/internal/interfaces/http/middleware"
	"github.com/your-org/factory-backend/internal/pkg/report"
	"github.com/your-org/factory-backend/internal/pkg/simulation"
	"github.com/your-org/factory-backend/internal/ticker"
	"gorm.io/gorm"
)

// Dependencies carries the wired services the routes need. Services are
// constructed once in main so the sweeps and the handlers share instances.
type Dependencies struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Clock  *simulation.Clock

	Catalog       *catalog.Service
	Inventory     *inventory.Service
	Finance       *finance.Service
	Machines      *machine.Service
	Production    *production.Service
	Notifications *notification.Service
	Reports       *report.Service
	Ticker        *ticker.Ticker
}

// SetupRoutes wires all API routes
func SetupRoutes(rg *gin.RouterGroup, deps *Dependencies) {
	cfg := deps.Config

	authHandler := handlers.NewAuthHandler(deps.DB, cfg)
	catalogHandler := handlers.NewCatalogHandler(deps.Catalog, deps.Clock)
	machineHandler := handlers.NewMachineHandler(deps.Machines)
	productionHandler := handlers.NewProductionHandler(deps.Production)
	inventoryHandler := handlers.NewInventoryHandler(deps.DB, deps.Inventory, deps.Catalog, deps.Finance)
	financeHandler := handlers.NewFinanceHandler(deps.Finance)
	notificationHandler := handlers.NewNotificationHandler(deps.Notifications)
	reportHandler := handlers.NewReportHandler(deps.Reports)
	tickHandler := handlers.NewTickHandler(deps.Ticker)

	// Public auth endpoints
	auth := rg.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)

		protected := auth.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			protected.GET("/profile", authHandler.GetProfile)
		}
	}

	// Catalog lookups require a session; the catalog itself is shared
	catalogGroup := rg.Group("/catalog")
	catalogGroup.Use(middleware.AuthMiddleware(cfg))
	{
		catalogGroup.GET("/products", catalogHandler.ListProducts)
		catalogGroup.GET("/products/:id", catalogHandler.GetProduct)
		catalogGroup.GET("/machine-templates", catalogHandler.ListTemplates)
		catalogGroup.GET("/employees", catalogHandler.ListEmployees)
		catalogGroup.POST("/research", catalogHandler.UnlockProduct)
	}

	// Machine lifecycle
	machines := rg.Group("/machines")
	machines.Use(middleware.AuthMiddleware(cfg))
	{
		machines.GET("", machineHandler.List)
		machines.GET("/:id", machineHandler.Get)
		machines.POST("", machineHandler.Setup)
		machines.PUT("/:id/employee", machineHandler.AssignEmployee)
		machines.POST("/:id/sell", machineHandler.Sell)
		machines.POST("/:id/maintenance", machineHandler.StartMaintenance)
	}

	// Production orders
	productionGroup := rg.Group("/production")
	productionGroup.Use(middleware.AuthMiddleware(cfg))
	{
		productionGroup.GET("/orders", productionHandler.List)
		productionGroup.POST("/orders", productionHandler.Start)
		productionGroup.GET("/orders/:id", productionHandler.Get)
		productionGroup.GET("/orders/:id/progress", productionHandler.Progress)
		productionGroup.POST("/orders/:id/cancel", productionHandler.Cancel)
	}

	// Inventory ledger
	inventoryGroup := rg.Group("/inventory")
	inventoryGroup.Use(middleware.AuthMiddleware(cfg))
	{
		inventoryGroup.GET("/balances", inventoryHandler.Balances)
		inventoryGroup.GET("/movements", inventoryHandler.Movements)
		inventoryGroup.POST("/purchase", inventoryHandler.Purchase)
		inventoryGroup.POST("/sell", inventoryHandler.Sell)
	}

	// Financial ledger
	financeGroup := rg.Group("/finance")
	financeGroup.Use(middleware.AuthMiddleware(cfg))
	{
		financeGroup.GET("/ledger", financeHandler.ListEntries)
	}

	// Notifications
	notifications := rg.Group("/notifications")
	notifications.Use(middleware.AuthMiddleware(cfg))
	{
		notifications.GET("", notificationHandler.List)
	}

	// Reports
	reports := rg.Group("/reports")
	reports.Use(middleware.AuthMiddleware(cfg))
	{
		reports.GET("/operations", reportHandler.Operations)
	}

	// Internal endpoints for the external scheduler
	internal := rg.Group("/internal")
	internal.Use(middleware.TickAuthMiddleware(cfg))
	{
		internal.POST("/tick", tickHandler.Run)
	}
}
