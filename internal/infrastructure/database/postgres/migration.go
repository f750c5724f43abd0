// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"
	"time"

	"github.com/your-org/factory-backend/internal/domain/catalog"
	"github.com/your-org/factory-backend/internal/domain/company"
	"github.com/your-org/factory-backend/internal/domain/finance"
	"github.com/your-org/factory-backend/internal/domain/inventory"
	"github.com/your-org/factory-backend/internal/domain/machine"
	"github.com/your-org/factory-backend/internal/domain/notification"
	"github.com/your-org/factory-backend/internal/domain/production"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// Models returns every model in dependency order. Shared with the sqlite
// test databases so both schemas stay identical.
func Models() []interface{} {
	return []interface{}{
		// Accounts
		&company.Company{},

		// Catalog - shared blueprints
		&catalog.Product{},
		&catalog.RecipeLine{},
		&catalog.MachineTemplate{},
		&catalog.Employee{},
		&catalog.CompanyResearch{},

		// Machines and maintenance
		&machine.CompanyMachine{},
		&machine.Maintenance{},

		// Production orders
		&production.ProductionOrder{},

		// Inventory ledger
		&inventory.StockMovement{},
		&inventory.StockBalance{},

		// Financial ledger
		&finance.LedgerEntry{},

		// Notifications
		&notification.Notification{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	for _, model := range Models() {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// FIFO scan: open lots per (company, product), oldest first
		"CREATE INDEX IF NOT EXISTS idx_stock_movements_open_lots ON stock_movements(company_id, product_id, moved_at) WHERE direction = 'in' AND remaining_quantity > 0",

		// Sweep scans
		"CREATE INDEX IF NOT EXISTS idx_production_orders_due ON production_orders(status, real_completed_at)",
		"CREATE INDEX IF NOT EXISTS idx_maintenances_open ON maintenances(status, started_at)",
		"CREATE INDEX IF NOT EXISTS idx_company_machines_status ON company_machines(status)",

		// Ledger listings, newest first
		"CREATE INDEX IF NOT EXISTS idx_ledger_entries_company_created ON ledger_entries(company_id, id DESC)",
		"CREATE INDEX IF NOT EXISTS idx_notifications_company_created ON notifications(company_id, created_at DESC)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
			failCount++
		} else {
			successCount++
		}
	}

	log.Printf("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// SeedInitialData inserts the shared catalog: products with recipes, machine
// templates and their producible outputs
func (m *Migration) SeedInitialData() error {
	log.Println("🌱 Seeding initial data...")

	if err := m.seedProducts(); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	if err := m.seedMachineTemplates(); err != nil {
		return fmt.Errorf("failed to seed machine templates: %w", err)
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}

func (m *Migration) seedProducts() error {
	log.Println("🏷️ Seeding products...")

	shortShelfLife := 72 // Hours

	products := []catalog.Product{
		{
			Name:      "Steel Sheet",
			Code:      "MAT-STEEL",
			UnitPrice: 1200,
		},
		{
			Name:      "Plastic Pellets",
			Code:      "MAT-PLASTIC",
			UnitPrice: 450,
		},
		{
			Name:      "Electronic Component",
			Code:      "MAT-ELEC",
			UnitPrice: 2300,
		},
		{
			Name:           "Fresh Compound",
			Code:           "MAT-COMPOUND",
			UnitPrice:      800,
			ShelfLifeHours: &shortShelfLife,
		},
		{
			Name:      "Metal Casing",
			Code:      "PRD-CASING",
			UnitPrice: 4500,
		},
		{
			Name:      "Control Unit",
			Code:      "PRD-CONTROL",
			UnitPrice: 11000,
		},
	}

	for _, p := range products {
		var existing catalog.Product
		result := m.db.Where("code = ?", p.Code).First(&existing)
		if result.Error != nil {
			if err := m.db.Create(&p).Error; err != nil {
				return err
			}
			log.Printf("✅ Created product: %s", p.Name)
		} else {
			log.Printf("⏭️ Product already exists: %s", p.Name)
		}
	}

	return m.seedRecipes()
}

func (m *Migration) seedRecipes() error {
	recipes := map[string][]struct {
		materialCode string
		quantity     int
	}{
		"PRD-CASING": {
			{"MAT-STEEL", 2},
			{"MAT-PLASTIC", 1},
		},
		"PRD-CONTROL": {
			{"MAT-ELEC", 3},
			{"MAT-PLASTIC", 2},
			{"MAT-COMPOUND", 1},
		},
	}

	for productCode, lines := range recipes {
		var product catalog.Product
		if err := m.db.Where("code = ?", productCode).First(&product).Error; err != nil {
			return err
		}

		var count int64
		m.db.Model(&catalog.RecipeLine{}).Where("product_id = ?", product.ID).Count(&count)
		if count > 0 {
			continue
		}

		for i, line := range lines {
			var material catalog.Product
			if err := m.db.Where("code = ?", line.materialCode).First(&material).Error; err != nil {
				return err
			}
			recipeLine := catalog.RecipeLine{
				ProductID:  product.ID,
				MaterialID: material.ID,
				Quantity:   line.quantity,
				SortOrder:  i + 1,
			}
			if err := m.db.Create(&recipeLine).Error; err != nil {
				return err
			}
		}
		log.Printf("✅ Created recipe for: %s", product.Name)
	}

	return nil
}

func (m *Migration) seedMachineTemplates() error {
	log.Println("🏭 Seeding machine templates...")

	templates := []struct {
		template     catalog.MachineTemplate
		productCodes []string
	}{
		{
			template: catalog.MachineTemplate{
				Name:  "Stamping Press",
				Price: 2500000,

				SpeedMin: 4, SpeedAvg: 6, SpeedMax: 9,
				QualityMin: 0.85, QualityAvg: 0.95, QualityMax: 1.0,
				OperationsCostMin: 40, OperationsCostAvg: 60, OperationsCostMax: 90,
				CarbonFootprintMin: 0.8, CarbonFootprintAvg: 1.2, CarbonFootprintMax: 2.0,

				ReliabilityDecayPerTick:  0.002,
				MaintenanceCost:          75000,
				MaintenanceDurationHours: 8,
			},
			productCodes: []string{"PRD-CASING"},
		},
		{
			template: catalog.MachineTemplate{
				Name:  "Assembly Line",
				Price: 6000000,

				SpeedMin: 2, SpeedAvg: 3, SpeedMax: 5,
				QualityMin: 0.9, QualityAvg: 0.97, QualityMax: 1.0,
				OperationsCostMin: 120, OperationsCostAvg: 180, OperationsCostMax: 260,
				CarbonFootprintMin: 1.5, CarbonFootprintAvg: 2.5, CarbonFootprintMax: 4.0,

				ReliabilityDecayPerTick:  0.003,
				MaintenanceCost:          150000,
				MaintenanceDurationHours: 12,
			},
			productCodes: []string{"PRD-CASING", "PRD-CONTROL"},
		},
	}

	for _, entry := range templates {
		var existing catalog.MachineTemplate
		result := m.db.Where("name = ?", entry.template.Name).First(&existing)
		if result.Error == nil {
			log.Printf("⏭️ Machine template already exists: %s", existing.Name)
			continue
		}

		template := entry.template
		if err := m.db.Create(&template).Error; err != nil {
			return err
		}

		for _, code := range entry.productCodes {
			var product catalog.Product
			if err := m.db.Where("code = ?", code).First(&product).Error; err != nil {
				return err
			}
			if err := m.db.Exec(
				"INSERT INTO machine_template_products (machine_template_id, product_id) VALUES (?, ?)",
				template.ID, product.ID).Error; err != nil {
				return err
			}
		}
		log.Printf("✅ Created machine template: %s", template.Name)
	}

	return nil
}

// SeedDevelopmentData creates a demo company with employees, research and
// starting stock. Not for production databases.
func (m *Migration) SeedDevelopmentData(passwordHash string) error {
	log.Println("🌱 Seeding development data...")

	var existing company.Company
	if err := m.db.Where("email = ?", "demo@example.com").First(&existing).Error; err == nil {
		log.Println("⏭️ Demo company already exists")
		return nil
	}

	demo := company.Company{
		Name:         "Demo Manufacturing Co",
		Email:        "demo@example.com",
		PasswordHash: passwordHash,
		Funds:        100000000, // 1,000,000.00 in cents
	}
	if err := m.db.Create(&demo).Error; err != nil {
		return fmt.Errorf("failed to create demo company: %w", err)
	}

	employees := []catalog.Employee{
		{CompanyID: demo.ID, Name: "Alex Rivera", EfficiencyFactor: 1.1},
		{CompanyID: demo.ID, Name: "Sam Chen", EfficiencyFactor: 0.95},
	}
	for _, e := range employees {
		if err := m.db.Create(&e).Error; err != nil {
			return fmt.Errorf("failed to create employee: %w", err)
		}
	}

	var producibles []catalog.Product
	if err := m.db.Where("code LIKE ?", "PRD-%").Find(&producibles).Error; err != nil {
		return err
	}
	for _, p := range producibles {
		research := catalog.CompanyResearch{
			CompanyID:    demo.ID,
			ProductID:    p.ID,
			ResearchedAt: time.Now(),
		}
		if err := m.db.Create(&research).Error; err != nil {
			return fmt.Errorf("failed to create research: %w", err)
		}
	}

	log.Println("✅ Created demo company: demo@example.com")
	return nil
}

// GetTableInfo returns information about database tables
func (m *Migration) GetTableInfo() error {
	var tables []string

	if err := m.db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename").Scan(&tables).Error; err != nil {
		return err
	}

	log.Println("📊 Database Tables Information:")
	log.Println("================================")

	totalRecords := int64(0)
	for _, table := range tables {
		var count int64
		m.db.Table(table).Count(&count)
		totalRecords += count

		status := "✅"
		if count == 0 {
			status = "📭"
		}

		log.Printf("%s %-25s | %d records", status, table, count)
	}

	log.Println("================================")
	log.Printf("📈 Total records across all tables: %d", totalRecords)
	log.Printf("🗂️ Total tables: %d", len(tables))

	return nil
}
