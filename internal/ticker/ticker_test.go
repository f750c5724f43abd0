// internal/ticker/ticker_test.go
package ticker_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/factory-backend/internal/config"
	"github.com/your-org/factory-backend/internal/domain/catalog"
	"github.com/your-org/factory-backend/internal/domain/company"
	"github.com/your-org/factory-backend/internal/domain/finance"
	"github.com/your-org/factory-backend/internal/domain/inventory"
	"github.com/your-org/factory-backend/internal/domain/machine"
	"github.com/your-org/factory-backend/internal/domain/notification"
	"github.com/your-org/factory-backend/internal/domain/production"
	"github.com/your-org/factory-backend/internal/pkg/simulation"
	"github.com/your-org/factory-backend/internal/pkg/testutil"
	"github.com/your-org/factory-backend/internal/ticker"
	"gorm.io/gorm"
)

type world struct {
	db        *gorm.DB
	clock     *simulation.Clock
	inventory *inventory.Service
	machines  *machine.Service
	orders    *production.Service
	ticker    *ticker.Ticker
}

// newWorld wires the full sweep stack over an in-memory database with no
// redis, the configuration the tick handler tests run with.
func newWorld(t *testing.T) *world {
	t.Helper()

	db := testutil.NewTestDB(t)
	clock := simulation.NewClock(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	resolver := simulation.NewSeededResolver(42)

	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := &config.Config{}
	cfg.Simulation.TickInterval = 24 * time.Hour

	catalogService := catalog.NewService(db)
	financeService := finance.NewService(db, clock)
	notifier := notification.NewService(db, nil, clock, log)
	inventoryService := inventory.NewService(db, clock, notifier, log)
	machineService := machine.NewService(db, clock, resolver, financeService, catalogService, notifier, log)
	productionService := production.NewService(db, clock, resolver, catalogService, inventoryService, financeService, notifier, log)
	machineService.SetOrderCanceller(productionService)

	simTicker := ticker.New(db, clock, cfg, nil, machineService, productionService, inventoryService, log)

	return &world{
		db:        db,
		clock:     clock,
		inventory: inventoryService,
		machines:  machineService,
		orders:    productionService,
		ticker:    simTicker,
	}
}

func TestRunTickAdvancesClockWithoutRedis(t *testing.T) {
	w := newWorld(t)
	before := w.clock.Now()

	require.NoError(t, w.ticker.RunTick(context.Background()))

	assert.Equal(t, before.Add(24*time.Hour), w.clock.Now())
}

func TestRestoreClockWithoutRedisIsANoOp(t *testing.T) {
	w := newWorld(t)
	before := w.clock.Now()

	require.NoError(t, w.ticker.RestoreClock(context.Background()))
	assert.Equal(t, before, w.clock.Now())
}

func TestRunTickDrivesAllSweeps(t *testing.T) {
	w := newWorld(t)

	comp := &company.Company{Name: "Acme", Email: "acme@example.com", PasswordHash: "x", Funds: 10_000_000}
	require.NoError(t, w.db.Create(comp).Error)

	steel := &catalog.Product{Name: "Steel Sheet", Code: "MAT-STEEL"}
	require.NoError(t, w.db.Create(steel).Error)
	shelfLife := 12
	resin := &catalog.Product{Name: "Resin", Code: "MAT-RESIN", ShelfLifeHours: &shelfLife}
	require.NoError(t, w.db.Create(resin).Error)

	casing := &catalog.Product{Name: "Casing", Code: "PRD-CASING", UnitPrice: 500}
	require.NoError(t, w.db.Create(casing).Error)
	require.NoError(t, w.db.Create(&catalog.RecipeLine{
		ProductID: casing.ID, MaterialID: steel.ID, Quantity: 2,
	}).Error)

	template := &catalog.MachineTemplate{
		Name: "Stamping Press", Price: 1_000_000,
		SpeedMin: 8, SpeedAvg: 10, SpeedMax: 12,
		ReliabilityDecayPerTick: 0.001,
	}
	require.NoError(t, w.db.Create(template).Error)
	require.NoError(t, w.db.Exec(
		"INSERT INTO machine_template_products (machine_template_id, product_id) VALUES (?, ?)",
		template.ID, casing.ID).Error)

	employee := &catalog.Employee{CompanyID: comp.ID, Name: "Morgan", EfficiencyFactor: 1.0}
	require.NoError(t, w.db.Create(employee).Error)

	producer := &machine.CompanyMachine{
		CompanyID:               comp.ID,
		MachineTemplateID:       template.ID,
		AssignedEmployeeID:      &employee.ID,
		Status:                  machine.StatusInactive,
		Speed:                   10,
		QualityFactor:           1,
		CurrentReliability:      1,
		ReliabilityDecayPerTick: 0.001,
		AcquiredAt:              w.clock.Now(),
	}
	require.NoError(t, w.db.Create(producer).Error)

	underRepair := &machine.CompanyMachine{
		CompanyID:          comp.ID,
		MachineTemplateID:  template.ID,
		Status:             machine.StatusMaintenance,
		Speed:              10,
		QualityFactor:      1,
		CurrentReliability: 0.4,
		AcquiredAt:         w.clock.Now(),
	}
	require.NoError(t, w.db.Create(underRepair).Error)
	run := &machine.Maintenance{
		CompanyMachineID: underRepair.ID,
		Type:             machine.MaintenancePredictive,
		Status:           machine.MaintenanceInProgress,
		DurationHours:    8,
		StartedAt:        w.clock.Now(),
	}
	require.NoError(t, w.db.Create(run).Error)

	require.NoError(t, w.db.Create(&catalog.CompanyResearch{
		CompanyID: comp.ID, ProductID: casing.ID, ResearchedAt: w.clock.Now(),
	}).Error)

	_, err := w.inventory.Credit(comp.ID, steel.ID, 100, inventory.Reference{})
	require.NoError(t, err)
	_, err = w.inventory.Credit(comp.ID, resin.ID, 30, inventory.Reference{})
	require.NoError(t, err)

	// 5 units finish in well under a tick at any speed within the bounds
	order, err := w.orders.Start(comp.ID, producer.ID, casing.ID, 5)
	require.NoError(t, err)

	require.NoError(t, w.ticker.RunTick(context.Background()))

	// Production completed and the machine was released
	finished, err := w.orders.Get(comp.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, production.StatusCompleted, finished.Status)

	released, err := w.machines.Get(comp.ID, producer.ID)
	require.NoError(t, err)
	assert.Equal(t, machine.StatusInactive, released.Status)
	// One tick of decay was applied before completion
	assert.InDelta(t, 0.999, released.CurrentReliability, 1e-9)

	yield, err := w.inventory.Balance(comp.ID, casing.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, yield)

	// Maintenance was due after 8 simulated hours
	var completedRun machine.Maintenance
	require.NoError(t, w.db.First(&completedRun, run.ID).Error)
	assert.Equal(t, machine.MaintenanceCompleted, completedRun.Status)

	repaired, err := w.machines.Get(comp.ID, underRepair.ID)
	require.NoError(t, err)
	assert.Equal(t, machine.StatusInactive, repaired.Status)
	assert.Greater(t, repaired.CurrentReliability, 0.4)

	// The 12 hour shelf life elapsed within the tick
	resinBalance, err := w.inventory.Balance(comp.ID, resin.ID)
	require.NoError(t, err)
	assert.Zero(t, resinBalance)

	var expired int64
	require.NoError(t, w.db.Model(&inventory.StockMovement{}).
		Where("direction = ?", inventory.DirectionExpired).Count(&expired).Error)
	assert.Equal(t, int64(1), expired)
}
