// internal/domain/production/service_test.go
package production_test

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/factory-backend/internal/domain/catalog"
	"github.com/your-org/factory-backend/internal/domain/company"
	"github.com/your-org/factory-backend/internal/domain/finance"
	"github.com/your-org/factory-backend/internal/domain/inventory"
	"github.com/your-org/factory-backend/internal/domain/machine"
	"github.com/your-org/factory-backend/internal/domain/notification"
	"github.com/your-org/factory-backend/internal/domain/production"
	"github.com/your-org/factory-backend/internal/pkg/simulation"
	"github.com/your-org/factory-backend/internal/pkg/testutil"
	"gorm.io/gorm"
)

// stubRandom returns a fixed speed draw
type stubRandom struct {
	resolve float64
}

func (r *stubRandom) Resolve(min, max float64) float64 { return r.resolve }

type fixture struct {
	db        *gorm.DB
	clock     *simulation.Clock
	random    *stubRandom
	inventory *inventory.Service
	svc       *production.Service

	company  *company.Company
	material *catalog.Product
	product  *catalog.Product
	template *catalog.MachineTemplate
	employee *catalog.Employee
	machine  *machine.CompanyMachine
}

// newFixture builds a company with a researched product, an inactive machine
// with an operator and 100 units of the recipe material in stock.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	clock := simulation.NewClock(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	random := &stubRandom{resolve: 10}

	log := logrus.New()
	log.SetOutput(io.Discard)

	catalogService := catalog.NewService(db)
	financeService := finance.NewService(db, clock)
	notifier := notification.NewService(db, nil, clock, log)
	inventoryService := inventory.NewService(db, clock, notifier, log)
	svc := production.NewService(db, clock, random, catalogService, inventoryService, financeService, notifier, log)

	f := &fixture{db: db, clock: clock, random: random, inventory: inventoryService, svc: svc}

	f.company = &company.Company{Name: "Acme", Email: "acme@example.com", PasswordHash: "x", Funds: 1_000_000}
	require.NoError(t, db.Create(f.company).Error)

	f.material = &catalog.Product{Name: "Steel Sheet", Code: "MAT-STEEL"}
	require.NoError(t, db.Create(f.material).Error)

	f.product = &catalog.Product{Name: "Casing", Code: "PRD-CASING", UnitPrice: 500}
	require.NoError(t, db.Create(f.product).Error)
	require.NoError(t, db.Create(&catalog.RecipeLine{
		ProductID: f.product.ID, MaterialID: f.material.ID, Quantity: 2,
	}).Error)

	f.template = &catalog.MachineTemplate{
		Name: "Stamping Press", Price: 1_000_000,
		SpeedMin: 8, SpeedAvg: 10, SpeedMax: 12,
	}
	require.NoError(t, db.Create(f.template).Error)
	require.NoError(t, db.Exec(
		"INSERT INTO machine_template_products (machine_template_id, product_id) VALUES (?, ?)",
		f.template.ID, f.product.ID).Error)

	f.employee = &catalog.Employee{CompanyID: f.company.ID, Name: "Morgan", EfficiencyFactor: 1.0}
	require.NoError(t, db.Create(f.employee).Error)

	f.machine = &machine.CompanyMachine{
		CompanyID:          f.company.ID,
		MachineTemplateID:  f.template.ID,
		AssignedEmployeeID: &f.employee.ID,
		Status:             machine.StatusInactive,
		Speed:              10,
		QualityFactor:      0.95,
		OperationsCost:     50,
		CarbonFootprint:    1.5,
		CurrentReliability: 1,
		AcquiredAt:         clock.Now(),
	}
	require.NoError(t, db.Create(f.machine).Error)

	require.NoError(t, db.Create(&catalog.CompanyResearch{
		CompanyID: f.company.ID, ProductID: f.product.ID, ResearchedAt: clock.Now(),
	}).Error)

	_, err := inventoryService.Credit(f.company.ID, f.material.ID, 100, inventory.Reference{})
	require.NoError(t, err)

	return f
}

func (f *fixture) materialBalance(t *testing.T) int {
	t.Helper()
	balance, err := f.inventory.Balance(f.company.ID, f.material.ID)
	require.NoError(t, err)
	return balance
}

func (f *fixture) machineStatus(t *testing.T) machine.Status {
	t.Helper()
	var m machine.CompanyMachine
	require.NoError(t, f.db.First(&m, f.machine.ID).Error)
	return m.Status
}

func TestStartConsumesMaterialsAndActivatesMachine(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Start(f.company.ID, f.machine.ID, f.product.ID, 20)
	require.NoError(t, err)

	assert.Equal(t, production.StatusInProgress, order.Status)
	assert.Equal(t, f.clock.Now(), order.StartedAt)
	// Rated speed 10 units/h for 20 units
	assert.Equal(t, f.clock.Now().Add(2*time.Hour), order.EstimatedCompletedAt)
	// Hidden draw 10 at efficiency 1.0
	assert.Equal(t, f.clock.Now().Add(2*time.Hour), order.RealCompletedAt)

	// 2 steel per unit
	assert.Equal(t, 100-40, f.materialBalance(t))
	assert.Equal(t, machine.StatusActive, f.machineStatus(t))

	var count int64
	require.NoError(t, f.db.Model(&notification.Notification{}).
		Where("event_type = ?", notification.EventProductionStarted).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestStartClampsRealSpeedToTemplateBounds(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&catalog.Employee{}).Where("id = ?", f.employee.ID).
		Update("efficiency_factor", 2.0).Error)
	f.random.resolve = 10

	order, err := f.svc.Start(f.company.ID, f.machine.ID, f.product.ID, 24)
	require.NoError(t, err)

	// 10 * 2.0 clamps to the template maximum of 12, so 24 units take 2h
	assert.Equal(t, f.clock.Now().Add(2*time.Hour), order.RealCompletedAt)
}

func TestStartPreconditions(t *testing.T) {
	t.Run("invalid quantity", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Start(f.company.ID, f.machine.ID, f.product.ID, 0)
		assert.ErrorIs(t, err, production.ErrInvalidQuantity)
	})

	t.Run("product not researched", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.db.Where("company_id = ?", f.company.ID).
			Delete(&catalog.CompanyResearch{}).Error)
		_, err := f.svc.Start(f.company.ID, f.machine.ID, f.product.ID, 5)
		assert.ErrorIs(t, err, production.ErrProductNotResearched)
	})

	t.Run("machine cannot produce the product", func(t *testing.T) {
		f := newFixture(t)
		other := &catalog.Product{Name: "Control Unit", Code: "PRD-CONTROL"}
		require.NoError(t, f.db.Create(other).Error)
		require.NoError(t, f.db.Create(&catalog.CompanyResearch{
			CompanyID: f.company.ID, ProductID: other.ID, ResearchedAt: f.clock.Now(),
		}).Error)
		_, err := f.svc.Start(f.company.ID, f.machine.ID, other.ID, 5)
		assert.ErrorIs(t, err, production.ErrProductNotSupported)
	})

	t.Run("machine not inactive", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.db.Model(&machine.CompanyMachine{}).Where("id = ?", f.machine.ID).
			Update("status", machine.StatusMaintenance).Error)
		_, err := f.svc.Start(f.company.ID, f.machine.ID, f.product.ID, 5)
		assert.ErrorIs(t, err, production.ErrMachineUnavailable)
	})

	t.Run("no employee assigned", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.db.Model(&machine.CompanyMachine{}).Where("id = ?", f.machine.ID).
			Update("assigned_employee_id", nil).Error)
		_, err := f.svc.Start(f.company.ID, f.machine.ID, f.product.ID, 5)
		assert.ErrorIs(t, err, production.ErrNoEmployeeAssigned)
	})

	t.Run("unknown machine", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Start(f.company.ID, 9999, f.product.ID, 5)
		assert.ErrorIs(t, err, machine.ErrMachineNotFound)
	})

	t.Run("insufficient materials roll everything back", func(t *testing.T) {
		f := newFixture(t)
		// 60 units need 120 steel, only 100 in stock
		_, err := f.svc.Start(f.company.ID, f.machine.ID, f.product.ID, 60)
		assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

		assert.Equal(t, 100, f.materialBalance(t))
		assert.Equal(t, machine.StatusInactive, f.machineStatus(t))

		var count int64
		require.NoError(t, f.db.Model(&production.ProductionOrder{}).Count(&count).Error)
		assert.Zero(t, count)
	})
}

func TestCancelReleasesMachineButKeepsMaterials(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Start(f.company.ID, f.machine.ID, f.product.ID, 20)
	require.NoError(t, err)
	require.Equal(t, 100-40, f.materialBalance(t))

	f.clock.Advance(time.Hour)
	cancelled, err := f.svc.Cancel(f.company.ID, order.ID)
	require.NoError(t, err)

	assert.Equal(t, production.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.FinishedAt)
	assert.Equal(t, machine.StatusInactive, f.machineStatus(t))
	// Consumed materials stay consumed
	assert.Equal(t, 100-40, f.materialBalance(t))

	_, err = f.svc.Cancel(f.company.ID, order.ID)
	assert.ErrorIs(t, err, production.ErrOrderNotInProgress)
}

func TestCancelForBrokenMachineKeepsItBroken(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Start(f.company.ID, f.machine.ID, f.product.ID, 20)
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&machine.CompanyMachine{}).Where("id = ?", f.machine.ID).
		Update("status", machine.StatusBroken).Error)

	require.NoError(t, f.db.Transaction(func(tx *gorm.DB) error {
		return f.svc.CancelActiveForMachineTx(tx, f.machine.ID)
	}))

	fetched, err := f.svc.Get(f.company.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, production.StatusCancelled, fetched.Status)
	assert.Equal(t, machine.StatusBroken, f.machineStatus(t))
}

func TestCompletionSweepCreditsYieldAndCharges(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Start(f.company.ID, f.machine.ID, f.product.ID, 20)
	require.NoError(t, err)

	// Not due yet
	f.clock.Advance(time.Hour)
	require.NoError(t, f.svc.CompletionSweep())
	fetched, err := f.svc.Get(f.company.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, production.StatusInProgress, fetched.Status)

	f.clock.Advance(2 * time.Hour)
	require.NoError(t, f.svc.CompletionSweep())

	fetched, err = f.svc.Get(f.company.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, production.StatusCompleted, fetched.Status)
	require.NotNil(t, fetched.FinishedAt)
	assert.Equal(t, machine.StatusInactive, f.machineStatus(t))

	// Quality 0.95 rounds 20 units to a yield of 19
	yield, err := f.inventory.Balance(f.company.ID, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, 19, yield)

	// Operations cost 50 cents per unit
	var comp company.Company
	require.NoError(t, f.db.First(&comp, f.company.ID).Error)
	assert.Equal(t, int64(1_000_000-1000), comp.Funds)
	assert.InDelta(t, 30.0, comp.CarbonFootprint, 1e-9)

	var entry finance.LedgerEntry
	require.NoError(t, f.db.Where("reason = ?", finance.ReasonOperationsCost).First(&entry).Error)
	assert.Equal(t, int64(1000), entry.Amount)
	assert.Equal(t, finance.RefProduction, entry.Reference.Kind)
	assert.Equal(t, order.ID, entry.Reference.ID)

	// Sweeping again is a no-op
	require.NoError(t, f.svc.CompletionSweep())
	yield, err = f.inventory.Balance(f.company.ID, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, 19, yield)
}

func TestProgressTracksRealCompletion(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Start(f.company.ID, f.machine.ID, f.product.ID, 20)
	require.NoError(t, err)

	progress, err := f.svc.Progress(f.company.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, progress)

	f.clock.Advance(time.Hour)
	progress, err = f.svc.Progress(f.company.ID, order.ID)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, progress, 1e-9)

	f.clock.Advance(3 * time.Hour)
	progress, err = f.svc.Progress(f.company.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, progress)
}

func TestListFiltersByStatus(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Start(f.company.ID, f.machine.ID, f.product.ID, 5)
	require.NoError(t, err)
	_, err = f.svc.Cancel(f.company.ID, order.ID)
	require.NoError(t, err)

	second, err := f.svc.Start(f.company.ID, f.machine.ID, f.product.ID, 5)
	require.NoError(t, err)

	inProgress := production.StatusInProgress
	orders, err := f.svc.List(f.company.ID, &inProgress, 0)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, second.ID, orders[0].ID)

	orders, err = f.svc.List(f.company.ID, nil, 0)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}
