// internal/domain/inventory/service_test.go
package inventory_test

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/factory-backend/internal/domain/catalog"
	"github.com/your-org/factory-backend/internal/domain/inventory"
	"github.com/your-org/factory-backend/internal/domain/notification"
	"github.com/your-org/factory-backend/internal/pkg/simulation"
	"github.com/your-org/factory-backend/internal/pkg/testutil"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*inventory.Service, *gorm.DB, *simulation.Clock) {
	t.Helper()

	db := testutil.NewTestDB(t)
	clock := simulation.NewClock(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))

	log := logrus.New()
	log.SetOutput(io.Discard)

	notifier := notification.NewService(db, nil, clock, log)
	return inventory.NewService(db, clock, notifier, log), db, clock
}

func createProduct(t *testing.T, db *gorm.DB, code string, shelfLifeHours *int) *catalog.Product {
	t.Helper()
	product := &catalog.Product{Name: code, Code: code, UnitPrice: 100, ShelfLifeHours: shelfLifeHours}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestCreditCreatesLotAndBalance(t *testing.T) {
	svc, db, _ := newTestService(t)
	product := createProduct(t, db, "MAT-A", nil)

	movement, err := svc.Credit(1, product.ID, 50, inventory.Reference{Kind: inventory.RefPurchase, ID: 7})
	require.NoError(t, err)

	assert.Equal(t, inventory.DirectionIn, movement.Direction)
	assert.Equal(t, 50, movement.OriginalQuantity)
	assert.Equal(t, 50, movement.RemainingQuantity)

	balance, err := svc.Balance(1, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, balance)
}

func TestCreditRejectsNegativeQuantity(t *testing.T) {
	svc, db, _ := newTestService(t)
	product := createProduct(t, db, "MAT-A", nil)

	_, err := svc.Credit(1, product.ID, -5, inventory.Reference{})
	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)
}

func TestDebitConsumesOldestLotsFirst(t *testing.T) {
	svc, db, clock := newTestService(t)
	product := createProduct(t, db, "MAT-A", nil)

	_, err := svc.Credit(1, product.ID, 10, inventory.Reference{})
	require.NoError(t, err)
	clock.Advance(time.Hour)
	_, err = svc.Credit(1, product.ID, 10, inventory.Reference{})
	require.NoError(t, err)

	require.NoError(t, svc.Debit(1, product.ID, 15, inventory.Reference{}))

	var lots []inventory.StockMovement
	require.NoError(t, db.Where("direction = ?", inventory.DirectionIn).
		Order("moved_at ASC, id ASC").Find(&lots).Error)
	require.Len(t, lots, 2)

	// First lot fully drained, second partially
	assert.Equal(t, 0, lots[0].RemainingQuantity)
	assert.Equal(t, 10, lots[0].OriginalQuantity)
	assert.Equal(t, 5, lots[1].RemainingQuantity)
	assert.Equal(t, 10, lots[1].OriginalQuantity)

	balance, err := svc.Balance(1, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, balance)
}

func TestDebitInsufficientStockRollsBack(t *testing.T) {
	svc, db, _ := newTestService(t)
	product := createProduct(t, db, "MAT-A", nil)

	_, err := svc.Credit(1, product.ID, 100, inventory.Reference{})
	require.NoError(t, err)

	require.NoError(t, svc.Debit(1, product.ID, 30, inventory.Reference{}))

	balance, err := svc.Balance(1, product.ID)
	require.NoError(t, err)
	require.Equal(t, 70, balance)

	err = svc.Debit(1, product.ID, 80, inventory.Reference{})
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

	// The failed debit must leave lots and balance untouched
	balance, err = svc.Balance(1, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, balance)

	var open []inventory.StockMovement
	require.NoError(t, db.Where("direction = ? AND remaining_quantity > 0", inventory.DirectionIn).
		Find(&open).Error)
	total := 0
	for _, lot := range open {
		total += lot.RemainingQuantity
	}
	assert.Equal(t, 70, total)
}

func TestDebitRecordsSingleAuditMovement(t *testing.T) {
	svc, db, clock := newTestService(t)
	product := createProduct(t, db, "MAT-A", nil)

	_, err := svc.Credit(1, product.ID, 10, inventory.Reference{})
	require.NoError(t, err)
	clock.Advance(time.Hour)
	_, err = svc.Credit(1, product.ID, 10, inventory.Reference{})
	require.NoError(t, err)

	require.NoError(t, svc.Debit(1, product.ID, 15, inventory.Reference{Kind: inventory.RefSale, ID: 3}))

	var outs []inventory.StockMovement
	require.NoError(t, db.Where("direction = ?", inventory.DirectionOut).Find(&outs).Error)
	require.Len(t, outs, 1)
	assert.Equal(t, 15, outs[0].OriginalQuantity)
	assert.Equal(t, 0, outs[0].RemainingQuantity)
	assert.Equal(t, inventory.RefSale, outs[0].Reference.Kind)
}

func TestBalanceMatchesOpenLotsAfterMixedSequence(t *testing.T) {
	svc, db, clock := newTestService(t)
	product := createProduct(t, db, "MAT-A", nil)

	quantities := []int{5, 20, 1, 14}
	for _, q := range quantities {
		_, err := svc.Credit(1, product.ID, q, inventory.Reference{})
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}
	require.NoError(t, svc.Debit(1, product.ID, 7, inventory.Reference{}))
	require.NoError(t, svc.Debit(1, product.ID, 19, inventory.Reference{}))
	_, err := svc.Credit(1, product.ID, 3, inventory.Reference{})
	require.NoError(t, err)

	var open []inventory.StockMovement
	require.NoError(t, db.Where("direction = ? AND remaining_quantity > 0", inventory.DirectionIn).
		Find(&open).Error)
	total := 0
	for _, lot := range open {
		total += lot.RemainingQuantity
	}

	balance, err := svc.Balance(1, product.ID)
	require.NoError(t, err)
	assert.Equal(t, total, balance)
	assert.Equal(t, 5+20+1+14-7-19+3, balance)
}

func TestHasSufficientStock(t *testing.T) {
	svc, db, _ := newTestService(t)
	product := createProduct(t, db, "MAT-A", nil)

	_, err := svc.Credit(1, product.ID, 10, inventory.Reference{})
	require.NoError(t, err)

	ok, err := svc.HasSufficientStock(1, product.ID, 10)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasSufficientStock(1, product.ID, 11)
	require.NoError(t, err)
	assert.False(t, ok)

	// Unknown product reads as zero stock, not an error
	ok, err = svc.HasSufficientStock(1, 9999, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpireZeroesOverdueLots(t *testing.T) {
	svc, db, clock := newTestService(t)
	shelfLife := 72
	perishable := createProduct(t, db, "MAT-FRESH", &shelfLife)
	durable := createProduct(t, db, "MAT-STEEL", nil)

	_, err := svc.Credit(1, perishable.ID, 40, inventory.Reference{})
	require.NoError(t, err)
	_, err = svc.Credit(1, durable.ID, 40, inventory.Reference{})
	require.NoError(t, err)

	clock.Advance(50 * time.Hour)
	_, err = svc.Credit(1, perishable.ID, 10, inventory.Reference{})
	require.NoError(t, err)

	clock.Advance(30 * time.Hour) // First perishable lot is now 80h old

	require.NoError(t, svc.Expire(1))

	balance, err := svc.Balance(1, perishable.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, balance)

	balance, err = svc.Balance(1, durable.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, balance)

	var expired []inventory.StockMovement
	require.NoError(t, db.Where("direction = ?", inventory.DirectionExpired).Find(&expired).Error)
	require.Len(t, expired, 1)
	assert.Equal(t, 40, expired[0].OriginalQuantity)

	// Expiry is idempotent once lots are drained
	require.NoError(t, svc.Expire(1))
	balance, err = svc.Balance(1, perishable.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, balance)
}

func TestCompaniesDoNotShareStock(t *testing.T) {
	svc, db, _ := newTestService(t)
	product := createProduct(t, db, "MAT-A", nil)

	_, err := svc.Credit(1, product.ID, 10, inventory.Reference{})
	require.NoError(t, err)

	err = svc.Debit(2, product.ID, 5, inventory.Reference{})
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
}
