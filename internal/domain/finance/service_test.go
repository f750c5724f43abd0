// internal/domain/finance/service_test.go
package finance_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/factory-backend/internal/domain/company"
	"github.com/your-org/factory-backend/internal/domain/finance"
	"github.com/your-org/factory-backend/internal/pkg/simulation"
	"github.com/your-org/factory-backend/internal/pkg/testutil"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*finance.Service, *gorm.DB, *company.Company) {
	t.Helper()

	db := testutil.NewTestDB(t)
	clock := simulation.NewClock(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	svc := finance.NewService(db, clock)

	comp := &company.Company{Name: "Acme", Email: "acme@example.com", PasswordHash: "x", Funds: 1000}
	require.NoError(t, db.Create(comp).Error)

	return svc, db, comp
}

func TestChargeDebitsFundsAndAppendsEntry(t *testing.T) {
	svc, db, comp := newTestService(t)

	var entry *finance.LedgerEntry
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = svc.ChargeTx(tx, comp.ID, 300, finance.ReasonMaintenanceCost,
			finance.Reference{Kind: finance.RefMaintenance, ID: 9})
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, finance.EntryDirectionDebit, entry.Direction)
	assert.Equal(t, int64(300), entry.Amount)
	assert.Equal(t, int64(700), entry.BalanceAfter)
	assert.NotEmpty(t, entry.CorrelationID)
	assert.Equal(t, finance.RefMaintenance, entry.Reference.Kind)

	var after company.Company
	require.NoError(t, db.First(&after, comp.ID).Error)
	assert.Equal(t, int64(700), after.Funds)
}

func TestChargeRejectsOverdraft(t *testing.T) {
	svc, db, comp := newTestService(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.ChargeTx(tx, comp.ID, 1001, finance.ReasonMachineSetup, finance.Reference{})
		return err
	})
	assert.ErrorIs(t, err, finance.ErrInsufficientFunds)

	var after company.Company
	require.NoError(t, db.First(&after, comp.ID).Error)
	assert.Equal(t, int64(1000), after.Funds)

	var count int64
	require.NoError(t, db.Model(&finance.LedgerEntry{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreditIncreasesFunds(t *testing.T) {
	svc, db, comp := newTestService(t)

	var entry *finance.LedgerEntry
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = svc.CreditTx(tx, comp.ID, 250, finance.ReasonGoodsSale, finance.Reference{})
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, finance.EntryDirectionCredit, entry.Direction)
	assert.Equal(t, int64(1250), entry.BalanceAfter)
}

func TestBalanceAfterChainsAcrossEntries(t *testing.T) {
	svc, db, comp := newTestService(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := svc.ChargeTx(tx, comp.ID, 400, finance.ReasonMachineSetup, finance.Reference{}); err != nil {
			return err
		}
		if _, err := svc.CreditTx(tx, comp.ID, 100, finance.ReasonMachineSale, finance.Reference{}); err != nil {
			return err
		}
		_, err := svc.ChargeTx(tx, comp.ID, 700, finance.ReasonOperationsCost, finance.Reference{})
		return err
	})
	require.NoError(t, err)

	entries, err := svc.ListEntries(comp.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Newest first
	assert.Equal(t, int64(0), entries[0].BalanceAfter)
	assert.Equal(t, int64(700), entries[1].BalanceAfter)
	assert.Equal(t, int64(600), entries[2].BalanceAfter)
}
