// internal/domain/finance/service.go
package finance

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/your-org/factory-backend/internal/domain/company"
	"github.com/your-org/factory-backend/internal/pkg/simulation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInsufficientFunds is returned when a charge would push funds below zero
var ErrInsufficientFunds = errors.New("insufficient funds")

// lockForUpdate applies a pessimistic row lock on dialects that support it.
// SQLite, used by the in-memory test databases, serializes writers itself and
// rejects FOR UPDATE.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Service appends ledger entries and keeps the company funds counter in
// lockstep. Both methods run inside the caller's transaction so money moves
// atomically with the state change that caused it.
type Service struct {
	db    *gorm.DB
	clock *simulation.Clock
}

// NewService creates a new finance service
func NewService(db *gorm.DB, clock *simulation.Clock) *Service {
	return &Service{db: db, clock: clock}
}

// ChargeTx debits the company inside the caller's transaction
func (s *Service) ChargeTx(tx *gorm.DB, companyID uint, amount int64, reason Reason, ref Reference) (*LedgerEntry, error) {
	if amount < 0 {
		return nil, fmt.Errorf("charge amount must not be negative")
	}

	var comp company.Company
	if err := lockForUpdate(tx).First(&comp, companyID).Error; err != nil {
		return nil, fmt.Errorf("failed to lock company row: %w", err)
	}

	if !comp.CanAfford(amount) {
		return nil, ErrInsufficientFunds
	}

	newBalance := comp.Funds - amount
	if err := tx.Model(&company.Company{}).Where("id = ?", companyID).
		Update("funds", newBalance).Error; err != nil {
		return nil, fmt.Errorf("failed to update funds: %w", err)
	}

	entry := &LedgerEntry{
		CompanyID:     companyID,
		Direction:     EntryDirectionDebit,
		Amount:        amount,
		Reason:        reason,
		Reference:     ref,
		BalanceAfter:  newBalance,
		OccurredAt:    s.clock.Now(),
		CorrelationID: uuid.NewString(),
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	return entry, nil
}

// CreditTx credits the company inside the caller's transaction
func (s *Service) CreditTx(tx *gorm.DB, companyID uint, amount int64, reason Reason, ref Reference) (*LedgerEntry, error) {
	if amount < 0 {
		return nil, fmt.Errorf("credit amount must not be negative")
	}

	var comp company.Company
	if err := lockForUpdate(tx).First(&comp, companyID).Error; err != nil {
		return nil, fmt.Errorf("failed to lock company row: %w", err)
	}

	newBalance := comp.Funds + amount
	if err := tx.Model(&company.Company{}).Where("id = ?", companyID).
		Update("funds", newBalance).Error; err != nil {
		return nil, fmt.Errorf("failed to update funds: %w", err)
	}

	entry := &LedgerEntry{
		CompanyID:     companyID,
		Direction:     EntryDirectionCredit,
		Amount:        amount,
		Reason:        reason,
		Reference:     ref,
		BalanceAfter:  newBalance,
		OccurredAt:    s.clock.Now(),
		CorrelationID: uuid.NewString(),
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	return entry, nil
}

// ListEntries returns the company's ledger, newest first
func (s *Service) ListEntries(companyID uint, limit int) ([]LedgerEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []LedgerEntry
	if err := s.db.Where("company_id = ?", companyID).
		Order("id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return entries, nil
}
