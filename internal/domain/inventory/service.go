// internal/domain/inventory/service.go
package inventory

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/factory-backend/internal/domain/catalog"
	"github.com/your-org/factory-backend/internal/domain/notification"
	"github.com/your-org/factory-backend/internal/pkg/simulation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sentinel errors for ledger operations
var (
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrBalanceCorruption = errors.New("stock balance does not match open lots")
)

// Service is the FIFO inventory ledger: an append-only movement log plus a
// denormalized per-(company, product) balance, mutated together inside one
// transaction.
type Service struct {
	db       *gorm.DB
	clock    *simulation.Clock
	notifier *notification.Service
	logger   *logrus.Logger
}

// NewService creates a new inventory service
func NewService(db *gorm.DB, clock *simulation.Clock, notifier *notification.Service, logger *logrus.Logger) *Service {
	return &Service{
		db:       db,
		clock:    clock,
		notifier: notifier,
		logger:   logger,
	}
}

// lockForUpdate applies a pessimistic row lock on dialects that support it.
// SQLite, used by the in-memory test databases, serializes writers itself and
// rejects FOR UPDATE.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Credit creates a new in-lot and increments the cached balance
func (s *Service) Credit(companyID, productID uint, quantity int, ref Reference) (*StockMovement, error) {
	var movement *StockMovement
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		movement, err = s.CreditTx(tx, companyID, productID, quantity, ref)
		return err
	})
	return movement, err
}

// CreditTx creates a new in-lot inside the caller's transaction
func (s *Service) CreditTx(tx *gorm.DB, companyID, productID uint, quantity int, ref Reference) (*StockMovement, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	movement := &StockMovement{
		CompanyID:         companyID,
		ProductID:         productID,
		Direction:         DirectionIn,
		OriginalQuantity:  quantity,
		RemainingQuantity: quantity,
		MovedAt:           s.clock.Now(),
		Reference:         ref,
	}
	if err := tx.Create(movement).Error; err != nil {
		return nil, fmt.Errorf("failed to create in movement: %w", err)
	}

	if err := s.adjustBalanceTx(tx, companyID, productID, quantity); err != nil {
		return nil, err
	}

	return movement, nil
}

// DebitTx FIFO-consumes open lots inside the caller's transaction and
// returns the quantity actually consumed, which may be less than requested.
// Callers for which partial consumption is unacceptable must use
// DebitExactTx or validate sufficiency inside the same transaction.
func (s *Service) DebitTx(tx *gorm.DB, companyID, productID uint, quantity int, direction Direction, ref Reference) (int, error) {
	if quantity < 0 {
		return 0, ErrInvalidQuantity
	}
	if quantity == 0 {
		return 0, nil
	}

	// Lock the open lots for the FIFO scan so concurrent debits cannot see
	// the same remaining stock and double-spend it. Ties on moved_at break
	// by insertion order to keep consumption deterministic.
	var lots []StockMovement
	if err := lockForUpdate(tx).
		Where("company_id = ? AND product_id = ? AND direction = ? AND remaining_quantity > 0",
			companyID, productID, DirectionIn).
		Order("moved_at ASC, id ASC").
		Find(&lots).Error; err != nil {
		return 0, fmt.Errorf("failed to fetch open lots: %w", err)
	}

	takes, consumed := allocateFIFO(lots, quantity)
	for i, take := range takes {
		if take == 0 {
			continue
		}
		newRemaining := lots[i].RemainingQuantity - take
		if newRemaining < 0 {
			return 0, ErrBalanceCorruption
		}
		if err := tx.Model(&StockMovement{}).Where("id = ?", lots[i].ID).
			Update("remaining_quantity", newRemaining).Error; err != nil {
			return 0, fmt.Errorf("failed to drain lot %d: %w", lots[i].ID, err)
		}
	}

	if consumed > 0 {
		// Single audit record carrying the quantity actually consumed
		outMovement := &StockMovement{
			CompanyID:         companyID,
			ProductID:         productID,
			Direction:         direction,
			OriginalQuantity:  consumed,
			RemainingQuantity: 0,
			MovedAt:           s.clock.Now(),
			Reference:         ref,
		}
		if err := tx.Create(outMovement).Error; err != nil {
			return 0, fmt.Errorf("failed to create out movement: %w", err)
		}

		if err := s.adjustBalanceTx(tx, companyID, productID, -consumed); err != nil {
			return 0, err
		}
	}

	return consumed, nil
}

// DebitExactTx consumes exactly quantity or fails with ErrInsufficientStock,
// leaving the rollback of the enclosing transaction to undo partial work
func (s *Service) DebitExactTx(tx *gorm.DB, companyID, productID uint, quantity int, ref Reference) error {
	consumed, err := s.DebitTx(tx, companyID, productID, quantity, DirectionOut, ref)
	if err != nil {
		return err
	}
	if consumed < quantity {
		return fmt.Errorf("%w: requested %d, available %d", ErrInsufficientStock, quantity, consumed)
	}
	return nil
}

// Debit consumes exactly quantity in its own transaction
func (s *Service) Debit(companyID, productID uint, quantity int, ref Reference) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.DebitExactTx(tx, companyID, productID, quantity, ref)
	})
}

// HasSufficientStock checks the cached balance without locking. Check-then-act
// sequences must re-validate inside the debiting transaction.
func (s *Service) HasSufficientStock(companyID, productID uint, quantity int) (bool, error) {
	balance, err := s.Balance(companyID, productID)
	if err != nil {
		return false, err
	}
	return balance >= quantity, nil
}

// Balance returns the cached available stock for a (company, product) pair
func (s *Service) Balance(companyID, productID uint) (int, error) {
	var balance StockBalance
	err := s.db.Where("company_id = ? AND product_id = ?", companyID, productID).First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to fetch stock balance: %w", err)
	}
	return balance.Quantity, nil
}

// adjustBalanceTx moves the cached balance by delta, creating the row on
// first credit. The balance must never go negative.
func (s *Service) adjustBalanceTx(tx *gorm.DB, companyID, productID uint, delta int) error {
	var balance StockBalance
	err := lockForUpdate(tx).
		Where("company_id = ? AND product_id = ?", companyID, productID).
		First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if delta < 0 {
			return ErrBalanceCorruption
		}
		balance = StockBalance{CompanyID: companyID, ProductID: productID, Quantity: delta}
		if err := tx.Create(&balance).Error; err != nil {
			return fmt.Errorf("failed to create stock balance: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to lock stock balance: %w", err)
	}

	newQuantity := balance.Quantity + delta
	if newQuantity < 0 {
		return ErrBalanceCorruption
	}
	if err := tx.Model(&StockBalance{}).Where("id = ?", balance.ID).
		Update("quantity", newQuantity).Error; err != nil {
		return fmt.Errorf("failed to update stock balance: %w", err)
	}
	return nil
}

// Expire zeroes out lots of perishable products whose shelf life has elapsed
// and emits one notification per product with the total expired quantity
func (s *Service) Expire(companyID uint) error {
	now := s.clock.Now()

	var products []catalog.Product
	if err := s.db.Where("shelf_life_hours IS NOT NULL").Find(&products).Error; err != nil {
		return fmt.Errorf("failed to fetch perishable products: %w", err)
	}

	for _, product := range products {
		if !product.IsPerishable() {
			continue
		}

		expired := 0
		err := s.db.Transaction(func(tx *gorm.DB) error {
			cutoff := now.Add(-time.Duration(*product.ShelfLifeHours) * time.Hour)

			var lots []StockMovement
			if err := lockForUpdate(tx).
				Where("company_id = ? AND product_id = ? AND direction = ? AND remaining_quantity > 0 AND moved_at <= ?",
					companyID, product.ID, DirectionIn, cutoff).
				Order("moved_at ASC, id ASC").
				Find(&lots).Error; err != nil {
				return fmt.Errorf("failed to fetch expired lots: %w", err)
			}
			if len(lots) == 0 {
				return nil
			}

			for _, lot := range lots {
				expired += lot.RemainingQuantity
				if err := tx.Model(&StockMovement{}).Where("id = ?", lot.ID).
					Update("remaining_quantity", 0).Error; err != nil {
					return fmt.Errorf("failed to zero out lot %d: %w", lot.ID, err)
				}
			}

			movement := &StockMovement{
				CompanyID:         companyID,
				ProductID:         product.ID,
				Direction:         DirectionExpired,
				OriginalQuantity:  expired,
				RemainingQuantity: 0,
				MovedAt:           now,
			}
			if err := tx.Create(movement).Error; err != nil {
				return fmt.Errorf("failed to create expired movement: %w", err)
			}

			return s.adjustBalanceTx(tx, companyID, product.ID, -expired)
		})
		if err != nil {
			// Isolate per-product failures so the sweep continues
			s.logger.WithError(err).WithFields(logrus.Fields{
				"company_id": companyID,
				"product_id": product.ID,
			}).Error("expiry sweep failed for product")
			continue
		}

		if expired > 0 {
			s.notifier.Notify(companyID, notification.EventInventoryExpired, map[string]interface{}{
				"product_id":       product.ID,
				"product_name":     product.Name,
				"expired_quantity": expired,
			})
		}
	}

	return nil
}

// ListMovements returns the movement history for a company, newest first
func (s *Service) ListMovements(companyID uint, productID *uint, limit int) ([]StockMovement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := s.db.Where("company_id = ?", companyID)
	if productID != nil {
		query = query.Where("product_id = ?", *productID)
	}
	var movements []StockMovement
	if err := query.Order("id DESC").Limit(limit).Find(&movements).Error; err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", err)
	}
	return movements, nil
}

// ListBalances returns all cached balances for a company
func (s *Service) ListBalances(companyID uint) ([]StockBalance, error) {
	var balances []StockBalance
	if err := s.db.Where("company_id = ?", companyID).Order("product_id ASC").Find(&balances).Error; err != nil {
		return nil, fmt.Errorf("failed to list stock balances: %w", err)
	}
	return balances, nil
}
