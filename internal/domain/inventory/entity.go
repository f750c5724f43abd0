// internal/domain/inventory/entity.go
package inventory

import (
	"time"
)

// Direction represents the direction of a stock movement
type Direction string

const (
	DirectionIn      Direction = "in"      // Purchase delivery, production output
	DirectionOut     Direction = "out"     // Sale, production consumption
	DirectionExpired Direction = "expired" // Shelf life elapsed
	DirectionDamaged Direction = "damaged"
	DirectionLost    Direction = "lost"
)

// ReferenceKind tags the document that caused a movement
type ReferenceKind string

const (
	RefPurchase   ReferenceKind = "purchase"
	RefProduction ReferenceKind = "production_order"
	RefSale       ReferenceKind = "sale"
	RefNone       ReferenceKind = ""
)

// Reference is a tagged causal link from a movement to its source document
type Reference struct {
	Kind ReferenceKind `gorm:"column:reference_kind;size:50" json:"reference_kind"`
	ID   uint          `gorm:"column:reference_id" json:"reference_id"`
}

// StockMovement is one row of the append-only movement ledger. A movement
// with direction "in" acts as a lot: OriginalQuantity never changes while
// RemainingQuantity is drained by FIFO consumption until it reaches zero.
// Rows are never deleted.
type StockMovement struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	CompanyID         uint      `gorm:"not null;index:idx_stock_moves_scope,priority:1" json:"company_id"`
	ProductID         uint      `gorm:"not null;index:idx_stock_moves_scope,priority:2" json:"product_id"`
	Direction         Direction `gorm:"not null;size:10" json:"direction"`
	OriginalQuantity  int       `gorm:"not null" json:"original_quantity"`
	RemainingQuantity int       `gorm:"not null" json:"remaining_quantity"`
	MovedAt           time.Time `gorm:"not null;index:idx_stock_moves_scope,priority:3" json:"moved_at"` // Simulated timestamp
	Reference         Reference `gorm:"embedded" json:"reference"`
	CreatedAt         time.Time `json:"created_at"`
}

// StockBalance is the denormalized available-stock counter for a
// (company, product) pair. Kept in lockstep with the ledger inside the same
// transaction; the invariant is balance == sum of remaining quantities over
// open lots.
type StockBalance struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CompanyID uint      `gorm:"not null;uniqueIndex:idx_stock_balance,priority:1" json:"company_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_stock_balance,priority:2" json:"product_id"`
	Quantity  int       `gorm:"not null;default:0" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides
func (StockMovement) TableName() string { return "stock_movements" }
func (StockBalance) TableName() string  { return "stock_balances" }

// IsOpenLot reports whether the movement is an in-lot with stock left
func (m *StockMovement) IsOpenLot() bool {
	return m.Direction == DirectionIn && m.RemainingQuantity > 0
}
