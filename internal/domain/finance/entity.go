// internal/domain/finance/entity.go
package finance

import (
	"time"
)

// EntryDirection distinguishes money leaving or entering a company
type EntryDirection string

const (
	EntryDirectionDebit  EntryDirection = "debit"
	EntryDirectionCredit EntryDirection = "credit"
)

// Reason is the audit reason code of a ledger entry
type Reason string

const (
	ReasonMachineSetup    Reason = "machine_setup"
	ReasonMachineSale     Reason = "machine_sale"
	ReasonOperationsCost  Reason = "operations_cost"
	ReasonMaintenanceCost Reason = "maintenance_cost"
	ReasonGoodsSale       Reason = "goods_sale"
	ReasonMaterialValue   Reason = "material_value"
)

// ReferenceKind tags what a ledger entry points at
type ReferenceKind string

const (
	RefMachine     ReferenceKind = "machine"
	RefMaintenance ReferenceKind = "maintenance"
	RefProduction  ReferenceKind = "production_order"
	RefNone        ReferenceKind = ""
)

// Reference is a tagged causal link to the document that produced an entry
type Reference struct {
	Kind ReferenceKind `gorm:"column:reference_kind;size:50" json:"reference_kind"`
	ID   uint          `gorm:"column:reference_id" json:"reference_id"`
}

// LedgerEntry is one append-only row of the company financial ledger
type LedgerEntry struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CompanyID     uint           `gorm:"not null;index" json:"company_id"`
	Direction     EntryDirection `gorm:"not null;size:10" json:"direction"`
	Amount        int64          `gorm:"not null" json:"amount"` // In cents, always positive
	Reason        Reason         `gorm:"not null;size:50" json:"reason"`
	Reference     Reference      `gorm:"embedded" json:"reference"`
	BalanceAfter  int64          `gorm:"not null" json:"balance_after"`
	OccurredAt    time.Time      `gorm:"not null;index" json:"occurred_at"` // Simulated timestamp
	CorrelationID string         `gorm:"size:36;index" json:"correlation_id"`
	CreatedAt     time.Time      `json:"created_at"`
}

// TableName overrides
func (LedgerEntry) TableName() string { return "ledger_entries" }
