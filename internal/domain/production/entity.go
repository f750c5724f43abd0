// internal/domain/production/entity.go
package production

import (
	"time"
)

// Status represents the state of a production order
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed" // Terminal
	StatusCancelled  Status = "cancelled" // Terminal
)

// ProductionOrder is one manufacturing run on a machine. The real completion
// time is fixed at creation from a hidden speed draw; the estimated time is
// what the owner sees.
type ProductionOrder struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	CompanyID uint   `gorm:"not null;index" json:"company_id"`
	MachineID uint   `gorm:"not null;index" json:"machine_id"`
	ProductID uint   `gorm:"not null;index" json:"product_id"`
	Quantity  int    `gorm:"not null" json:"quantity"`
	Status    Status `gorm:"not null;size:20;index" json:"status"`

	RealSpeed            float64    `gorm:"not null" json:"-"` // Units per simulated hour, hidden
	StartedAt            time.Time  `gorm:"not null" json:"started_at"`                        // Simulated
	EstimatedCompletedAt time.Time  `gorm:"not null" json:"estimated_completed_at"`            // Simulated
	RealCompletedAt      time.Time  `gorm:"not null;index" json:"-"`                           // Simulated, hidden
	FinishedAt           *time.Time `json:"finished_at,omitempty"`                             // Simulated

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides
func (ProductionOrder) TableName() string { return "production_orders" }

// IsTerminal reports whether the order reached a final state
func (o *ProductionOrder) IsTerminal() bool {
	return o.Status == StatusCompleted || o.Status == StatusCancelled
}

// ProgressAt returns the completion percentage at a simulated instant,
// measured against the real completion time and clamped to [0, 100]
func (o *ProductionOrder) ProgressAt(now time.Time) float64 {
	if o.Status == StatusCompleted {
		return 100
	}
	total := o.RealCompletedAt.Sub(o.StartedAt)
	if total <= 0 {
		return 0
	}
	elapsed := now.Sub(o.StartedAt)
	if elapsed <= 0 {
		return 0
	}
	progress := float64(elapsed) / float64(total) * 100
	if progress > 100 {
		return 100
	}
	return progress
}
