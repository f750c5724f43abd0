// internal/domain/notification/entity.go
package notification

import (
	"time"
)

// EventType identifies what happened
type EventType string

const (
	EventMachineBreakdown    EventType = "machine_breakdown"
	EventLowReliability      EventType = "low_reliability"
	EventMaintenanceStarted  EventType = "maintenance_started"
	EventMaintenanceDone     EventType = "maintenance_completed"
	EventProductionStarted   EventType = "production_started"
	EventProductionCompleted EventType = "production_completed"
	EventProductionCancelled EventType = "production_cancelled"
	EventInventoryExpired    EventType = "inventory_expired"
	EventMachineSold         EventType = "machine_sold"
)

// Notification is a persisted event for a company, also fanned out over
// the redis pub/sub channel
type Notification struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"` // uuid
	CompanyID  uint      `gorm:"not null;index" json:"company_id"`
	EventType  EventType `gorm:"not null;size:50;index" json:"event_type"`
	Payload    string    `gorm:"type:text" json:"payload"` // JSON
	OccurredAt time.Time `gorm:"not null;index" json:"occurred_at"` // Simulated timestamp
	CreatedAt  time.Time `json:"created_at"`
}

// TableName overrides
func (Notification) TableName() string { return "notifications" }
