// internal/domain/machine/entity.go
package machine

import (
	"time"

	"github.com/your-org/factory-backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// Status represents the state of an acquired machine instance
type Status string

const (
	StatusInactive    Status = "inactive"
	StatusActive      Status = "active"
	StatusMaintenance Status = "maintenance"
	StatusBroken      Status = "broken"
	StatusSold        Status = "sold" // Terminal
)

// MaintenanceType distinguishes planned from repair maintenance
type MaintenanceType string

const (
	MaintenancePredictive MaintenanceType = "predictive"
	MaintenanceCorrective MaintenanceType = "corrective"
)

// MaintenanceStatus represents the state of a maintenance run
type MaintenanceStatus string

const (
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceCompleted  MaintenanceStatus = "completed"
	MaintenanceCancelled  MaintenanceStatus = "cancelled"
)

// CompanyMachine is an acquired, company-owned machine instance. Speed,
// quality factor, operations cost and carbon footprint are resolved once at
// setup from the template bounds and never change afterwards.
type CompanyMachine struct {
	ID                 uint   `gorm:"primaryKey" json:"id"`
	CompanyID          uint   `gorm:"not null;index" json:"company_id"`
	MachineTemplateID  uint   `gorm:"not null;index" json:"machine_template_id"`
	AssignedEmployeeID *uint  `gorm:"index" json:"assigned_employee_id"`
	Status             Status `gorm:"not null;default:'inactive'" json:"status"`

	Speed           float64 `gorm:"not null" json:"speed"` // Units per simulated hour
	QualityFactor   float64 `gorm:"not null" json:"quality_factor"`
	OperationsCost  float64 `gorm:"not null" json:"operations_cost"`  // Cents per unit produced
	CarbonFootprint float64 `gorm:"not null" json:"carbon_footprint"` // Kg CO2 per unit produced

	CurrentReliability       float64 `gorm:"not null;default:1" json:"current_reliability"` // In [0, 1]
	ReliabilityDecayPerTick  float64 `gorm:"not null" json:"reliability_decay_per_tick"`
	MaintenanceCost          int64   `gorm:"not null" json:"maintenance_cost"` // In cents
	MaintenanceDurationHours int     `gorm:"not null" json:"maintenance_duration_hours"`

	AcquiredAt time.Time      `gorm:"not null" json:"acquired_at"` // Simulated timestamp
	SoldAt     *time.Time     `json:"sold_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Template MachineTemplateRef `gorm:"foreignKey:MachineTemplateID" json:"template,omitempty"`
	Employee *catalog.Employee  `gorm:"foreignKey:AssignedEmployeeID" json:"employee,omitempty"`
}

// MachineTemplateRef aliases the catalog template for preloads
type MachineTemplateRef = catalog.MachineTemplate

// Maintenance is one maintenance run on a machine. At most one run may be
// in progress per machine, and while one exists the machine status must be
// "maintenance".
type Maintenance struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	CompanyMachineID uint              `gorm:"not null;index" json:"company_machine_id"`
	Type             MaintenanceType   `gorm:"not null;size:20" json:"type"`
	Status           MaintenanceStatus `gorm:"not null;size:20;index" json:"status"`
	Cost             int64             `gorm:"not null" json:"cost"` // In cents
	DurationHours    int               `gorm:"not null" json:"duration_hours"`
	StartedAt        time.Time         `gorm:"not null" json:"started_at"` // Simulated timestamp
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`

	// Relationships
	Machine CompanyMachine `gorm:"foreignKey:CompanyMachineID" json:"machine,omitempty"`
}

// TableName overrides
func (CompanyMachine) TableName() string { return "company_machines" }
func (Maintenance) TableName() string    { return "maintenances" }

// IsTerminal reports whether the machine reached its terminal state
func (m *CompanyMachine) IsTerminal() bool {
	return m.Status == StatusSold
}

// CanStartProduction checks the machine-side preconditions for a new run
func (m *CompanyMachine) CanStartProduction() bool {
	return m.Status == StatusInactive && m.AssignedEmployeeID != nil
}

// CanStartMaintenance checks whether maintenance may begin
func (m *CompanyMachine) CanStartMaintenance() bool {
	return m.Status == StatusInactive || m.Status == StatusBroken
}

// SweepsReliability reports whether the reliability decay applies this tick
func (m *CompanyMachine) SweepsReliability() bool {
	return m.Status == StatusActive || m.Status == StatusInactive
}

// DueAt returns the simulated completion time of a maintenance run
func (mt *Maintenance) DueAt() time.Time {
	return mt.StartedAt.Add(time.Duration(mt.DurationHours) * time.Hour)
}
