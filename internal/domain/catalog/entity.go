// internal/domain/catalog/entity.go
package catalog

import (
	"time"

	"gorm.io/gorm"
)

// Product represents a producible or purchasable good
type Product struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Name           string         `gorm:"not null;size:100" json:"name"`
	Code           string         `gorm:"uniqueIndex;not null;size:50" json:"code"`
	UnitPrice      int64          `gorm:"not null;default:0" json:"unit_price"` // In cents
	ShelfLifeHours *int           `json:"shelf_life_hours,omitempty"`           // Nil means non-perishable
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Recipe []RecipeLine `gorm:"foreignKey:ProductID" json:"recipe,omitempty"`
}

// RecipeLine is one (material, quantity-per-output-unit) pair of a recipe
type RecipeLine struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProductID  uint      `gorm:"not null;index" json:"product_id"`
	MaterialID uint      `gorm:"not null;index" json:"material_id"`
	Quantity   int       `gorm:"not null" json:"quantity"` // Per unit of output
	SortOrder  int       `gorm:"default:0" json:"sort_order"`
	CreatedAt  time.Time `json:"created_at"`

	// Relationships
	Material Product `gorm:"foreignKey:MaterialID" json:"material,omitempty"`
}

// MachineTemplate is the shared blueprint a company buys machine instances from.
// Speed, quality, operations cost and carbon footprint are bounds; the actual
// values of an instance are resolved once at setup.
type MachineTemplate struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"not null;size:100" json:"name"`
	Price int64  `gorm:"not null" json:"price"` // In cents

	SpeedMin float64 `gorm:"not null" json:"speed_min"` // Units per simulated hour
	SpeedAvg float64 `gorm:"not null" json:"speed_avg"`
	SpeedMax float64 `gorm:"not null" json:"speed_max"`

	QualityMin float64 `gorm:"not null;default:1" json:"quality_min"`
	QualityAvg float64 `gorm:"not null;default:1" json:"quality_avg"`
	QualityMax float64 `gorm:"not null;default:1" json:"quality_max"`

	OperationsCostMin float64 `gorm:"not null;default:0" json:"operations_cost_min"` // Cents per unit produced
	OperationsCostAvg float64 `gorm:"not null;default:0" json:"operations_cost_avg"`
	OperationsCostMax float64 `gorm:"not null;default:0" json:"operations_cost_max"`

	CarbonFootprintMin float64 `gorm:"not null;default:0" json:"carbon_footprint_min"` // Kg CO2 per unit produced
	CarbonFootprintAvg float64 `gorm:"not null;default:0" json:"carbon_footprint_avg"`
	CarbonFootprintMax float64 `gorm:"not null;default:0" json:"carbon_footprint_max"`

	ReliabilityDecayPerTick  float64 `gorm:"not null;default:0.001" json:"reliability_decay_per_tick"`
	MaintenanceCost          int64   `gorm:"not null;default:0" json:"maintenance_cost"` // In cents
	MaintenanceDurationHours int     `gorm:"not null;default:8" json:"maintenance_duration_hours"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Products []Product `gorm:"many2many:machine_template_products" json:"products,omitempty"`
}

// Employee is a company worker that can be assigned to a machine
type Employee struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	CompanyID        uint           `gorm:"not null;index" json:"company_id"`
	Name             string         `gorm:"not null;size:100" json:"name"`
	EfficiencyFactor float64        `gorm:"not null;default:1" json:"efficiency_factor"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// CompanyResearch marks a product as unlocked for a company
type CompanyResearch struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CompanyID    uint      `gorm:"not null;uniqueIndex:idx_company_research,priority:1" json:"company_id"`
	ProductID    uint      `gorm:"not null;uniqueIndex:idx_company_research,priority:2" json:"product_id"`
	ResearchedAt time.Time `json:"researched_at"`
}

// TableName overrides
func (Product) TableName() string         { return "products" }
func (RecipeLine) TableName() string      { return "recipe_lines" }
func (MachineTemplate) TableName() string { return "machine_templates" }
func (Employee) TableName() string        { return "employees" }
func (CompanyResearch) TableName() string { return "company_research" }

// IsPerishable reports whether the product expires
func (p *Product) IsPerishable() bool {
	return p.ShelfLifeHours != nil && *p.ShelfLifeHours > 0
}
