// internal/domain/company/entity.go
package company

import (
	"time"

	"gorm.io/gorm"
)

// Company represents a player-controlled company. Funds and carbon footprint
// are denormalized counters kept in lockstep with the financial ledger and
// production completions.
type Company struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Name            string         `gorm:"not null;size:100" json:"name"`
	Email           string         `gorm:"uniqueIndex;not null;size:255" json:"email"`
	PasswordHash    string         `gorm:"not null;size:255" json:"-"`
	Funds           int64          `gorm:"not null;default:0" json:"funds"` // In cents
	CarbonFootprint float64        `gorm:"not null;default:0" json:"carbon_footprint"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides
func (Company) TableName() string { return "companies" }

// CanAfford checks whether the company has at least amount cents available
func (c *Company) CanAfford(amount int64) bool {
	return c.Funds >= amount
}
