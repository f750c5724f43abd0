// internal/domain/catalog/service.go
package catalog

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Sentinel errors for catalog lookups
var (
	ErrProductNotFound  = errors.New("product not found")
	ErrTemplateNotFound = errors.New("machine template not found")
	ErrEmployeeNotFound = errors.New("employee not found")
)

// Service handles catalog lookups the simulation core depends on
type Service struct {
	db *gorm.DB
}

// NewService creates a new catalog service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// GetProduct fetches a product with its recipe lines
func (s *Service) GetProduct(productID uint) (*Product, error) {
	var product Product
	if err := s.db.Preload("Recipe", func(db *gorm.DB) *gorm.DB {
		return db.Order("recipe_lines.sort_order ASC, recipe_lines.id ASC")
	}).Preload("Recipe.Material").First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}
	return &product, nil
}

// GetTemplate fetches a machine template
func (s *Service) GetTemplate(templateID uint) (*MachineTemplate, error) {
	var template MachineTemplate
	if err := s.db.First(&template, templateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to fetch machine template: %w", err)
	}
	return &template, nil
}

// TemplateCanProduce checks whether a template lists the product as an output
func (s *Service) TemplateCanProduce(templateID, productID uint) (bool, error) {
	var count int64
	err := s.db.Table("machine_template_products").
		Where("machine_template_id = ? AND product_id = ?", templateID, productID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check template outputs: %w", err)
	}
	return count > 0, nil
}

// IsResearched checks whether the company has unlocked the product
func (s *Service) IsResearched(companyID, productID uint) (bool, error) {
	var count int64
	err := s.db.Model(&CompanyResearch{}).
		Where("company_id = ? AND product_id = ?", companyID, productID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check research: %w", err)
	}
	return count > 0, nil
}

// GetEmployee fetches an employee owned by the company
func (s *Service) GetEmployee(companyID, employeeID uint) (*Employee, error) {
	var employee Employee
	err := s.db.Where("id = ? AND company_id = ?", employeeID, companyID).First(&employee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to fetch employee: %w", err)
	}
	return &employee, nil
}

// UnlockProduct marks a product as researched for the company
func (s *Service) UnlockProduct(companyID, productID uint, now time.Time) error {
	research := &CompanyResearch{
		CompanyID:    companyID,
		ProductID:    productID,
		ResearchedAt: now,
	}
	if err := s.db.Where("company_id = ? AND product_id = ?", companyID, productID).
		FirstOrCreate(research).Error; err != nil {
		return fmt.Errorf("failed to unlock product: %w", err)
	}
	return nil
}

// ListProducts returns all catalog products
func (s *Service) ListProducts() ([]Product, error) {
	var products []Product
	if err := s.db.Order("id ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// ListTemplates returns all machine templates
func (s *Service) ListTemplates() ([]MachineTemplate, error) {
	var templates []MachineTemplate
	if err := s.db.Preload("Products").Order("id ASC").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("failed to list machine templates: %w", err)
	}
	return templates, nil
}

// ListEmployees returns the company's employees
func (s *Service) ListEmployees(companyID uint) ([]Employee, error) {
	var employees []Employee
	if err := s.db.Where("company_id = ?", companyID).Order("id ASC").Find(&employees).Error; err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, nil
}
