// internal/domain/production/service.go
package production

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/factory-backend/internal/domain/catalog"
	"github.com/your-org/factory-backend/internal/domain/company"
	"github.com/your-org/factory-backend/internal/domain/finance"
	"github.com/your-org/factory-backend/internal/domain/inventory"
	"github.com/your-org/factory-backend/internal/domain/machine"
	"github.com/your-org/factory-backend/internal/domain/notification"
	"github.com/your-org/factory-backend/internal/pkg/simulation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sentinel errors for production order operations
var (
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrOrderNotFound        = errors.New("production order not found")
	ErrOrderNotInProgress   = errors.New("production order is not in progress")
	ErrProductNotResearched = errors.New("product has not been researched")
	ErrProductNotSupported  = errors.New("machine cannot produce this product")
	ErrMachineUnavailable   = errors.New("machine is not available for production")
	ErrNoEmployeeAssigned   = errors.New("machine has no assigned employee")
)

// Randomizer is the source of bounded random draws for the hidden order speed
type Randomizer interface {
	Resolve(min, max float64) float64
}

// Service runs production orders: materials are consumed up front, the order
// runs against a hidden resolved speed, and the completion sweep credits the
// yield. Cancelling never refunds consumed materials.
type Service struct {
	db        *gorm.DB
	clock     *simulation.Clock
	random    Randomizer
	catalog   *catalog.Service
	inventory *inventory.Service
	finance   *finance.Service
	notifier  *notification.Service
	logger    *logrus.Logger
}

// NewService creates a new production service
func NewService(db *gorm.DB, clock *simulation.Clock, random Randomizer, catalogService *catalog.Service, inventoryService *inventory.Service, financeService *finance.Service, notifier *notification.Service, logger *logrus.Logger) *Service {
	return &Service{
		db:        db,
		clock:     clock,
		random:    random,
		catalog:   catalogService,
		inventory: inventoryService,
		finance:   financeService,
		notifier:  notifier,
		logger:    logger,
	}
}

func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Start validates the preconditions, consumes the recipe materials and puts
// the order directly in progress. The real speed is drawn from the template
// bounds, adjusted by the operator's efficiency and clamped back into the
// bounds; the owner only sees the estimate derived from the machine's rated
// speed.
func (s *Service) Start(companyID, machineID, productID uint, quantity int) (*ProductionOrder, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	researched, err := s.catalog.IsResearched(companyID, productID)
	if err != nil {
		return nil, err
	}
	if !researched {
		return nil, ErrProductNotResearched
	}

	product, err := s.catalog.GetProduct(productID)
	if err != nil {
		return nil, err
	}

	var order *ProductionOrder
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var m machine.CompanyMachine
		err := lockForUpdate(tx).
			Where("id = ? AND company_id = ?", machineID, companyID).
			First(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return machine.ErrMachineNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock machine: %w", err)
		}

		canProduce, err := s.catalog.TemplateCanProduce(m.MachineTemplateID, productID)
		if err != nil {
			return err
		}
		if !canProduce {
			return ErrProductNotSupported
		}
		if m.Status != machine.StatusInactive {
			return ErrMachineUnavailable
		}
		if m.AssignedEmployeeID == nil {
			return ErrNoEmployeeAssigned
		}

		employee, err := s.catalog.GetEmployee(companyID, *m.AssignedEmployeeID)
		if err != nil {
			return err
		}

		var template catalog.MachineTemplate
		if err := tx.First(&template, m.MachineTemplateID).Error; err != nil {
			return fmt.Errorf("failed to fetch machine template: %w", err)
		}

		realSpeed := clamp(s.random.Resolve(template.SpeedMin, template.SpeedMax)*employee.EfficiencyFactor,
			template.SpeedMin, template.SpeedMax)

		now := s.clock.Now()
		order = &ProductionOrder{
			CompanyID:            companyID,
			MachineID:            m.ID,
			ProductID:            productID,
			Quantity:             quantity,
			Status:               StatusInProgress,
			RealSpeed:            realSpeed,
			StartedAt:            now,
			EstimatedCompletedAt: now.Add(durationFor(quantity, m.Speed)),
			RealCompletedAt:      now.Add(durationFor(quantity, realSpeed)),
		}
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create production order: %w", err)
		}

		ref := inventory.Reference{Kind: inventory.RefProduction, ID: order.ID}
		for _, line := range product.Recipe {
			if err := s.inventory.DebitExactTx(tx, companyID, line.MaterialID, line.Quantity*quantity, ref); err != nil {
				return err
			}
		}

		return tx.Model(&machine.CompanyMachine{}).Where("id = ?", m.ID).
			Update("status", machine.StatusActive).Error
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(companyID, notification.EventProductionStarted, map[string]interface{}{
		"order_id":               order.ID,
		"machine_id":             machineID,
		"product_id":             productID,
		"quantity":               quantity,
		"estimated_completed_at": order.EstimatedCompletedAt,
	})
	return order, nil
}

// Cancel aborts a running order. Consumed materials are not returned to
// stock; the machine becomes available again.
func (s *Service) Cancel(companyID, orderID uint) (*ProductionOrder, error) {
	var order *ProductionOrder
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.lockOrderTx(tx, companyID, orderID)
		if err != nil {
			return err
		}
		if order.Status != StatusInProgress {
			return ErrOrderNotInProgress
		}
		return s.cancelOrderTx(tx, order, true)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(companyID, notification.EventProductionCancelled, map[string]interface{}{
		"order_id":   order.ID,
		"machine_id": order.MachineID,
		"product_id": order.ProductID,
	})
	return order, nil
}

// CancelActiveForMachineTx aborts the running order of a broken machine
// inside the caller's transaction. The machine status is owned by the caller.
func (s *Service) CancelActiveForMachineTx(tx *gorm.DB, machineID uint) error {
	var order ProductionOrder
	err := lockForUpdate(tx).
		Where("machine_id = ? AND status = ?", machineID, StatusInProgress).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to fetch active order: %w", err)
	}

	if err := s.cancelOrderTx(tx, &order, false); err != nil {
		return err
	}

	s.notifier.Notify(order.CompanyID, notification.EventProductionCancelled, map[string]interface{}{
		"order_id":   order.ID,
		"machine_id": order.MachineID,
		"product_id": order.ProductID,
		"reason":     "machine_breakdown",
	})
	return nil
}

// cancelOrderTx marks the order cancelled; releaseMachine returns the
// machine to inactive, which breakdown handling must not do
func (s *Service) cancelOrderTx(tx *gorm.DB, order *ProductionOrder, releaseMachine bool) error {
	now := s.clock.Now()
	order.Status = StatusCancelled
	order.FinishedAt = &now
	if err := tx.Model(&ProductionOrder{}).Where("id = ?", order.ID).
		Updates(map[string]interface{}{"status": StatusCancelled, "finished_at": now}).Error; err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	if releaseMachine {
		if err := tx.Model(&machine.CompanyMachine{}).Where("id = ?", order.MachineID).
			Update("status", machine.StatusInactive).Error; err != nil {
			return fmt.Errorf("failed to release machine: %w", err)
		}
	}
	return nil
}

// CompletionSweep finishes every order whose real completion time has passed:
// the yield is credited to stock, the operations cost is charged, the carbon
// footprint accrues and the machine becomes available. Failures on one order
// are logged and do not stop the sweep.
func (s *Service) CompletionSweep() error {
	now := s.clock.Now()

	var due []ProductionOrder
	if err := s.db.Where("status = ? AND real_completed_at <= ?", StatusInProgress, now).
		Find(&due).Error; err != nil {
		return fmt.Errorf("failed to fetch due orders: %w", err)
	}

	for i := range due {
		if err := s.completeOrder(due[i].ID); err != nil {
			s.logger.WithError(err).WithField("order_id", due[i].ID).
				Error("production completion failed")
		}
	}
	return nil
}

func (s *Service) completeOrder(orderID uint) error {
	var companyID uint
	var payload map[string]interface{}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order ProductionOrder
		if err := lockForUpdate(tx).First(&order, orderID).Error; err != nil {
			return fmt.Errorf("failed to lock order: %w", err)
		}
		if order.Status != StatusInProgress {
			return nil
		}

		var m machine.CompanyMachine
		if err := lockForUpdate(tx).First(&m, order.MachineID).Error; err != nil {
			return fmt.Errorf("failed to lock machine: %w", err)
		}

		now := s.clock.Now()
		if err := tx.Model(&ProductionOrder{}).Where("id = ?", order.ID).
			Updates(map[string]interface{}{"status": StatusCompleted, "finished_at": now}).Error; err != nil {
			return fmt.Errorf("failed to complete order: %w", err)
		}

		// Machines in maintenance or broken keep their status
		if m.Status == machine.StatusActive {
			if err := tx.Model(&machine.CompanyMachine{}).Where("id = ?", m.ID).
				Update("status", machine.StatusInactive).Error; err != nil {
				return fmt.Errorf("failed to release machine: %w", err)
			}
		}

		yield := int(math.Round(float64(order.Quantity) * m.QualityFactor))
		ref := inventory.Reference{Kind: inventory.RefProduction, ID: order.ID}
		if _, err := s.inventory.CreditTx(tx, order.CompanyID, order.ProductID, yield, ref); err != nil {
			return err
		}

		operationsCost := int64(math.Round(float64(order.Quantity) * m.OperationsCost))
		if operationsCost > 0 {
			_, err := s.finance.ChargeTx(tx, order.CompanyID, operationsCost, finance.ReasonOperationsCost,
				finance.Reference{Kind: finance.RefProduction, ID: order.ID})
			if err != nil {
				return err
			}
		}

		carbon := float64(order.Quantity) * m.CarbonFootprint
		if carbon > 0 {
			if err := company.AddCarbonFootprintTx(tx, order.CompanyID, carbon); err != nil {
				return err
			}
		}

		companyID = order.CompanyID
		payload = map[string]interface{}{
			"order_id":   order.ID,
			"machine_id": order.MachineID,
			"product_id": order.ProductID,
			"quantity":   order.Quantity,
			"yield":      yield,
		}
		return nil
	})
	if err != nil {
		return err
	}

	if payload != nil {
		s.notifier.Notify(companyID, notification.EventProductionCompleted, payload)
	}
	return nil
}

// Get returns one of the company's orders
func (s *Service) Get(companyID, orderID uint) (*ProductionOrder, error) {
	var order ProductionOrder
	err := s.db.Where("id = ? AND company_id = ?", orderID, companyID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	return &order, nil
}

// Progress returns the order's completion percentage at the current
// simulated time
func (s *Service) Progress(companyID, orderID uint) (float64, error) {
	order, err := s.Get(companyID, orderID)
	if err != nil {
		return 0, err
	}
	return order.ProgressAt(s.clock.Now()), nil
}

// List returns the company's orders, newest first
func (s *Service) List(companyID uint, status *Status, limit int) ([]ProductionOrder, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := s.db.Where("company_id = ?", companyID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var orders []ProductionOrder
	if err := query.Order("id DESC").Limit(limit).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *Service) lockOrderTx(tx *gorm.DB, companyID, orderID uint) (*ProductionOrder, error) {
	var order ProductionOrder
	err := lockForUpdate(tx).
		Where("id = ? AND company_id = ?", orderID, companyID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	return &order, nil
}

// durationFor converts an output quantity and a speed in units per simulated
// hour into a simulated duration
func durationFor(quantity int, speed float64) time.Duration {
	if speed <= 0 {
		return 0
	}
	hours := float64(quantity) / speed
	return time.Duration(hours * float64(time.Hour))
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
