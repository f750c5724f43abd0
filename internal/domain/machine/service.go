// internal/domain/machine/service.go
package machine

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/your-org/factory-backend/internal/domain/catalog"
	"github.com/your-org/factory-backend/internal/domain/finance"
	"github.com/your-org/factory-backend/internal/domain/notification"
	"github.com/your-org/factory-backend/internal/pkg/simulation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sentinel errors for machine lifecycle operations
var (
	ErrMachineNotFound       = errors.New("machine not found")
	ErrMachineNotInactive    = errors.New("machine must be inactive")
	ErrMachineNotSellable    = errors.New("machine cannot be sold in its current state")
	ErrMaintenanceNotAllowed = errors.New("machine must be inactive or broken to start maintenance")
	ErrMaintenanceInProgress = errors.New("maintenance already in progress")
	ErrTemplateCannotBeSetUp = errors.New("machine template not found")
	ErrEmployeeNotAssignable = errors.New("employee does not belong to the company")
)

// lowReliabilityThreshold is the level below which the owner is warned
const lowReliabilityThreshold = 0.5

// sellValueFactor discounts the resale price of a machine
const sellValueFactor = 0.5

// Randomizer is the source of bounded random draws. Satisfied by
// simulation.Resolver; tests inject fixed-value stubs.
type Randomizer interface {
	Resolve(min, max float64) float64
	ResolveWithMode(min, mode, max float64) float64
	RollPercent() int
}

// OrderCanceller breaks the dependency cycle with the production package.
// The production service implements it; the sweep calls it inside the same
// transaction that marks the machine broken.
type OrderCanceller interface {
	CancelActiveForMachineTx(tx *gorm.DB, machineID uint) error
}

// Service manages company machine instances through their lifecycle:
// setup, employee assignment, production locking, reliability decay,
// maintenance and sale.
type Service struct {
	db        *gorm.DB
	clock     *simulation.Clock
	random    Randomizer
	finance   *finance.Service
	catalog   *catalog.Service
	notifier  *notification.Service
	canceller OrderCanceller
	logger    *logrus.Logger
}

// NewService creates a new machine service. The canceller is attached later
// via SetOrderCanceller because the production service needs this service
// first.
func NewService(db *gorm.DB, clock *simulation.Clock, random Randomizer, financeService *finance.Service, catalogService *catalog.Service, notifier *notification.Service, logger *logrus.Logger) *Service {
	return &Service{
		db:       db,
		clock:    clock,
		random:   random,
		finance:  financeService,
		catalog:  catalogService,
		notifier: notifier,
		logger:   logger,
	}
}

// SetOrderCanceller wires the production-side breakdown handler
func (s *Service) SetOrderCanceller(canceller OrderCanceller) {
	s.canceller = canceller
}

func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Setup buys a machine instance from a template. Speed, quality, operations
// cost and carbon footprint are resolved once from the template bounds and
// stay fixed for the machine's lifetime. The template price is charged in the
// same transaction.
func (s *Service) Setup(companyID, templateID uint) (*CompanyMachine, error) {
	template, err := s.catalog.GetTemplate(templateID)
	if err != nil {
		if errors.Is(err, catalog.ErrTemplateNotFound) {
			return nil, ErrTemplateCannotBeSetUp
		}
		return nil, err
	}

	machine := &CompanyMachine{
		CompanyID:         companyID,
		MachineTemplateID: template.ID,
		Status:            StatusInactive,

		Speed:           s.random.ResolveWithMode(template.SpeedMin, template.SpeedAvg, template.SpeedMax),
		QualityFactor:   s.random.ResolveWithMode(template.QualityMin, template.QualityAvg, template.QualityMax),
		OperationsCost:  s.random.ResolveWithMode(template.OperationsCostMin, template.OperationsCostAvg, template.OperationsCostMax),
		CarbonFootprint: s.random.ResolveWithMode(template.CarbonFootprintMin, template.CarbonFootprintAvg, template.CarbonFootprintMax),

		CurrentReliability:       1,
		ReliabilityDecayPerTick:  template.ReliabilityDecayPerTick,
		MaintenanceCost:          template.MaintenanceCost,
		MaintenanceDurationHours: template.MaintenanceDurationHours,

		AcquiredAt: s.clock.Now(),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(machine).Error; err != nil {
			return fmt.Errorf("failed to create machine: %w", err)
		}
		_, err := s.finance.ChargeTx(tx, companyID, template.Price, finance.ReasonMachineSetup,
			finance.Reference{Kind: finance.RefMachine, ID: machine.ID})
		return err
	})
	if err != nil {
		return nil, err
	}

	return machine, nil
}

// Get returns one of the company's machines with its template preloaded
func (s *Service) Get(companyID, machineID uint) (*CompanyMachine, error) {
	var machine CompanyMachine
	err := s.db.Preload("Template").Preload("Employee").
		Where("id = ? AND company_id = ?", machineID, companyID).
		First(&machine).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMachineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch machine: %w", err)
	}
	return &machine, nil
}

// List returns all non-sold machines of a company
func (s *Service) List(companyID uint) ([]CompanyMachine, error) {
	var machines []CompanyMachine
	err := s.db.Preload("Template").
		Where("company_id = ? AND status <> ?", companyID, StatusSold).
		Order("id ASC").Find(&machines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}
	return machines, nil
}

// AssignEmployee attaches an operator to an inactive machine
func (s *Service) AssignEmployee(companyID, machineID, employeeID uint) (*CompanyMachine, error) {
	if _, err := s.catalog.GetEmployee(companyID, employeeID); err != nil {
		if errors.Is(err, catalog.ErrEmployeeNotFound) {
			return nil, ErrEmployeeNotAssignable
		}
		return nil, err
	}

	var machine *CompanyMachine
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		machine, err = s.lockMachineTx(tx, companyID, machineID)
		if err != nil {
			return err
		}
		if machine.Status != StatusInactive {
			return ErrMachineNotInactive
		}
		machine.AssignedEmployeeID = &employeeID
		return tx.Model(&CompanyMachine{}).Where("id = ?", machine.ID).
			Update("assigned_employee_id", employeeID).Error
	})
	if err != nil {
		return nil, err
	}
	return machine, nil
}

// Sell retires a machine and credits the resale value: the template price
// scaled by current reliability and the resale discount. Sold is terminal.
func (s *Service) Sell(companyID, machineID uint) (*CompanyMachine, error) {
	var machine *CompanyMachine
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		machine, err = s.lockMachineTx(tx, companyID, machineID)
		if err != nil {
			return err
		}
		if machine.Status != StatusInactive && machine.Status != StatusBroken {
			return ErrMachineNotSellable
		}

		var template catalog.MachineTemplate
		if err := tx.First(&template, machine.MachineTemplateID).Error; err != nil {
			return fmt.Errorf("failed to fetch machine template: %w", err)
		}

		saleValue := int64(math.Round(float64(template.Price) * machine.CurrentReliability * sellValueFactor))
		now := s.clock.Now()
		machine.Status = StatusSold
		machine.SoldAt = &now
		if err := tx.Model(&CompanyMachine{}).Where("id = ?", machine.ID).
			Updates(map[string]interface{}{"status": StatusSold, "sold_at": now}).Error; err != nil {
			return fmt.Errorf("failed to mark machine sold: %w", err)
		}

		_, err = s.finance.CreditTx(tx, companyID, saleValue, finance.ReasonMachineSale,
			finance.Reference{Kind: finance.RefMachine, ID: machine.ID})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(companyID, notification.EventMachineSold, map[string]interface{}{
		"machine_id":  machine.ID,
		"reliability": machine.CurrentReliability,
	})
	return machine, nil
}

// StartMaintenance puts a machine into maintenance and charges the cost.
// A broken machine gets corrective maintenance, an inactive one predictive.
func (s *Service) StartMaintenance(companyID, machineID uint) (*Maintenance, error) {
	var maintenance *Maintenance
	err := s.db.Transaction(func(tx *gorm.DB) error {
		machine, err := s.lockMachineTx(tx, companyID, machineID)
		if err != nil {
			return err
		}
		if !machine.CanStartMaintenance() {
			return ErrMaintenanceNotAllowed
		}

		var open int64
		if err := tx.Model(&Maintenance{}).
			Where("company_machine_id = ? AND status = ?", machine.ID, MaintenanceInProgress).
			Count(&open).Error; err != nil {
			return fmt.Errorf("failed to check open maintenance: %w", err)
		}
		if open > 0 {
			return ErrMaintenanceInProgress
		}

		maintenanceType := MaintenancePredictive
		if machine.Status == StatusBroken {
			maintenanceType = MaintenanceCorrective
		}

		maintenance = &Maintenance{
			CompanyMachineID: machine.ID,
			Type:             maintenanceType,
			Status:           MaintenanceInProgress,
			Cost:             machine.MaintenanceCost,
			DurationHours:    machine.MaintenanceDurationHours,
			StartedAt:        s.clock.Now(),
		}
		if err := tx.Create(maintenance).Error; err != nil {
			return fmt.Errorf("failed to create maintenance: %w", err)
		}

		if err := tx.Model(&CompanyMachine{}).Where("id = ?", machine.ID).
			Update("status", StatusMaintenance).Error; err != nil {
			return fmt.Errorf("failed to update machine status: %w", err)
		}

		_, err = s.finance.ChargeTx(tx, companyID, machine.MaintenanceCost, finance.ReasonMaintenanceCost,
			finance.Reference{Kind: finance.RefMaintenance, ID: maintenance.ID})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(companyID, notification.EventMaintenanceStarted, map[string]interface{}{
		"machine_id":     machineID,
		"maintenance_id": maintenance.ID,
		"type":           maintenance.Type,
		"duration_hours": maintenance.DurationHours,
	})
	return maintenance, nil
}

// ReliabilitySweep decays reliability on every active and inactive machine
// and rolls for breakdowns. A breakdown marks the machine broken and cancels
// its running production order in the same transaction. Failures on one
// machine are logged and do not stop the sweep.
func (s *Service) ReliabilitySweep() error {
	var machines []CompanyMachine
	if err := s.db.Where("status IN ?", []Status{StatusActive, StatusInactive}).
		Find(&machines).Error; err != nil {
		return fmt.Errorf("failed to fetch machines for sweep: %w", err)
	}

	for i := range machines {
		if err := s.sweepMachine(machines[i].ID); err != nil {
			s.logger.WithError(err).WithField("machine_id", machines[i].ID).
				Error("reliability sweep failed for machine")
		}
	}
	return nil
}

func (s *Service) sweepMachine(machineID uint) error {
	var companyID uint
	var event notification.EventType
	var payload map[string]interface{}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var machine CompanyMachine
		if err := lockForUpdate(tx).First(&machine, machineID).Error; err != nil {
			return fmt.Errorf("failed to lock machine: %w", err)
		}
		if !machine.SweepsReliability() {
			return nil
		}

		before := machine.CurrentReliability
		after := decayReliability(before, machine.ReliabilityDecayPerTick)

		status := machine.Status
		if threshold := breakdownChance(after); threshold > 0 && s.random.RollPercent() <= threshold {
			status = StatusBroken
		}

		if err := tx.Model(&CompanyMachine{}).Where("id = ?", machine.ID).
			Updates(map[string]interface{}{"current_reliability": after, "status": status}).Error; err != nil {
			return fmt.Errorf("failed to update machine: %w", err)
		}

		companyID = machine.CompanyID
		if status == StatusBroken {
			if s.canceller != nil {
				if err := s.canceller.CancelActiveForMachineTx(tx, machine.ID); err != nil {
					return fmt.Errorf("failed to cancel active order: %w", err)
				}
			}
			event = notification.EventMachineBreakdown
			payload = map[string]interface{}{
				"machine_id":  machine.ID,
				"reliability": after,
			}
		} else if after < lowReliabilityThreshold && before >= lowReliabilityThreshold {
			event = notification.EventLowReliability
			payload = map[string]interface{}{
				"machine_id":  machine.ID,
				"reliability": after,
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if event != "" {
		s.notifier.Notify(companyID, event, payload)
	}
	return nil
}

// MaintenanceCompletionSweep finishes every due maintenance run: the machine
// returns to inactive and regains part of its lost reliability
func (s *Service) MaintenanceCompletionSweep() error {
	now := s.clock.Now()

	var due []Maintenance
	if err := s.db.Where("status = ?", MaintenanceInProgress).Find(&due).Error; err != nil {
		return fmt.Errorf("failed to fetch open maintenance: %w", err)
	}

	for i := range due {
		if due[i].DueAt().After(now) {
			continue
		}
		if err := s.completeMaintenance(due[i].ID); err != nil {
			s.logger.WithError(err).WithField("maintenance_id", due[i].ID).
				Error("maintenance completion failed")
		}
	}
	return nil
}

func (s *Service) completeMaintenance(maintenanceID uint) error {
	var companyID, machineID uint
	var reliability float64

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var maintenance Maintenance
		if err := lockForUpdate(tx).First(&maintenance, maintenanceID).Error; err != nil {
			return fmt.Errorf("failed to lock maintenance: %w", err)
		}
		if maintenance.Status != MaintenanceInProgress {
			return nil
		}

		var machine CompanyMachine
		if err := lockForUpdate(tx).First(&machine, maintenance.CompanyMachineID).Error; err != nil {
			return fmt.Errorf("failed to lock machine: %w", err)
		}

		now := s.clock.Now()
		if err := tx.Model(&Maintenance{}).Where("id = ?", maintenance.ID).
			Updates(map[string]interface{}{"status": MaintenanceCompleted, "completed_at": now}).Error; err != nil {
			return fmt.Errorf("failed to complete maintenance: %w", err)
		}

		gain := s.random.Resolve(0.75, 1.0)
		reliability = recoverReliability(machine.CurrentReliability, gain)
		if err := tx.Model(&CompanyMachine{}).Where("id = ?", machine.ID).
			Updates(map[string]interface{}{"status": StatusInactive, "current_reliability": reliability}).Error; err != nil {
			return fmt.Errorf("failed to restore machine: %w", err)
		}

		companyID = machine.CompanyID
		machineID = machine.ID
		return nil
	})
	if err != nil {
		return err
	}

	if machineID != 0 {
		s.notifier.Notify(companyID, notification.EventMaintenanceDone, map[string]interface{}{
			"machine_id":     machineID,
			"maintenance_id": maintenanceID,
			"reliability":    reliability,
		})
	}
	return nil
}

func (s *Service) lockMachineTx(tx *gorm.DB, companyID, machineID uint) (*CompanyMachine, error) {
	var machine CompanyMachine
	err := lockForUpdate(tx).
		Where("id = ? AND company_id = ?", machineID, companyID).
		First(&machine).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMachineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock machine: %w", err)
	}
	return &machine, nil
}
