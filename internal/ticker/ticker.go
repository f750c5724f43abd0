// internal/ticker/ticker.go
package ticker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/factory-backend/internal/config"
	"github.com/your-org/factory-backend/internal/domain/company"
	"github.com/your-org/factory-backend/internal/domain/inventory"
	"github.com/your-org/factory-backend/internal/domain/machine"
	"github.com/your-org/factory-backend/internal/domain/production"
	"github.com/your-org/factory-backend/internal/pkg/simulation"
	"gorm.io/gorm"
)

const (
	tickLockKey = "simulation:tick:lock"
	clockKey    = "simulation:clock"
)

// ErrTickInProgress is returned when another instance holds the tick lock
var ErrTickInProgress = errors.New("a tick is already running")

// Ticker advances the simulated clock and runs the sweeps in a fixed order:
// reliability decay, maintenance completion, production completion, inventory
// expiry. Exactly one instance runs a tick at a time, guarded by a redis lock.
type Ticker struct {
	db         *gorm.DB
	clock      *simulation.Clock
	config     *config.Config
	redis      *redis.Client
	locker     *redislock.Client
	machines   *machine.Service
	production *production.Service
	inventory  *inventory.Service
	logger     *logrus.Logger
}

// New creates a ticker. The redis client may be nil (tests); locking and
// clock persistence are then skipped.
func New(db *gorm.DB, clock *simulation.Clock, cfg *config.Config, redisClient *redis.Client, machineService *machine.Service, productionService *production.Service, inventoryService *inventory.Service, logger *logrus.Logger) *Ticker {
	t := &Ticker{
		db:         db,
		clock:      clock,
		config:     cfg,
		redis:      redisClient,
		machines:   machineService,
		production: productionService,
		inventory:  inventoryService,
		logger:     logger,
	}
	if redisClient != nil {
		t.locker = redislock.New(redisClient)
	}
	return t
}

// RestoreClock loads the persisted simulated time, so restarts resume where
// the simulation left off instead of rewinding to the configured start
func (t *Ticker) RestoreClock(ctx context.Context) error {
	if t.redis == nil {
		return nil
	}

	value, err := t.redis.Get(ctx, clockKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read persisted clock: %w", err)
	}

	persisted, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return fmt.Errorf("failed to parse persisted clock: %w", err)
	}

	t.clock.Set(persisted)
	return nil
}

// RunTick advances the clock by one tick interval and runs all sweeps
func (t *Ticker) RunTick(ctx context.Context) error {
	release, err := t.obtainLock(ctx)
	if err != nil {
		return err
	}
	defer release()

	t.clock.Advance(t.config.Simulation.TickInterval)
	now := t.clock.Now()
	t.persistClock(ctx, now)

	started := time.Now()
	log := t.logger.WithField("simulated_time", now.Format(time.RFC3339))

	if err := t.machines.ReliabilitySweep(); err != nil {
		log.WithError(err).Error("reliability sweep failed")
	}
	if err := t.machines.MaintenanceCompletionSweep(); err != nil {
		log.WithError(err).Error("maintenance completion sweep failed")
	}
	if err := t.production.CompletionSweep(); err != nil {
		log.WithError(err).Error("production completion sweep failed")
	}
	t.expireInventory()

	log.WithField("duration", time.Since(started)).Info("tick completed")
	return nil
}

// Run drives ticks from wall-clock time until the context is cancelled
func (t *Ticker) Run(ctx context.Context) {
	interval := t.config.Simulation.AutoTickEvery
	if interval <= 0 {
		interval = time.Minute
	}

	wallTicker := time.NewTicker(interval)
	defer wallTicker.Stop()

	t.logger.WithField("interval", interval).Info("automatic ticking started")
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("automatic ticking stopped")
			return
		case <-wallTicker.C:
			if err := t.RunTick(ctx); err != nil && !errors.Is(err, ErrTickInProgress) {
				t.logger.WithError(err).Error("tick failed")
			}
		}
	}
}

func (t *Ticker) obtainLock(ctx context.Context) (func(), error) {
	if t.locker == nil {
		return func() {}, nil
	}

	lock, err := t.locker.Obtain(ctx, tickLockKey, t.config.Simulation.TickLockTTL, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrTickInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain tick lock: %w", err)
	}

	return func() {
		if err := lock.Release(context.Background()); err != nil {
			t.logger.WithError(err).Warn("failed to release tick lock")
		}
	}, nil
}

func (t *Ticker) persistClock(ctx context.Context, now time.Time) {
	if t.redis == nil {
		return
	}
	if err := t.redis.Set(ctx, clockKey, now.Format(time.RFC3339Nano), 0).Err(); err != nil {
		t.logger.WithError(err).Warn("failed to persist clock")
	}
}

// expireInventory runs the shelf-life sweep for every company
func (t *Ticker) expireInventory() {
	var companyIDs []uint
	if err := t.db.Model(&company.Company{}).Pluck("id", &companyIDs).Error; err != nil {
		t.logger.WithError(err).Error("failed to list companies for expiry sweep")
		return
	}

	for _, companyID := range companyIDs {
		if err := t.inventory.Expire(companyID); err != nil {
			t.logger.WithError(err).WithField("company_id", companyID).
				Error("expiry sweep failed for company")
		}
	}
}
