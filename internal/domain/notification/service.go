// internal/domain/notification/service.go
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/factory-backend/internal/pkg/simulation"
	"gorm.io/gorm"
)

// Service is the fire-and-forget notification sink. Failures are logged and
// swallowed; a lost notification must never roll back a simulation step.
type Service struct {
	db     *gorm.DB
	redis  *redis.Client
	clock  *simulation.Clock
	logger *logrus.Logger
}

// NewService creates a new notification service. The redis client may be nil
// (tests); pub/sub fan-out is then skipped.
func NewService(db *gorm.DB, redisClient *redis.Client, clock *simulation.Clock, logger *logrus.Logger) *Service {
	return &Service{
		db:     db,
		redis:  redisClient,
		clock:  clock,
		logger: logger,
	}
}

// Notify persists a notification row and publishes it to the company channel
func (s *Service) Notify(companyID uint, eventType EventType, payload map[string]interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.WithError(err).WithField("event_type", eventType).Warn("failed to encode notification payload")
		body = []byte("{}")
	}

	notification := &Notification{
		ID:         uuid.NewString(),
		CompanyID:  companyID,
		EventType:  eventType,
		Payload:    string(body),
		OccurredAt: s.clock.Now(),
	}

	if err := s.db.Create(notification).Error; err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"company_id": companyID,
			"event_type": eventType,
		}).Warn("failed to persist notification")
		return
	}

	s.publish(notification)
}

func (s *Service) publish(n *Notification) {
	if s.redis == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	channel := fmt.Sprintf("notifications:company:%d", n.CompanyID)
	message, err := json.Marshal(n)
	if err != nil {
		s.logger.WithError(err).Warn("failed to encode notification for publish")
		return
	}

	if err := s.redis.Publish(ctx, channel, message).Err(); err != nil {
		s.logger.WithError(err).WithField("channel", channel).Warn("failed to publish notification")
	}
}

// List returns the company's notifications, newest first
func (s *Service) List(companyID uint, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var notifications []Notification
	if err := s.db.Where("company_id = ?", companyID).
		Order("created_at DESC").Limit(limit).Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}
