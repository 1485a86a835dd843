package payment

import (
	"context"
	"errors"
	"time"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/gateway"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/messaging"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/usecase"
	"github.com/google/uuid"
)

// ServiceConfig holds the tunables of the payment service
type ServiceConfig struct {
	// BackURL is where the gateway sends the client after checkout
	BackURL  string
	Currency string

	// WebhookTimeout bounds one webhook reconciliation, queueing included
	WebhookTimeout time.Duration

	// StaffUserIDs are notified about every payment in addition to the assigned staff member
	StaffUserIDs []string

	SequencerWorkers   int
	SequencerQueueSize int
}

// DefaultServiceConfig returns the configuration used when nothing is set
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Currency:           "DZD",
		WebhookTimeout:     10 * time.Second,
		SequencerWorkers:   8,
		SequencerQueueSize: 64,
	}
}

// Service is the payment ledger: creation, webhook reconciliation, top-ups and reads
type Service struct {
	uow          persistence.UnitOfWork
	gateway      gateway.Gateway
	notifier     usecase.Notifier
	publisher    messaging.EventPublisher
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	config       ServiceConfig

	validator   *PaymentValidator
	guard       *Guard
	idempotency *IdempotencyHandler
	sequencer   *Sequencer

	newID func() string
}

var _ usecase.PaymentUseCase = (*Service)(nil)

// NewService creates the payment service and starts its webhook sequencer
func NewService(
	uow persistence.UnitOfWork,
	paymentGateway gateway.Gateway,
	notifier usecase.Notifier,
	publisher messaging.EventPublisher,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	config ServiceConfig,
) *Service {
	if config.Currency == "" {
		config.Currency = DefaultServiceConfig().Currency
	}
	logger = logger.With(map[string]any{"component": "payment"})

	return &Service{
		uow:          uow,
		gateway:      paymentGateway,
		notifier:     notifier,
		publisher:    publisher,
		timeProvider: timeProvider,
		logger:       logger,
		config:       config,
		validator:    NewPaymentValidator(),
		guard:        NewGuard(uow, logger),
		idempotency:  NewIdempotencyHandler(),
		sequencer:    NewSequencer(logger, config.SequencerWorkers, config.SequencerQueueSize),
		newID:        uuid.NewString,
	}
}

// Shutdown drains the webhook sequencer
func (s *Service) Shutdown() {
	s.sequencer.Shutdown()
}

// staffRecipients returns the assigned staff member of the request followed by the
// configured staff, without duplicates
func (s *Service) staffRecipients(ctx context.Context, requestServiceID string) []string {
	seen := make(map[string]struct{})
	var recipients []string
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		recipients = append(recipients, id)
	}

	request, err := s.uow.GetServiceRequestRepository(ctx).GetByID(ctx, requestServiceID)
	switch {
	case err == nil:
		add(request.AssignedStaffID)
	case errors.Is(err, errs.ErrRequestNotFound):
		s.logger.Warn("Service request of payment not found", map[string]any{
			"request_service_id": requestServiceID,
		})
	default:
		s.logger.Warn("Failed to resolve assigned staff", map[string]any{
			"request_service_id": requestServiceID,
			"error":              err.Error(),
		})
	}

	for _, id := range s.config.StaffUserIDs {
		add(id)
	}
	return recipients
}

// notify raises one notification per target. Persisting is part of the caller's
// transaction; delivery is not.
func (s *Service) notify(
	ctx context.Context,
	notificationType entity.NotificationType,
	description string,
	entityID string,
	fromUserID string,
	targets ...string,
) error {
	for _, target := range targets {
		if target == "" {
			continue
		}
		_, err := s.notifier.Notify(ctx, usecase.NotifyRequest{
			Type:         notificationType,
			Description:  description,
			TargetUserID: target,
			EntityID:     entityID,
			FromUserID:   fromUserID,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// publishAfterCommit announces event once the surrounding transaction has committed
func (s *Service) publishAfterCommit(ctx context.Context, event entity.PaymentEvent) {
	s.uow.AfterCommit(ctx, func(ctx context.Context) {
		if err := s.publisher.PublishPaymentEvent(ctx, event); err != nil {
			s.logger.Warn("Failed to publish payment event", map[string]any{
				"event_type": event.Type,
				"payment_id": event.PaymentID,
				"error":      err.Error(),
			})
		}
	})
}
