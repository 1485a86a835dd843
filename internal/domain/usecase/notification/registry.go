package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/realtime"
)

// Registry is the live connection registry backed by the connected_users table,
// so every instance sees the same connections. Writes are keyed by user id,
// deletes by connection id: a stale disconnect never removes a newer connection.
type Registry struct {
	uow          persistence.UnitOfWork
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

var _ realtime.LiveConnectionRegistry = (*Registry)(nil)

// NewRegistry creates a new live connection registry
func NewRegistry(uow persistence.UnitOfWork, timeProvider coreport.TimeProvider, logger coreport.Logger) *Registry {
	return &Registry{uow: uow, timeProvider: timeProvider, logger: logger}
}

// Connect replaces whatever connection userID had with connectionID
func (r *Registry) Connect(ctx context.Context, userID, connectionID string) error {
	if userID == "" || connectionID == "" {
		return fmt.Errorf("%w: user id and connection id are required", errs.ErrInvalidRequest)
	}

	err := r.uow.GetConnectionRepository(ctx).Upsert(ctx, &entity.ConnectedUser{
		UserID:       userID,
		ConnectionID: connectionID,
		ConnectedAt:  r.timeProvider.Now(),
	})
	if err != nil {
		return err
	}

	r.logger.Debug("Live connection registered", map[string]any{
		"user_id":       userID,
		"connection_id": connectionID,
	})
	return nil
}

// Disconnect forgets connectionID. Unknown ids are ignored.
func (r *Registry) Disconnect(ctx context.Context, connectionID string) error {
	removed, err := r.uow.GetConnectionRepository(ctx).DeleteByConnectionID(ctx, connectionID)
	if err != nil {
		return err
	}
	if !removed {
		r.logger.Debug("Disconnect for unknown connection ignored", map[string]any{
			"connection_id": connectionID,
		})
	}
	return nil
}

// Lookup returns the live connection of userID, if any
func (r *Registry) Lookup(ctx context.Context, userID string) (string, bool, error) {
	connection, err := r.uow.GetConnectionRepository(ctx).GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, errs.ErrConnectionNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return connection.ConnectionID, true, nil
}
