package persistence

import (
	"context"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
)

// ServiceRequestRepository reads service requests and their catalogue price
type ServiceRequestRepository interface {
	// GetByID returns a service request joined with its service
	//
	// Possible errors:
	// - ErrRequestNotFound: If the request or its service doesn't exist
	GetByID(ctx context.Context, id string) (*entity.ServiceRequest, error)
}
