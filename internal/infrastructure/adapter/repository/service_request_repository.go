package repository

import (
	"context"
	"errors"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	errs "github.com/amirhossein-jamali/client-portal/internal/domain/error"
	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ServiceRequestRepository reads service requests joined with their service
type ServiceRequestRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewServiceRequestRepository creates a new ServiceRequestRepository instance
func NewServiceRequestRepository(db *gorm.DB, logger coreport.Logger) *ServiceRequestRepository {
	return &ServiceRequestRepository{db: db, logger: logger, errorClassifier: NewErrorClassifier()}
}

type serviceRequestRow struct {
	ID              string
	ClientID        string
	ServiceID       string
	AssignedStaffID *string
	ServiceName     string
	Price           decimal.Decimal
}

// GetByID returns a service request with its service's current price
func (r *ServiceRequestRepository) GetByID(ctx context.Context, id string) (*entity.ServiceRequest, error) {
	var row serviceRequestRow
	err := r.db.WithContext(ctx).
		Table("request_services AS rs").
		Select("rs.id, rs.client_id, rs.service_id, rs.assigned_staff_id, s.name AS service_name, s.price").
		Joins("JOIN services s ON s.id = rs.service_id").
		Where("rs.id = ?", id).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrRequestNotFound
		}
		return nil, r.errorClassifier.wrap(err)
	}

	request := &entity.ServiceRequest{
		ID:          row.ID,
		ClientID:    row.ClientID,
		ServiceID:   row.ServiceID,
		ServiceName: row.ServiceName,
		Price:       row.Price,
	}
	if row.AssignedStaffID != nil {
		request.AssignedStaffID = *row.AssignedStaffID
	}
	return request, nil
}
