package entity

import "github.com/shopspring/decimal"

// ServiceRequest is a client's request for a catalogue service, joined with the
// service's current price. It is owned by the portal's CRUD side and only read here.
type ServiceRequest struct {
	ID              string
	ClientID        string
	ServiceID       string
	ServiceName     string
	Price           decimal.Decimal
	AssignedStaffID string
}
