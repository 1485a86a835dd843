package time

import (
	"time"

	"github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
)

// RealTimeProvider reads the wall clock in UTC
type RealTimeProvider struct{}

// NewRealTimeProvider creates a new real time provider
func NewRealTimeProvider() core.TimeProvider {
	return &RealTimeProvider{}
}

// Now returns the current UTC time
func (p *RealTimeProvider) Now() time.Time {
	return time.Now().UTC()
}

// Since returns the time elapsed since t
func (p *RealTimeProvider) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// FixedTimeProvider always returns the same instant; used by tests and replay tooling
type FixedTimeProvider struct {
	At time.Time
}

// Now returns the fixed instant
func (p *FixedTimeProvider) Now() time.Time {
	return p.At
}

// Since measures from the fixed instant
func (p *FixedTimeProvider) Since(t time.Time) time.Duration {
	return p.At.Sub(t)
}
