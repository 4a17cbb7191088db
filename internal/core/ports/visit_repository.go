package ports

import (
	"context"
	"time"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
)

// VisitFilter carries all query parameters for listing visit records.
type VisitFilter struct {
	Scope      domain.Scope
	CustomerID string
	Status     domain.VisitStatus
	DateFrom   time.Time // optional: visit_date >= DateFrom
	DateTo     time.Time // optional: visit_date <= DateTo
	Page       int
	Limit      int
}

// VisitRepository persists visit records.
type VisitRepository interface {
	Create(ctx context.Context, v *domain.VisitRecord) error
	FindByID(ctx context.Context, id string) (*domain.VisitRecord, error)
	Update(ctx context.Context, v *domain.VisitRecord) error
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
	List(ctx context.Context, filter VisitFilter) ([]*domain.VisitRecord, int64, error)
	// CountByCustomer returns how many visit records reference customerID.
	CountByCustomer(ctx context.Context, customerID string) (int64, error)
	// MoveCustomer points every visit of fromID at to, copying its school
	// and department, and returns how many records moved.
	MoveCustomer(ctx context.Context, fromID string, to *domain.Customer) (int64, error)
}
