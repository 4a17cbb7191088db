package ports

import (
	"context"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
)

// CustomerFilter carries all query parameters for listing customers.
type CustomerFilter struct {
	Scope          domain.Scope
	Search         string // optional: partial match on name or phone
	SchoolID       string
	DepartmentID   string
	InfluenceLevel domain.InfluenceLevel
	Page           int
	Limit          int
}

// CustomerRepository persists customers.
type CustomerRepository interface {
	Create(ctx context.Context, c *domain.Customer) error
	FindByID(ctx context.Context, id string) (*domain.Customer, error)
	Update(ctx context.Context, c *domain.Customer) error
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
	List(ctx context.Context, filter CustomerFilter) ([]*domain.Customer, int64, error)
}
