package ports

import (
	"context"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
)

// SchoolFilter carries query parameters for listing schools. Schools are
// shared directory data, so there is no scope.
type SchoolFilter struct {
	Search     string
	Province   string
	City       string
	SchoolType domain.SchoolType
	Page       int
	Limit      int
}

// SchoolRepository persists schools.
type SchoolRepository interface {
	Create(ctx context.Context, s *domain.School) error
	FindByID(ctx context.Context, id string) (*domain.School, error)
	Update(ctx context.Context, s *domain.School) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter SchoolFilter) ([]*domain.School, int64, error)
}

// DepartmentFilter carries query parameters for listing school departments.
type DepartmentFilter struct {
	SchoolID string
	Search   string
	Page     int
	Limit    int
}

// DepartmentRepository persists school departments.
type DepartmentRepository interface {
	Create(ctx context.Context, d *domain.Department) error
	FindByID(ctx context.Context, id string) (*domain.Department, error)
	Update(ctx context.Context, d *domain.Department) error
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
	List(ctx context.Context, filter DepartmentFilter) ([]*domain.Department, int64, error)
}
