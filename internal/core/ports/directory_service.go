package ports

import (
	"context"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
)

// SchoolInput carries the writable school fields.
type SchoolInput struct {
	Name         string
	Address      string
	Province     string
	City         string
	SchoolType   domain.SchoolType
	ContactPhone string
	Website      string
}

// DepartmentInput carries the writable school-department fields.
type DepartmentInput struct {
	SchoolID     string
	Name         string
	ContactPhone string
	Address      string
	Description  string
}

// SchoolService manages schools. Reads are open to every role; writes are
// reserved to administrators.
type SchoolService interface {
	Create(ctx context.Context, id domain.Identity, in SchoolInput) (*domain.School, error)
	Get(ctx context.Context, id domain.Identity, schoolID string) (*domain.School, error)
	List(ctx context.Context, id domain.Identity, filter SchoolFilter) (*Page[*domain.School], error)
	Update(ctx context.Context, id domain.Identity, schoolID string, in SchoolInput) (*domain.School, error)
	Delete(ctx context.Context, id domain.Identity, schoolID string) error
}

// DepartmentService manages school departments.
type DepartmentService interface {
	Create(ctx context.Context, id domain.Identity, in DepartmentInput) (*domain.Department, error)
	Get(ctx context.Context, id domain.Identity, departmentID string) (*domain.Department, error)
	List(ctx context.Context, id domain.Identity, filter DepartmentFilter) (*Page[*domain.Department], error)
	Update(ctx context.Context, id domain.Identity, departmentID string, in DepartmentInput) (*domain.Department, error)
	Delete(ctx context.Context, id domain.Identity, departmentID string) error
	BatchDelete(ctx context.Context, id domain.Identity, departmentIDs []string) (int64, error)
}
