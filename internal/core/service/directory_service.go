package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/access"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/ports"
)

var (
	_ ports.SchoolService     = (*SchoolService)(nil)
	_ ports.DepartmentService = (*DepartmentService)(nil)
)

// Schools and school departments are shared directory data: every role
// reads them, writes are role-gated.
var (
	schoolDirectory     = domain.Ownership{Kind: domain.KindSchool, Shared: true}
	departmentDirectory = domain.Ownership{Kind: domain.KindDepartment, Shared: true}
)

type SchoolService struct {
	repo   ports.SchoolRepository
	guard  *access.Guard
	logger zerolog.Logger
}

func NewSchoolService(repo ports.SchoolRepository, guard *access.Guard, logger zerolog.Logger) *SchoolService {
	return &SchoolService{repo: repo, guard: guard, logger: logger}
}

func (s *SchoolService) Create(ctx context.Context, id domain.Identity, in ports.SchoolInput) (*domain.School, error) {
	if err := s.guard.AssertAdminAction(id); err != nil {
		return nil, err
	}
	if err := validateSchoolInput(in); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	school := &domain.School{ID: uuid.NewString(), CreatedBy: id.ID, CreatedAt: now, UpdatedAt: now}
	applySchoolInput(school, in)
	if err := s.repo.Create(ctx, school); err != nil {
		return nil, err
	}

	s.logger.Info().Str("school_id", school.ID).Str("user_id", id.ID).Msg("school created")
	return school, nil
}

func (s *SchoolService) Get(ctx context.Context, id domain.Identity, schoolID string) (*domain.School, error) {
	school, err := s.repo.FindByID(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.AssertReadable(school.Ownership(), id); err != nil {
		return nil, err
	}
	return school, nil
}

func (s *SchoolService) List(ctx context.Context, id domain.Identity, filter ports.SchoolFilter) (*ports.Page[*domain.School], error) {
	if err := s.guard.AssertReadable(schoolDirectory, id); err != nil {
		return nil, err
	}
	filter.Page, filter.Limit = ports.NormalizePage(filter.Page, filter.Limit)

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list schools: %w", err)
	}
	return ports.NewPage(items, total, filter.Page, filter.Limit), nil
}

func (s *SchoolService) Update(ctx context.Context, id domain.Identity, schoolID string, in ports.SchoolInput) (*domain.School, error) {
	if err := s.guard.AssertAdminAction(id); err != nil {
		return nil, err
	}
	if err := validateSchoolInput(in); err != nil {
		return nil, err
	}

	school, err := s.repo.FindByID(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	applySchoolInput(school, in)
	school.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, school); err != nil {
		return nil, fmt.Errorf("update school: %w", err)
	}
	return school, nil
}

func (s *SchoolService) Delete(ctx context.Context, id domain.Identity, schoolID string) error {
	if err := s.guard.AssertAdminAction(id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, schoolID); err != nil {
		return err
	}
	s.logger.Info().Str("school_id", schoolID).Str("user_id", id.ID).Msg("school deleted")
	return nil
}

func validateSchoolInput(in ports.SchoolInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("school name is required: %w", domain.ErrInvalidInput)
	}
	switch in.SchoolType {
	case "", domain.SchoolProject985, domain.SchoolProject211, domain.SchoolDoubleFirstClass, domain.SchoolRegular:
		return nil
	}
	return fmt.Errorf("school type %q: %w", in.SchoolType, domain.ErrInvalidInput)
}

func applySchoolInput(school *domain.School, in ports.SchoolInput) {
	school.Name = strings.TrimSpace(in.Name)
	school.Address = in.Address
	school.Province = in.Province
	school.City = in.City
	school.SchoolType = in.SchoolType
	if school.SchoolType == "" {
		school.SchoolType = domain.SchoolRegular
	}
	school.ContactPhone = in.ContactPhone
	school.Website = in.Website
}

type DepartmentService struct {
	repo    ports.DepartmentRepository
	schools ports.SchoolRepository
	tx      ports.TxManager
	guard   *access.Guard
	logger  zerolog.Logger
}

func NewDepartmentService(
	repo ports.DepartmentRepository,
	schools ports.SchoolRepository,
	tx ports.TxManager,
	guard *access.Guard,
	logger zerolog.Logger,
) *DepartmentService {
	return &DepartmentService{repo: repo, schools: schools, tx: tx, guard: guard, logger: logger}
}

func (s *DepartmentService) Create(ctx context.Context, id domain.Identity, in ports.DepartmentInput) (*domain.Department, error) {
	if err := validateDepartmentInput(in); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	d := &domain.Department{
		ID:                uuid.NewString(),
		CreatedBy:         id.ID,
		CreatorDepartment: id.Department,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	applyDepartmentInput(d, in)
	if err := s.guard.AssertMutable(d.Ownership(), id, access.ActionCreate); err != nil {
		return nil, err
	}
	if _, err := s.schools.FindByID(ctx, d.SchoolID); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Info().Str("department_id", d.ID).Str("school_id", d.SchoolID).Str("user_id", id.ID).Msg("department created")
	return d, nil
}

func (s *DepartmentService) Get(ctx context.Context, id domain.Identity, departmentID string) (*domain.Department, error) {
	d, err := s.repo.FindByID(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.AssertReadable(d.Ownership(), id); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DepartmentService) List(ctx context.Context, id domain.Identity, filter ports.DepartmentFilter) (*ports.Page[*domain.Department], error) {
	if err := s.guard.AssertReadable(departmentDirectory, id); err != nil {
		return nil, err
	}
	filter.Page, filter.Limit = ports.NormalizePage(filter.Page, filter.Limit)

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return ports.NewPage(items, total, filter.Page, filter.Limit), nil
}

func (s *DepartmentService) Update(ctx context.Context, id domain.Identity, departmentID string, in ports.DepartmentInput) (*domain.Department, error) {
	if err := validateDepartmentInput(in); err != nil {
		return nil, err
	}

	d, err := s.repo.FindByID(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.AssertMutable(d.Ownership(), id, access.ActionUpdate); err != nil {
		return nil, err
	}
	if in.SchoolID != d.SchoolID {
		if _, err := s.schools.FindByID(ctx, in.SchoolID); err != nil {
			return nil, err
		}
	}

	applyDepartmentInput(d, in)
	d.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("update department: %w", err)
	}
	return d, nil
}

func (s *DepartmentService) Delete(ctx context.Context, id domain.Identity, departmentID string) error {
	d, err := s.repo.FindByID(ctx, departmentID)
	if err != nil {
		return err
	}
	if err := s.guard.AssertMutable(d.Ownership(), id, access.ActionDelete); err != nil {
		return err
	}
	return s.repo.Delete(ctx, d.ID)
}

func (s *DepartmentService) BatchDelete(ctx context.Context, id domain.Identity, departmentIDs []string) (int64, error) {
	if err := s.guard.AssertMutable(departmentDirectory, id, access.ActionBatchDelete); err != nil {
		return 0, err
	}
	ids := uniqueIDs(departmentIDs)
	if len(ids) == 0 {
		return 0, fmt.Errorf("batch delete departments: no ids: %w", domain.ErrInvalidInput)
	}

	var deleted int64
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		for _, did := range ids {
			if _, err := s.repo.FindByID(ctx, did); err != nil {
				return err
			}
		}
		n, err := s.repo.DeleteMany(ctx, ids)
		if err != nil {
			return fmt.Errorf("batch delete departments: %w", err)
		}
		deleted = n
		return nil
	})
	return deleted, err
}

func validateDepartmentInput(in ports.DepartmentInput) error {
	if in.SchoolID == "" {
		return fmt.Errorf("school is required: %w", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("department name is required: %w", domain.ErrInvalidInput)
	}
	return nil
}

func applyDepartmentInput(d *domain.Department, in ports.DepartmentInput) {
	d.SchoolID = in.SchoolID
	d.Name = strings.TrimSpace(in.Name)
	d.ContactPhone = in.ContactPhone
	d.Address = in.Address
	d.Description = in.Description
}
