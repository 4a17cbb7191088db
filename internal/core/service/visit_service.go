package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/access"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/ports"
)

var _ ports.VisitService = (*VisitService)(nil)

type VisitService struct {
	repo      ports.VisitRepository
	customers ports.CustomerRepository
	users     ports.UserRepository
	tx        ports.TxManager
	guard     *access.Guard
	logger    zerolog.Logger
}

func NewVisitService(
	repo ports.VisitRepository,
	customers ports.CustomerRepository,
	users ports.UserRepository,
	tx ports.TxManager,
	guard *access.Guard,
	logger zerolog.Logger,
) *VisitService {
	return &VisitService{repo: repo, customers: customers, users: users, tx: tx, guard: guard, logger: logger}
}

// Create records a visit to a customer the caller can see. The salesperson
// defaults to the caller.
func (s *VisitService) Create(ctx context.Context, id domain.Identity, in ports.VisitInput) (*domain.VisitRecord, error) {
	if err := validateVisitInput(in); err != nil {
		return nil, err
	}

	customer, err := s.customers.FindByID(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.AssertReadable(customer.Ownership(), id); err != nil {
		return nil, err
	}

	sales, err := resolveAssignee(ctx, s.users, id, in.SalesID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	v := &domain.VisitRecord{
		ID:              uuid.NewString(),
		SchoolID:        customer.SchoolID,
		DepartmentID:    customer.DepartmentID,
		SalesID:         sales.ID,
		SalesDepartment: sales.Department,
		Status:          domain.VisitScheduled,
		CreatedBy:       id.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	applyVisitInput(v, in)

	if err := s.guard.AssertMutable(v.Ownership(), id, access.ActionCreate); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, v); err != nil {
		s.logger.Error().Err(err).Msg("failed to create visit record")
		return nil, err
	}

	s.logger.Info().Str("visit_id", v.ID).Str("customer_id", v.CustomerID).Str("sales_id", v.SalesID).Msg("visit recorded")
	return v, nil
}

func (s *VisitService) Get(ctx context.Context, id domain.Identity, visitID string) (*domain.VisitRecord, error) {
	v, err := s.repo.FindByID(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.AssertReadable(v.Ownership(), id); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *VisitService) List(ctx context.Context, id domain.Identity, filter ports.VisitFilter) (*ports.Page[*domain.VisitRecord], error) {
	if !filter.DateFrom.IsZero() && !filter.DateTo.IsZero() && filter.DateTo.Before(filter.DateFrom) {
		return nil, fmt.Errorf("date range: %w", domain.ErrInvalidInput)
	}
	filter.Scope = s.guard.ReadScope(id)
	filter.Page, filter.Limit = ports.NormalizePage(filter.Page, filter.Limit)

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	return ports.NewPage(items, total, filter.Page, filter.Limit), nil
}

// Update overwrites the writable fields. The customer and salesperson are
// fixed at creation.
func (s *VisitService) Update(ctx context.Context, id domain.Identity, visitID string, in ports.VisitInput) (*domain.VisitRecord, error) {
	v, err := s.repo.FindByID(ctx, visitID)
	if err != nil {
		return nil, err
	}
	in.CustomerID = v.CustomerID
	if err := validateVisitInput(in); err != nil {
		return nil, err
	}
	if err := s.guard.AssertMutable(v.Ownership(), id, access.ActionUpdate); err != nil {
		return nil, err
	}

	applyVisitInput(v, in)
	v.UpdatedBy = id.ID
	v.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, fmt.Errorf("update visit: %w", err)
	}
	return v, nil
}

func (s *VisitService) Delete(ctx context.Context, id domain.Identity, visitID string) error {
	v, err := s.repo.FindByID(ctx, visitID)
	if err != nil {
		return err
	}
	if err := s.guard.AssertMutable(v.Ownership(), id, access.ActionDelete); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, v.ID); err != nil {
		return fmt.Errorf("delete visit: %w", err)
	}
	return nil
}

func (s *VisitService) BatchDelete(ctx context.Context, id domain.Identity, visitIDs []string) (int64, error) {
	ids := uniqueIDs(visitIDs)
	if len(ids) == 0 {
		return 0, fmt.Errorf("batch delete visits: no ids: %w", domain.ErrInvalidInput)
	}

	var deleted int64
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		for _, vid := range ids {
			v, err := s.repo.FindByID(ctx, vid)
			if err != nil {
				return err
			}
			if err := s.guard.AssertMutable(v.Ownership(), id, access.ActionBatchDelete); err != nil {
				return err
			}
		}
		n, err := s.repo.DeleteMany(ctx, ids)
		if err != nil {
			return fmt.Errorf("batch delete visits: %w", err)
		}
		deleted = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info().Int64("count", deleted).Str("user_id", id.ID).Msg("visits batch deleted")
	return deleted, nil
}

func validateVisitInput(in ports.VisitInput) error {
	if in.CustomerID == "" {
		return fmt.Errorf("customer is required: %w", domain.ErrInvalidInput)
	}
	if in.VisitDate.IsZero() {
		return fmt.Errorf("visit date is required: %w", domain.ErrInvalidInput)
	}
	if in.DurationMinutes < 0 {
		return fmt.Errorf("duration must not be negative: %w", domain.ErrInvalidInput)
	}
	if in.Rating < 0 || in.Rating > 5 {
		return fmt.Errorf("rating must be 0-5: %w", domain.ErrInvalidInput)
	}
	return nil
}

func applyVisitInput(v *domain.VisitRecord, in ports.VisitInput) {
	v.CustomerID = in.CustomerID
	v.VisitDate = in.VisitDate.UTC()
	v.DurationMinutes = in.DurationMinutes
	v.VisitType = in.VisitType
	if v.VisitType == "" {
		v.VisitType = domain.VisitFaceToFace
	}
	if in.Status != "" {
		v.Status = in.Status
	}
	v.IntentLevel = in.IntentLevel
	v.Location = in.Location
	v.BusinessItems = in.BusinessItems
	v.PainPoints = in.PainPoints
	v.Competitors = in.Competitors
	v.NextStep = in.NextStep
	v.FollowUpDate = in.FollowUpDate
	v.Notes = in.Notes
	v.Rating = in.Rating
}
