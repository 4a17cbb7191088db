package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/access"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/ports"
)

var _ ports.CustomerService = (*CustomerService)(nil)

type CustomerService struct {
	repo   ports.CustomerRepository
	visits ports.VisitRepository
	users  ports.UserRepository
	tx     ports.TxManager
	guard  *access.Guard
	logger zerolog.Logger
}

func NewCustomerService(
	repo ports.CustomerRepository,
	visits ports.VisitRepository,
	users ports.UserRepository,
	tx ports.TxManager,
	guard *access.Guard,
	logger zerolog.Logger,
) *CustomerService {
	return &CustomerService{repo: repo, visits: visits, users: users, tx: tx, guard: guard, logger: logger}
}

// Create stores a new customer owned by the caller, or by in.OwnerID when
// the caller may create records on that user's behalf.
func (s *CustomerService) Create(ctx context.Context, id domain.Identity, in ports.CustomerInput) (*domain.Customer, error) {
	if err := validateCustomerInput(in); err != nil {
		return nil, err
	}

	owner, err := resolveAssignee(ctx, s.users, id, in.OwnerID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	c := &domain.Customer{
		ID:              uuid.NewString(),
		OwnerID:         owner.ID,
		OwnerDepartment: owner.Department,
		Status:          domain.CustomerActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	applyCustomerInput(c, in)
	c.UpdatedBy = id.ID

	if err := s.guard.AssertMutable(c.Ownership(), id, access.ActionCreate); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		s.logger.Error().Err(err).Msg("failed to create customer")
		return nil, err
	}

	s.logger.Info().Str("customer_id", c.ID).Str("owner_id", c.OwnerID).Str("user_id", id.ID).Msg("customer created")
	return c, nil
}

func (s *CustomerService) Get(ctx context.Context, id domain.Identity, customerID string) (*domain.Customer, error) {
	c, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.AssertReadable(c.Ownership(), id); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns the page of customers visible to the caller.
func (s *CustomerService) List(ctx context.Context, id domain.Identity, filter ports.CustomerFilter) (*ports.Page[*domain.Customer], error) {
	filter.Scope = s.guard.ReadScope(id)
	filter.Page, filter.Limit = ports.NormalizePage(filter.Page, filter.Limit)

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return ports.NewPage(items, total, filter.Page, filter.Limit), nil
}

// Update overwrites the writable fields. Ownership never changes here.
func (s *CustomerService) Update(ctx context.Context, id domain.Identity, customerID string, in ports.CustomerInput) (*domain.Customer, error) {
	if err := validateCustomerInput(in); err != nil {
		return nil, err
	}

	c, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.AssertMutable(c.Ownership(), id, access.ActionUpdate); err != nil {
		return nil, err
	}

	applyCustomerInput(c, in)
	c.UpdatedBy = id.ID
	c.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return c, nil
}

// Delete removes a customer with no visit records. Only administrators
// and managers delete customers.
func (s *CustomerService) Delete(ctx context.Context, id domain.Identity, customerID string) error {
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.repo.FindByID(ctx, customerID)
		if err != nil {
			return err
		}
		if err := s.guard.AssertMutable(c.Ownership(), id, access.ActionManagedDelete); err != nil {
			return err
		}
		if err := s.ensureNoVisits(ctx, c); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, c.ID); err != nil {
			return fmt.Errorf("delete customer: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info().Str("customer_id", customerID).Str("user_id", id.ID).Msg("customer deleted")
	return nil
}

// BatchDelete removes every listed customer or none of them.
func (s *CustomerService) BatchDelete(ctx context.Context, id domain.Identity, customerIDs []string) (int64, error) {
	ids := uniqueIDs(customerIDs)
	if len(ids) == 0 {
		return 0, fmt.Errorf("batch delete customers: no ids: %w", domain.ErrInvalidInput)
	}

	var deleted int64
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		for _, cid := range ids {
			c, err := s.repo.FindByID(ctx, cid)
			if err != nil {
				return err
			}
			if err := s.guard.AssertMutable(c.Ownership(), id, access.ActionBatchDelete); err != nil {
				return err
			}
			if err := s.ensureNoVisits(ctx, c); err != nil {
				return err
			}
		}
		n, err := s.repo.DeleteMany(ctx, ids)
		if err != nil {
			return fmt.Errorf("batch delete customers: %w", err)
		}
		deleted = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info().Int64("count", deleted).Str("user_id", id.ID).Msg("customers batch deleted")
	return deleted, nil
}

func (s *CustomerService) ensureNoVisits(ctx context.Context, c *domain.Customer) error {
	n, err := s.visits.CountByCustomer(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("count visits of customer %s: %w", c.ID, err)
	}
	if n > 0 {
		return fmt.Errorf("customer %s has %d visit records: %w", c.Name, n, domain.ErrInvalidInput)
	}
	return nil
}

// Merge moves every visit record of sourceID onto targetID and deletes the
// source customer. Both customers must be writable by the caller.
func (s *CustomerService) Merge(ctx context.Context, id domain.Identity, sourceID, targetID string) (*domain.Customer, error) {
	if sourceID == "" || targetID == "" || sourceID == targetID {
		return nil, fmt.Errorf("merge customers: distinct source and target required: %w", domain.ErrInvalidInput)
	}

	var (
		target *domain.Customer
		moved  int64
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		source, err := s.repo.FindByID(ctx, sourceID)
		if err != nil {
			return err
		}
		if target, err = s.repo.FindByID(ctx, targetID); err != nil {
			return err
		}
		for _, c := range []*domain.Customer{source, target} {
			if err := s.guard.AssertMutable(c.Ownership(), id, access.ActionMerge); err != nil {
				return err
			}
		}

		if moved, err = s.visits.MoveCustomer(ctx, source.ID, target); err != nil {
			return fmt.Errorf("merge customers: %w", err)
		}
		if err := s.repo.Delete(ctx, source.ID); err != nil {
			return fmt.Errorf("merge customers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("source_id", sourceID).
		Str("target_id", targetID).
		Int64("visits_moved", moved).
		Str("user_id", id.ID).
		Msg("customers merged")
	return target, nil
}

// Transfer reassigns a customer to another user. The owner department is
// re-denormalized from the new owner.
func (s *CustomerService) Transfer(ctx context.Context, id domain.Identity, customerID, newOwnerID string) (*domain.Customer, error) {
	var out *domain.Customer
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.repo.FindByID(ctx, customerID)
		if err != nil {
			return err
		}
		if err := s.guard.AssertMutable(c.Ownership(), id, access.ActionTransfer); err != nil {
			return err
		}

		owner, err := s.users.FindByID(ctx, newOwnerID)
		if err != nil {
			return fmt.Errorf("transfer customer: new owner: %w", err)
		}
		if !owner.Active() {
			return fmt.Errorf("transfer customer: new owner inactive: %w", domain.ErrInvalidInput)
		}

		c.OwnerID = owner.ID
		c.OwnerDepartment = owner.Department
		c.UpdatedBy = id.ID
		c.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, c); err != nil {
			return fmt.Errorf("transfer customer: %w", err)
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("customer_id", out.ID).Str("owner_id", out.OwnerID).Str("user_id", id.ID).Msg("customer transferred")
	return out, nil
}

func validateCustomerInput(in ports.CustomerInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("customer name is required: %w", domain.ErrInvalidInput)
	}
	if in.InfluenceLevel != "" && !in.InfluenceLevel.Valid() {
		return fmt.Errorf("influence level %q: %w", in.InfluenceLevel, domain.ErrInvalidInput)
	}
	if in.DecisionPower != "" && !in.DecisionPower.Valid() {
		return fmt.Errorf("decision power %q: %w", in.DecisionPower, domain.ErrInvalidInput)
	}
	if in.Status != "" && in.Status != domain.CustomerActive && in.Status != domain.CustomerInactive {
		return fmt.Errorf("customer status %q: %w", in.Status, domain.ErrInvalidInput)
	}
	return nil
}

func applyCustomerInput(c *domain.Customer, in ports.CustomerInput) {
	c.Name = strings.TrimSpace(in.Name)
	c.Position = in.Position
	c.Title = in.Title
	c.SchoolID = in.SchoolID
	c.DepartmentID = in.DepartmentID
	c.Phone = in.Phone
	c.Wechat = in.Wechat
	c.Email = in.Email
	c.OfficeLocation = in.OfficeLocation
	c.ResearchDirection = in.ResearchDirection
	c.InfluenceLevel = in.InfluenceLevel
	if c.InfluenceLevel == "" {
		c.InfluenceLevel = domain.InfluenceMedium
	}
	c.DecisionPower = in.DecisionPower
	if c.DecisionPower == "" {
		c.DecisionPower = domain.DecisionOther
	}
	if in.Status != "" {
		c.Status = in.Status
	}
	c.Notes = in.Notes
}

// resolveAssignee returns the user a new record will belong to: the caller
// when assigneeID is empty, otherwise the named active user. Only roles that
// may write for others get to learn whether an assignee exists; the rest see
// domain.ErrForbidden.
func resolveAssignee(ctx context.Context, users ports.UserRepository, id domain.Identity, assigneeID string) (domain.Identity, error) {
	if assigneeID == "" || assigneeID == id.ID {
		return id, nil
	}
	if !access.CanMutate(id.Role) {
		return domain.Identity{}, fmt.Errorf("assign to %s: %w", assigneeID, domain.ErrForbidden)
	}
	unusable := domain.ErrInvalidInput
	if !access.CanAdminister(id.Role) {
		unusable = domain.ErrForbidden
	}

	u, err := users.FindByID(ctx, assigneeID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.Identity{}, fmt.Errorf("assignee %s: %w", assigneeID, unusable)
	}
	if err != nil {
		return domain.Identity{}, err
	}
	if !u.Active() {
		return domain.Identity{}, fmt.Errorf("assignee %s inactive: %w", assigneeID, unusable)
	}
	return u.Identity(), nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
