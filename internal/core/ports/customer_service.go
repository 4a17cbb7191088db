package ports

import (
	"context"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
)

// CustomerInput carries the writable customer fields. OwnerID is only
// read on create; empty means the caller.
type CustomerInput struct {
	Name              string
	Position          string
	Title             string
	SchoolID          string
	DepartmentID      string
	Phone             string
	Wechat            string
	Email             string
	OfficeLocation    string
	ResearchDirection string
	InfluenceLevel    domain.InfluenceLevel
	DecisionPower     domain.DecisionPower
	Status            domain.CustomerStatus
	Notes             string
	OwnerID           string
}

// CustomerService defines use-case operations for customers. Every call
// is checked against the caller identity.
type CustomerService interface {
	Create(ctx context.Context, id domain.Identity, in CustomerInput) (*domain.Customer, error)
	Get(ctx context.Context, id domain.Identity, customerID string) (*domain.Customer, error)
	// List ignores filter.Scope and applies the caller's scope instead.
	List(ctx context.Context, id domain.Identity, filter CustomerFilter) (*Page[*domain.Customer], error)
	Update(ctx context.Context, id domain.Identity, customerID string, in CustomerInput) (*domain.Customer, error)
	Delete(ctx context.Context, id domain.Identity, customerID string) error
	BatchDelete(ctx context.Context, id domain.Identity, customerIDs []string) (int64, error)
	Transfer(ctx context.Context, id domain.Identity, customerID, newOwnerID string) (*domain.Customer, error)
	// Merge moves the source's visit records to the target and deletes the
	// source, returning the target.
	Merge(ctx context.Context, id domain.Identity, sourceID, targetID string) (*domain.Customer, error)
}
