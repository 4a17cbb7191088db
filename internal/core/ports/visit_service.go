package ports

import (
	"context"
	"time"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
)

// VisitInput carries the writable visit-record fields. SalesID is only
// read on create; empty means the caller.
type VisitInput struct {
	CustomerID      string
	SalesID         string
	VisitDate       time.Time
	DurationMinutes int
	VisitType       domain.VisitType
	Status          domain.VisitStatus
	IntentLevel     domain.IntentLevel
	Location        string
	BusinessItems   string
	PainPoints      string
	Competitors     string
	NextStep        string
	FollowUpDate    *time.Time
	Notes           string
	Rating          int
}

// VisitService defines use-case operations for visit records.
type VisitService interface {
	Create(ctx context.Context, id domain.Identity, in VisitInput) (*domain.VisitRecord, error)
	Get(ctx context.Context, id domain.Identity, visitID string) (*domain.VisitRecord, error)
	// List ignores filter.Scope and applies the caller's scope instead.
	List(ctx context.Context, id domain.Identity, filter VisitFilter) (*Page[*domain.VisitRecord], error)
	Update(ctx context.Context, id domain.Identity, visitID string, in VisitInput) (*domain.VisitRecord, error)
	Delete(ctx context.Context, id domain.Identity, visitID string) error
	BatchDelete(ctx context.Context, id domain.Identity, visitIDs []string) (int64, error)
}
