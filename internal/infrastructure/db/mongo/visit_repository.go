package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/ports"
)

var _ ports.VisitRepository = (*VisitRepository)(nil)

type VisitRepository struct {
	col *mongo.Collection
}

func NewVisitRepository(db *mongo.Database) *VisitRepository {
	return &VisitRepository{col: db.Collection(collectionVisits)}
}

func (r *VisitRepository) Create(ctx context.Context, v *domain.VisitRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, v); err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

func (r *VisitRepository) FindByID(ctx context.Context, id string) (*domain.VisitRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var v domain.VisitRecord
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&v); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrVisitNotFound
		}
		return nil, fmt.Errorf("find visit: %w", err)
	}
	return &v, nil
}

func (r *VisitRepository) Update(ctx context.Context, v *domain.VisitRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": v.ID}, v)
	if err != nil {
		return fmt.Errorf("replace visit: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrVisitNotFound
	}
	return nil
}

func (r *VisitRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete visit: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrVisitNotFound
	}
	return nil
}

func (r *VisitRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("delete visits: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *VisitRepository) CountByCustomer(ctx context.Context, customerID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"customer_id": customerID})
	if err != nil {
		return 0, fmt.Errorf("count visits: %w", err)
	}
	return n, nil
}

func (r *VisitRepository) MoveCustomer(ctx context.Context, fromID string, to *domain.Customer) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateMany(ctx, bson.M{"customer_id": fromID}, bson.M{"$set": bson.M{
		"customer_id":   to.ID,
		"school_id":     to.SchoolID,
		"department_id": to.DepartmentID,
	}})
	if err != nil {
		return 0, fmt.Errorf("move visits: %w", err)
	}
	return res.ModifiedCount, nil
}

// List returns a page of visit records inside f.Scope, newest first.
func (r *VisitRepository) List(ctx context.Context, f ports.VisitFilter) ([]*domain.VisitRecord, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	criteria := bson.M{}
	if f.CustomerID != "" {
		criteria["customer_id"] = f.CustomerID
	}
	if f.Status != "" {
		criteria["status"] = string(f.Status)
	}
	dateRange := bson.M{}
	if !f.DateFrom.IsZero() {
		dateRange["$gte"] = f.DateFrom.UTC()
	}
	if !f.DateTo.IsZero() {
		dateRange["$lte"] = f.DateTo.UTC()
	}
	if len(dateRange) > 0 {
		criteria["visit_date"] = dateRange
	}
	filter := and(scopeFilter(f.Scope, "sales_id", "sales_department"), criteria)

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count visits: %w", err)
	}

	cur, err := r.col.Find(ctx, filter, pageOptions(f.Page, f.Limit, bson.D{{Key: "visit_date", Value: -1}}))
	if err != nil {
		return nil, 0, fmt.Errorf("find visits: %w", err)
	}
	var out []*domain.VisitRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("decode visits: %w", err)
	}
	return out, total, nil
}
