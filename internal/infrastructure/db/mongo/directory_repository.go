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

var (
	_ ports.SchoolRepository     = (*SchoolRepository)(nil)
	_ ports.DepartmentRepository = (*DepartmentRepository)(nil)
)

type SchoolRepository struct {
	col *mongo.Collection
}

func NewSchoolRepository(db *mongo.Database) *SchoolRepository {
	return &SchoolRepository{col: db.Collection(collectionSchools)}
}

func (r *SchoolRepository) Create(ctx context.Context, s *domain.School) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("insert school: %w", err)
	}
	return nil
}

func (r *SchoolRepository) FindByID(ctx context.Context, id string) (*domain.School, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s domain.School
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSchoolNotFound
		}
		return nil, fmt.Errorf("find school: %w", err)
	}
	return &s, nil
}

func (r *SchoolRepository) Update(ctx context.Context, s *domain.School) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": s.ID}, s)
	if err != nil {
		return fmt.Errorf("replace school: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrSchoolNotFound
	}
	return nil
}

func (r *SchoolRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete school: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrSchoolNotFound
	}
	return nil
}

func (r *SchoolRepository) List(ctx context.Context, f ports.SchoolFilter) ([]*domain.School, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.Search != "" {
		filter["name"] = contains(f.Search)
	}
	if f.Province != "" {
		filter["province"] = f.Province
	}
	if f.City != "" {
		filter["city"] = f.City
	}
	if f.SchoolType != "" {
		filter["school_type"] = string(f.SchoolType)
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count schools: %w", err)
	}
	cur, err := r.col.Find(ctx, filter, pageOptions(f.Page, f.Limit, bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, 0, fmt.Errorf("find schools: %w", err)
	}
	var out []*domain.School
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("decode schools: %w", err)
	}
	return out, total, nil
}

type DepartmentRepository struct {
	col *mongo.Collection
}

func NewDepartmentRepository(db *mongo.Database) *DepartmentRepository {
	return &DepartmentRepository{col: db.Collection(collectionDepartments)}
}

func (r *DepartmentRepository) Create(ctx context.Context, d *domain.Department) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, d); err != nil {
		return fmt.Errorf("insert department: %w", err)
	}
	return nil
}

func (r *DepartmentRepository) FindByID(ctx context.Context, id string) (*domain.Department, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d domain.Department
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrDepartmentNotFound
		}
		return nil, fmt.Errorf("find department: %w", err)
	}
	return &d, nil
}

func (r *DepartmentRepository) Update(ctx context.Context, d *domain.Department) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": d.ID}, d)
	if err != nil {
		return fmt.Errorf("replace department: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrDepartmentNotFound
	}
	return nil
}

func (r *DepartmentRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete department: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrDepartmentNotFound
	}
	return nil
}

func (r *DepartmentRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("delete departments: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *DepartmentRepository) List(ctx context.Context, f ports.DepartmentFilter) ([]*domain.Department, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.SchoolID != "" {
		filter["school_id"] = f.SchoolID
	}
	if f.Search != "" {
		filter["name"] = contains(f.Search)
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count departments: %w", err)
	}
	cur, err := r.col.Find(ctx, filter, pageOptions(f.Page, f.Limit, bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, 0, fmt.Errorf("find departments: %w", err)
	}
	var out []*domain.Department
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("decode departments: %w", err)
	}
	return out, total, nil
}
