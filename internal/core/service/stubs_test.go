package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/access"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/ports"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	byID  map[string]*domain.User
	calls int // every method call, used to assert the store was not touched
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{byID: make(map[string]*domain.User)}
	for _, u := range users {
		r.byID[u.ID] = cloneUser(u)
	}
	return r
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.calls++
	for _, u := range r.byID {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.calls++
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.FindByUsername(ctx, username)
	return err == nil, nil
}

func (r *stubUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.calls++
	for _, u := range r.byID {
		if email != "" && u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.calls++
	for _, u := range r.byID {
		if u.Username == user.Username {
			return nil, domain.ErrUserExists
		}
	}
	r.byID[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	r.calls++
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.LastLoginAt = &at
	return nil
}

func (r *stubUserRepo) SetPasswordHash(_ context.Context, id, hash string, at time.Time) error {
	r.calls++
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = at
	return nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	r.calls++
	u, ok := r.byID[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	clone := cloneUser(user)
	clone.PasswordHash = u.PasswordHash
	clone.LastLoginAt = u.LastLoginAt
	r.byID[user.ID] = clone
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.calls++
	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubUserRepo) List(_ context.Context, f ports.UserFilter) ([]*domain.User, int64, error) {
	r.calls++
	var out []*domain.User
	for _, u := range r.byID {
		if !f.Scope.Permits(u.Ownership()) {
			continue
		}
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Search != "" && !strings.Contains(u.Username, f.Search) && !strings.Contains(u.RealName, f.Search) {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return paginate(out, f.Page, f.Limit)
}

func paginate[T any](items []T, page, limit int) ([]T, int64, error) {
	total := int64(len(items))
	if limit <= 0 {
		limit = len(items)
	}
	skip := (page - 1) * limit
	if skip < 0 {
		skip = 0
	}
	if skip > len(items) {
		return []T{}, total, nil
	}
	end := skip + limit
	if end > len(items) {
		end = len(items)
	}
	return items[skip:end], total, nil
}

// ---------------------------------------------------------------------------
// Transactions, audit, throttle
// ---------------------------------------------------------------------------

type stubTx struct{ runs int }

func (t *stubTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.runs++
	return fn(ctx)
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (s *recordingSink) Record(_ context.Context, e domain.AuthEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) types() []domain.AuthEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AuthEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

type stubThrottle struct {
	max      int
	failures map[string]int
}

func newStubThrottle(limit int) *stubThrottle {
	return &stubThrottle{max: limit, failures: make(map[string]int)}
}

func (t *stubThrottle) Allowed(_ context.Context, username string) (bool, error) {
	return t.failures[username] < t.max, nil
}

func (t *stubThrottle) Failed(_ context.Context, username string) error {
	t.failures[username]++
	return nil
}

func (t *stubThrottle) Reset(_ context.Context, username string) error {
	delete(t.failures, username)
	return nil
}

// ---------------------------------------------------------------------------
// Identities
// ---------------------------------------------------------------------------

func newTestGuard() *access.Guard {
	return access.NewGuard(discardLogger, nil)
}

var (
	adminID   = domain.Identity{ID: "u-admin", Username: "admin", Role: domain.RoleAdmin, Department: "HQ", Active: true}
	managerX  = domain.Identity{ID: "u-mgr-x", Username: "mgrx", Role: domain.RoleManager, Department: "X", Active: true}
	managerY  = domain.Identity{ID: "u-mgr-y", Username: "mgry", Role: domain.RoleManager, Department: "Y", Active: true}
	aliceID   = domain.Identity{ID: "u-alice", Username: "alice", Role: domain.RoleSales, Department: "X", Active: true}
	bobID     = domain.Identity{ID: "u-bob", Username: "bob", Role: domain.RoleSales, Department: "X", Active: true}
	carolID   = domain.Identity{ID: "u-carol", Username: "carol", Role: domain.RoleSales, Department: "Y", Active: true}
	testStart = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
)

func userFor(id domain.Identity) *domain.User {
	return &domain.User{
		ID:         id.ID,
		Username:   id.Username,
		RealName:   id.Username,
		Role:       id.Role,
		Department: id.Department,
		Status:     domain.StatusActive,
	}
}

// ---------------------------------------------------------------------------
// Customers and visits
// ---------------------------------------------------------------------------

type stubCustomerRepo struct {
	byID map[string]*domain.Customer
}

func newStubCustomerRepo(cs ...*domain.Customer) *stubCustomerRepo {
	r := &stubCustomerRepo{byID: make(map[string]*domain.Customer)}
	for _, c := range cs {
		clone := *c
		r.byID[c.ID] = &clone
	}
	return r
}

func (r *stubCustomerRepo) Create(_ context.Context, c *domain.Customer) error {
	clone := *c
	r.byID[c.ID] = &clone
	return nil
}

func (r *stubCustomerRepo) FindByID(_ context.Context, id string) (*domain.Customer, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *stubCustomerRepo) Update(_ context.Context, c *domain.Customer) error {
	if _, ok := r.byID[c.ID]; !ok {
		return domain.ErrCustomerNotFound
	}
	clone := *c
	r.byID[c.ID] = &clone
	return nil
}

func (r *stubCustomerRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrCustomerNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubCustomerRepo) DeleteMany(_ context.Context, ids []string) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, ok := r.byID[id]; ok {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

// List applies the same scope predicate the real Mongo filter encodes.
func (r *stubCustomerRepo) List(_ context.Context, f ports.CustomerFilter) ([]*domain.Customer, int64, error) {
	var out []*domain.Customer
	for _, c := range r.byID {
		if !f.Scope.Permits(c.Ownership()) {
			continue
		}
		if f.SchoolID != "" && c.SchoolID != f.SchoolID {
			continue
		}
		if f.Search != "" && !strings.Contains(c.Name, f.Search) {
			continue
		}
		clone := *c
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, f.Page, f.Limit)
}

type stubVisitRepo struct {
	byID map[string]*domain.VisitRecord
}

func newStubVisitRepo(vs ...*domain.VisitRecord) *stubVisitRepo {
	r := &stubVisitRepo{byID: make(map[string]*domain.VisitRecord)}
	for _, v := range vs {
		clone := *v
		r.byID[v.ID] = &clone
	}
	return r
}

func (r *stubVisitRepo) Create(_ context.Context, v *domain.VisitRecord) error {
	clone := *v
	r.byID[v.ID] = &clone
	return nil
}

func (r *stubVisitRepo) FindByID(_ context.Context, id string) (*domain.VisitRecord, error) {
	v, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrVisitNotFound
	}
	clone := *v
	return &clone, nil
}

func (r *stubVisitRepo) Update(_ context.Context, v *domain.VisitRecord) error {
	if _, ok := r.byID[v.ID]; !ok {
		return domain.ErrVisitNotFound
	}
	clone := *v
	r.byID[v.ID] = &clone
	return nil
}

func (r *stubVisitRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrVisitNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubVisitRepo) DeleteMany(_ context.Context, ids []string) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, ok := r.byID[id]; ok {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

func (r *stubVisitRepo) CountByCustomer(_ context.Context, customerID string) (int64, error) {
	var n int64
	for _, v := range r.byID {
		if v.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

func (r *stubVisitRepo) MoveCustomer(_ context.Context, fromID string, to *domain.Customer) (int64, error) {
	var n int64
	for _, v := range r.byID {
		if v.CustomerID == fromID {
			v.CustomerID = to.ID
			v.SchoolID = to.SchoolID
			v.DepartmentID = to.DepartmentID
			n++
		}
	}
	return n, nil
}

func (r *stubVisitRepo) List(_ context.Context, f ports.VisitFilter) ([]*domain.VisitRecord, int64, error) {
	var out []*domain.VisitRecord
	for _, v := range r.byID {
		if !f.Scope.Permits(v.Ownership()) {
			continue
		}
		if f.CustomerID != "" && v.CustomerID != f.CustomerID {
			continue
		}
		if f.Status != "" && v.Status != f.Status {
			continue
		}
		if !f.DateFrom.IsZero() && v.VisitDate.Before(f.DateFrom) {
			continue
		}
		if !f.DateTo.IsZero() && v.VisitDate.After(f.DateTo) {
			continue
		}
		clone := *v
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VisitDate.Before(out[j].VisitDate) })
	return paginate(out, f.Page, f.Limit)
}

// ---------------------------------------------------------------------------
// Directory
// ---------------------------------------------------------------------------

type stubSchoolRepo struct {
	byID map[string]*domain.School
}

func newStubSchoolRepo(ss ...*domain.School) *stubSchoolRepo {
	r := &stubSchoolRepo{byID: make(map[string]*domain.School)}
	for _, s := range ss {
		clone := *s
		r.byID[s.ID] = &clone
	}
	return r
}

func (r *stubSchoolRepo) Create(_ context.Context, s *domain.School) error {
	clone := *s
	r.byID[s.ID] = &clone
	return nil
}

func (r *stubSchoolRepo) FindByID(_ context.Context, id string) (*domain.School, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrSchoolNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *stubSchoolRepo) Update(_ context.Context, s *domain.School) error {
	clone := *s
	r.byID[s.ID] = &clone
	return nil
}

func (r *stubSchoolRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrSchoolNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubSchoolRepo) List(_ context.Context, f ports.SchoolFilter) ([]*domain.School, int64, error) {
	var out []*domain.School
	for _, s := range r.byID {
		clone := *s
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, f.Page, f.Limit)
}

type stubDepartmentRepo struct {
	byID map[string]*domain.Department
}

func newStubDepartmentRepo(ds ...*domain.Department) *stubDepartmentRepo {
	r := &stubDepartmentRepo{byID: make(map[string]*domain.Department)}
	for _, d := range ds {
		clone := *d
		r.byID[d.ID] = &clone
	}
	return r
}

func (r *stubDepartmentRepo) Create(_ context.Context, d *domain.Department) error {
	clone := *d
	r.byID[d.ID] = &clone
	return nil
}

func (r *stubDepartmentRepo) FindByID(_ context.Context, id string) (*domain.Department, error) {
	d, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrDepartmentNotFound
	}
	clone := *d
	return &clone, nil
}

func (r *stubDepartmentRepo) Update(_ context.Context, d *domain.Department) error {
	clone := *d
	r.byID[d.ID] = &clone
	return nil
}

func (r *stubDepartmentRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrDepartmentNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubDepartmentRepo) DeleteMany(_ context.Context, ids []string) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, ok := r.byID[id]; ok {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

func (r *stubDepartmentRepo) List(_ context.Context, f ports.DepartmentFilter) ([]*domain.Department, int64, error) {
	var out []*domain.Department
	for _, d := range r.byID {
		if f.SchoolID != "" && d.SchoolID != f.SchoolID {
			continue
		}
		clone := *d
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, f.Page, f.Limit)
}
