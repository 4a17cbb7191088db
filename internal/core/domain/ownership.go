package domain

// ResourceKind names the entity type an ownership record belongs to.
type ResourceKind string

const (
	KindCustomer    ResourceKind = "customer"
	KindVisitRecord ResourceKind = "visit_record"
	KindSchool      ResourceKind = "school"
	KindDepartment  ResourceKind = "department"
	KindUser        ResourceKind = "user"
)

// Ownership is the creator/assignee reference every owned record exposes.
// OwnerDepartment is the owner's department at assignment time. Shared
// marks directory records (schools, departments) that every role may read.
type Ownership struct {
	Kind            ResourceKind
	OwnerID         string
	OwnerDepartment string
	Shared          bool
}

// Owned is implemented by every entity the access guard protects.
type Owned interface {
	Ownership() Ownership
}

// ScopeKind enumerates visibility predicates.
type ScopeKind int

const (
	// ScopeNone permits nothing; it is the zero value.
	ScopeNone ScopeKind = iota
	ScopeAll
	ScopeDepartment
	ScopeOwner
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeAll:
		return "all"
	case ScopeDepartment:
		return "department"
	case ScopeOwner:
		return "owner"
	default:
		return "none"
	}
}

// Scope is the read-visibility predicate derived from an identity. It is
// computed per request and must not be cached.
type Scope struct {
	Kind       ScopeKind
	Department string
	OwnerID    string
}

// AllScope, DepartmentScope and OwnerScope build the three scope values.
func AllScope() Scope { return Scope{Kind: ScopeAll} }

func DepartmentScope(dept string) Scope {
	return Scope{Kind: ScopeDepartment, Department: dept}
}

func OwnerScope(userID string) Scope {
	return Scope{Kind: ScopeOwner, OwnerID: userID}
}

// Permits reports whether a record with ownership o is visible under s.
// Unowned records are visible under ScopeAll only, and an empty department
// or owner in the scope never matches.
func (s Scope) Permits(o Ownership) bool {
	switch s.Kind {
	case ScopeAll:
		return true
	case ScopeDepartment:
		return o.OwnerID != "" && s.Department != "" && o.OwnerDepartment == s.Department
	case ScopeOwner:
		return o.OwnerID != "" && s.OwnerID != "" && o.OwnerID == s.OwnerID
	default:
		return false
	}
}
