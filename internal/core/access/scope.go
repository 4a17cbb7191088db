package access

import "github.com/jiang666/visitmanagement2-sub000/internal/core/domain"

// ScopeFor computes the read-visibility predicate for id. Call it once per
// request; identities (and departments) can change between requests.
func ScopeFor(id domain.Identity) domain.Scope {
	switch id.Role {
	case domain.RoleAdmin:
		return domain.AllScope()
	case domain.RoleManager:
		return domain.DepartmentScope(id.Department)
	case domain.RoleSales:
		return domain.OwnerScope(id.ID)
	default:
		return domain.Scope{}
	}
}
