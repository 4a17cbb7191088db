// Package access holds the authorization core: the role decision table,
// the visibility scope resolver and the guard that entity services call
// before touching a record. Everything here is pure and performs no I/O.
package access

import "github.com/jiang666/visitmanagement2-sub000/internal/core/domain"

type grants struct {
	mutate      bool
	deleteBatch bool
	administer  bool
}

// decisionTable is flat on purpose: no role inherits from another.
var decisionTable = map[domain.Role]grants{
	domain.RoleAdmin:   {mutate: true, deleteBatch: true, administer: true},
	domain.RoleManager: {mutate: true, deleteBatch: true, administer: false},
	domain.RoleSales:   {mutate: false, deleteBatch: false, administer: false},
}

// CanMutate reports whether role may write records it does not own
// (within its scope) and maintain shared directory data. Sales writes are
// limited to its own records, which the Guard decides by ownership.
func CanMutate(role domain.Role) bool {
	return decisionTable[role].mutate
}

// CanDeleteBatch reports whether role may run batch destructive operations.
func CanDeleteBatch(role domain.Role) bool {
	return decisionTable[role].deleteBatch
}

// CanAdminister reports whether role may manage schools and user accounts.
func CanAdminister(role domain.Role) bool {
	return decisionTable[role].administer
}
