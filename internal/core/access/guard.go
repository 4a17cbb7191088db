package access

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
)

// Action is the class of write an entity service is about to perform.
type Action string

const (
	ActionCreate      Action = "create"
	ActionUpdate      Action = "update"
	ActionDelete      Action = "delete"
	ActionBatchDelete Action = "batch_delete"
	ActionTransfer    Action = "transfer"
	// ActionManagedDelete is a single-record delete reserved to the roles
	// that may also delete in bulk.
	ActionManagedDelete Action = "managed_delete"
	// ActionMerge folds one record into another of the same kind.
	ActionMerge Action = "merge"
)

// DenialRecorder observes guard denials. The API layer plugs Prometheus in.
type DenialRecorder interface {
	Denied(action string, kind domain.ResourceKind)
}

// Guard is the checkpoint every entity service calls before returning,
// creating, mutating or deleting a record. It holds no per-request state.
type Guard struct {
	log      zerolog.Logger
	recorder DenialRecorder
}

// NewGuard returns a Guard. recorder may be nil.
func NewGuard(log zerolog.Logger, recorder DenialRecorder) *Guard {
	return &Guard{log: log, recorder: recorder}
}

// ReadScope returns the visibility predicate list queries must apply.
func (g *Guard) ReadScope(id domain.Identity) domain.Scope {
	return ScopeFor(id)
}

// AssertReadable fails with domain.ErrForbidden unless id may see res.
func (g *Guard) AssertReadable(res domain.Ownership, id domain.Identity) error {
	if readable(res, id) {
		return nil
	}
	return g.deny("read", res.Kind, id)
}

// AssertMutable checks a write. Batch deletes, managed deletes, merges and
// transfers are decided by the role table first; directory records need CanMutate for any write;
// per-record writes then apply the same ownership test as reads.
func (g *Guard) AssertMutable(res domain.Ownership, id domain.Identity, action Action) error {
	switch action {
	case ActionBatchDelete, ActionManagedDelete:
		if !CanDeleteBatch(id.Role) {
			return g.deny(string(action), res.Kind, id)
		}
	case ActionMerge:
		if !CanMutate(id.Role) {
			return g.deny(string(action), res.Kind, id)
		}
	case ActionTransfer:
		if !CanAdminister(id.Role) {
			return g.deny(string(action), res.Kind, id)
		}
	case ActionCreate, ActionUpdate, ActionDelete:
	default:
		return g.deny(string(action), res.Kind, id)
	}

	if res.Shared {
		if !CanMutate(id.Role) {
			return g.deny(string(action), res.Kind, id)
		}
		return nil
	}

	if !ownerMatch(res, id) {
		return g.deny(string(action), res.Kind, id)
	}
	return nil
}

// AssertAdminAction fails with domain.ErrForbidden for non-administrators.
func (g *Guard) AssertAdminAction(id domain.Identity) error {
	if CanAdminister(id.Role) {
		return nil
	}
	return g.deny("administer", "", id)
}

func readable(res domain.Ownership, id domain.Identity) bool {
	if res.Shared {
		return id.Role.Valid()
	}
	return ownerMatch(res, id)
}

// ownerMatch is the ownership test shared by reads and per-record writes.
func ownerMatch(res domain.Ownership, id domain.Identity) bool {
	return ScopeFor(id).Permits(res)
}

func (g *Guard) deny(action string, kind domain.ResourceKind, id domain.Identity) error {
	if g.recorder != nil {
		g.recorder.Denied(action, kind)
	}
	g.log.Debug().
		Str("user_id", id.ID).
		Str("role", string(id.Role)).
		Str("action", action).
		Str("kind", string(kind)).
		Msg("access denied")
	if kind == "" {
		return fmt.Errorf("%s: %w", action, domain.ErrForbidden)
	}
	return fmt.Errorf("%s %s: %w", action, kind, domain.ErrForbidden)
}
