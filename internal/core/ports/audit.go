package ports

import (
	"context"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
)

// AuditSink accepts authentication events. Record must not block the
// request path and never fails it.
type AuditSink interface {
	Record(ctx context.Context, event domain.AuthEvent)
}

// AuditRepository persists the audit trail.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuthEvent) error
}

// LoginThrottle counts consecutive login failures per username.
type LoginThrottle interface {
	// Allowed reports whether another attempt for username may proceed.
	Allowed(ctx context.Context, username string) (bool, error)
	Failed(ctx context.Context, username string) error
	Reset(ctx context.Context, username string) error
}

// AuditProcessor handles one dequeued audit event.
type AuditProcessor interface {
	Process(ctx context.Context, event domain.AuthEvent) error
}
