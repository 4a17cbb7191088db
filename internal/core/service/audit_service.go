package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/ports"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns the processor the audit dispatcher feeds.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditProcessor {
	return &auditService{repo: repo, log: log}
}

// Process completes and persists a single audit event.
func (s *auditService) Process(ctx context.Context, e domain.AuthEvent) error {
	if e.Type == "" {
		return fmt.Errorf("process audit event: %w: missing type", domain.ErrInvalidInput)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	if err := s.repo.Insert(ctx, &e); err != nil {
		return fmt.Errorf("process audit event: %w", err)
	}

	s.log.Debug().
		Str("type", string(e.Type)).
		Str("username", e.Username).
		Msg("audit event stored")
	return nil
}
