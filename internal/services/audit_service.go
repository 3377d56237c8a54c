package services

import (
	"context"

	"github.com/sjperalta/ordino-api/internal/jobs"
	"github.com/sjperalta/ordino-api/internal/models"
	"github.com/sjperalta/ordino-api/internal/repository"
	"github.com/sjperalta/ordino-api/pkg/logger"
)

type AuditService struct {
	repo   repository.AuditRepository
	worker *jobs.Worker
}

func NewAuditService(repo repository.AuditRepository, worker *jobs.Worker) *AuditService {
	return &AuditService{repo: repo, worker: worker}
}

// Log records an audit entry. With a worker the write happens in the background
// and never fails the caller's operation.
func (s *AuditService) Log(ctx context.Context, userID uint, action, entity, entityID, details, ip, userAgent string) {
	if s == nil {
		return
	}

	entry := &models.AuditLog{
		UserID:    userID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Details:   details,
		IPAddress: ip,
		UserAgent: userAgent,
	}

	if s.worker == nil {
		if err := s.repo.Create(ctx, entry); err != nil {
			logger.Warn("Failed to write audit log", "action", action, "entity_id", entityID, "error", err)
		}
		return
	}

	s.worker.Enqueue(func(jobCtx context.Context) error {
		return s.repo.Create(jobCtx, entry)
	})
}

// List retrieves audit logs with filters
func (s *AuditService) List(ctx context.Context, query *repository.ListQuery) ([]models.AuditLog, int64, error) {
	return s.repo.List(ctx, query)
}
