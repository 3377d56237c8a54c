package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sjperalta/ordino-api/internal/models"
	"github.com/sjperalta/ordino-api/internal/repository"
	"github.com/sjperalta/ordino-api/internal/statemachine"
)

// CheckService manages the check registry. Checks are created by payments;
// this service only moves them through their lifecycle.
type CheckService struct {
	repo     repository.CheckRepository
	auditSvc *AuditService
}

func NewCheckService(repo repository.CheckRepository, auditSvc *AuditService) *CheckService {
	return &CheckService{repo: repo, auditSvc: auditSvc}
}

func (s *CheckService) FindByID(ctx context.Context, id uint) (*models.CheckInstrument, error) {
	check, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return check, nil
}

func (s *CheckService) List(ctx context.Context, query *repository.ListQuery) ([]models.CheckInstrument, int64, error) {
	return s.repo.List(ctx, query)
}

// DueWithin returns pending checks falling due in the next days, overdue ones included
func (s *CheckService) DueWithin(ctx context.Context, days int) ([]models.CheckInstrument, error) {
	now := time.Now()
	from := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	return s.repo.FindDueBetween(ctx, from, now.AddDate(0, 0, days))
}

func (s *CheckService) Clear(ctx context.Context, id uint, actorID uint, ip, userAgent string) (*models.CheckInstrument, error) {
	return s.transition(ctx, id, actorID, ip, userAgent, func(f *statemachine.CheckFSM) error {
		return f.Clear(ctx)
	})
}

// Bounce marks a check as returned unpaid. The payment it carried stays on the
// manifest line until an operator reverses it.
func (s *CheckService) Bounce(ctx context.Context, id uint, actorID uint, ip, userAgent string) (*models.CheckInstrument, error) {
	return s.transition(ctx, id, actorID, ip, userAgent, func(f *statemachine.CheckFSM) error {
		return f.Bounce(ctx)
	})
}

func (s *CheckService) transition(ctx context.Context, id uint, actorID uint, ip, userAgent string, event func(*statemachine.CheckFSM) error) (*models.CheckInstrument, error) {
	check, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := check.Status
	if err := event(statemachine.NewCheckFSM(check)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if err := s.repo.Update(ctx, check); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, models.AuditActionCheckStatus, "Check", idString(check.ID),
		fmt.Sprintf("Check %s: %s -> %s", check.ReferenceNo, previous, check.Status), ip, userAgent)
	return check, nil
}
