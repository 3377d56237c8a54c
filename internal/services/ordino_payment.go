package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sjperalta/ordino-api/internal/models"
	"github.com/sjperalta/ordino-api/internal/reconciliation"
	"github.com/sjperalta/ordino-api/internal/repository"
	"github.com/sjperalta/ordino-api/internal/statemachine"
	"github.com/sjperalta/ordino-api/pkg/logger"
	"gorm.io/gorm"
)

// PaymentOutcome is what a completed payment transaction produced
type PaymentOutcome struct {
	IntentID    string                   `json:"intent_id"`
	Operation   string                   `json:"operation"`
	Line        models.ManifestLine      `json:"line"`
	Balance     reconciliation.Balance   `json:"balance"`
	Checks      []models.CheckInstrument `json:"checks,omitempty"`
	LedgerEntry models.FinanceEntry      `json:"ledger_entry"`
	Version     int64                    `json:"version"`
}

// RecordPayment validates the request against the freshest copy of the line
// and then writes the check registry, the finance ledger and the manifest in
// that order. A failure after the intent is stored returns a PartialFailureError.
func (s *OrdinoService) RecordPayment(ctx context.Context, shipmentID uint, lineID string, req reconciliation.PaymentRequest, actorID uint, ip, userAgent string) (*PaymentOutcome, error) {
	shipment, line, err := s.loadLine(ctx, shipmentID, lineID)
	if err != nil {
		return nil, err
	}

	intentID := s.ledger.NewID()
	req.IntentID = intentID

	result, err := s.ledger.RecordPayment(line, req)
	if err != nil {
		return nil, err
	}

	for i := range result.ChecksToCreate {
		result.ChecksToCreate[i].ShipmentID = shipment.ID
	}
	result.LedgerEntry.ShipmentID = shipment.ID

	intent := &models.PaymentIntent{
		ID:          intentID,
		ShipmentID:  shipment.ID,
		LineID:      line.ID,
		Operation:   models.IntentOperationRecord,
		Status:      models.IntentStatusPending,
		BaseVersion: shipment.Version,
		Payload: models.IntentPayload{
			Events:      result.Events,
			Checks:      result.ChecksToCreate,
			LedgerEntry: result.LedgerEntry,
		},
		ActorID: actorID,
	}
	if err := s.intents.Create(ctx, intent); err != nil {
		return nil, fmt.Errorf("failed to persist payment intent: %w", err)
	}

	outcome, err := s.execute(ctx, intent, shipment)
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, models.AuditActionRecordPayment, "Shipment", idString(shipment.ID),
		fmt.Sprintf("Recorded %.2f %s by %s on line %s (intent %s)",
			result.LedgerEntry.Amount, result.LedgerEntry.Currency, req.Method, line.ID, intentID),
		ip, userAgent)
	return outcome, nil
}

// ReversePayment removes one payment event from a line. The check that carried
// it is marked reversed and a compensating expense entry is appended; nothing
// is deleted from the check registry or the finance ledger.
func (s *OrdinoService) ReversePayment(ctx context.Context, shipmentID uint, lineID, paymentID string, actorID uint, ip, userAgent string) (*PaymentOutcome, error) {
	shipment, line, err := s.loadLine(ctx, shipmentID, lineID)
	if err != nil {
		return nil, err
	}

	event, ok := line.FindPayment(paymentID)
	if !ok {
		return nil, &reconciliation.NotFoundError{PaymentID: paymentID}
	}
	if _, err := s.ledger.ReversePayment(line, paymentID); err != nil {
		return nil, err
	}

	intentID := s.ledger.NewID()
	intent := &models.PaymentIntent{
		ID:          intentID,
		ShipmentID:  shipment.ID,
		LineID:      line.ID,
		Operation:   models.IntentOperationReverse,
		Status:      models.IntentStatusPending,
		BaseVersion: shipment.Version,
		Payload: models.IntentPayload{
			ReversedEvent: &event,
			LedgerEntry: models.FinanceEntry{
				ShipmentID:   shipment.ID,
				IntentID:     intentID,
				Type:         models.FinanceTypeExpense,
				Currency:     event.Currency,
				Amount:       event.Amount,
				Description:  fmt.Sprintf("Ordino payment reversal (%s %s) - %s", event.Method, event.Reference, line.CustomerName),
				CustomerName: line.CustomerName,
				Source:       models.FinanceSourceOrdinoReversal,
				RefNo:        line.OrdinoNo,
				EntryDate:    time.Now(),
			},
		},
		ActorID: actorID,
	}
	if err := s.intents.Create(ctx, intent); err != nil {
		return nil, fmt.Errorf("failed to persist payment intent: %w", err)
	}

	outcome, err := s.execute(ctx, intent, shipment)
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, models.AuditActionReversePayment, "Shipment", idString(shipment.ID),
		fmt.Sprintf("Reversed payment %s of %.2f %s on line %s (intent %s)",
			event.ID, event.Amount, event.Currency, line.ID, intentID),
		ip, userAgent)
	return outcome, nil
}

// RetryIntent replays a failed intent. Steps that already landed are skipped
// and the manifest step runs against a freshly loaded shipment.
func (s *OrdinoService) RetryIntent(ctx context.Context, id string, actorID uint, ip, userAgent string) (*PaymentOutcome, error) {
	intent, err := s.GetIntent(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := statemachine.NewIntentFSM(intent).Retry(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if err := s.intents.Update(ctx, intent); err != nil {
		return nil, fmt.Errorf("failed to reopen payment intent: %w", err)
	}

	shipment, err := s.shipments.FindByID(ctx, intent.ShipmentID)
	if err != nil {
		return nil, s.fail(ctx, intent, models.IntentStepManifest, fmt.Errorf("failed to reload shipment: %w", err))
	}

	outcome, err := s.execute(ctx, intent, shipment)
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, models.AuditActionRetryIntent, "PaymentIntent", intent.ID,
		fmt.Sprintf("Retried %s intent (attempt %d)", intent.Operation, intent.Attempts), ip, userAgent)
	return outcome, nil
}

// AbandonIntent hands a failed intent over to manual reconciliation
func (s *OrdinoService) AbandonIntent(ctx context.Context, id, reason string, actorID uint, ip, userAgent string) (*models.PaymentIntent, error) {
	intent, err := s.GetIntent(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := statemachine.NewIntentFSM(intent).Abandon(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if err := s.intents.Update(ctx, intent); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, models.AuditActionAbandonIntent, "PaymentIntent", intent.ID,
		fmt.Sprintf("Abandoned %s intent: %s", intent.Operation, reason), ip, userAgent)
	return intent, nil
}

func (s *OrdinoService) GetIntent(ctx context.Context, id string) (*models.PaymentIntent, error) {
	intent, err := s.intents.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return intent, nil
}

func (s *OrdinoService) ListIntents(ctx context.Context, query *repository.ListQuery) ([]models.PaymentIntent, int64, error) {
	return s.intents.List(ctx, query)
}

// SweepStaleIntents marks intents stuck in pending as failed so they show up
// for retry. A pending intent older than staleAfter means the process died mid-way.
func (s *OrdinoService) SweepStaleIntents(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.staleAfter)
	stale, err := s.intents.FindStalePending(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	swept := 0
	for i := range stale {
		intent := &stale[i]
		cause := fmt.Errorf("intent still pending after %s", s.staleAfter)
		if err := statemachine.NewIntentFSM(intent).Fail(ctx, models.IntentStepInterrupted, cause); err != nil {
			logger.Warn("Failed to transition stale payment intent", "intent_id", intent.ID, "error", err)
			continue
		}
		if err := s.intents.Update(ctx, intent); err != nil {
			logger.Error("Failed to mark stale payment intent", "intent_id", intent.ID, "error", err)
			continue
		}
		swept++
	}

	if swept > 0 {
		logger.Warn("Marked interrupted payment intents as failed", "count", swept)
	}
	return swept, nil
}

// execute runs the remaining saga steps for intent. Each step is idempotent so
// the same function serves the first run and every retry.
func (s *OrdinoService) execute(ctx context.Context, intent *models.PaymentIntent, shipment *models.Shipment) (*PaymentOutcome, error) {
	if err := s.persistChecks(ctx, intent); err != nil {
		return nil, s.fail(ctx, intent, models.IntentStepChecks, err)
	}

	if err := s.persistLedgerEntry(ctx, intent); err != nil {
		return nil, s.fail(ctx, intent, models.IntentStepLedger, err)
	}

	line, version, err := s.persistManifest(ctx, intent, shipment)
	if err != nil {
		return nil, s.fail(ctx, intent, models.IntentStepManifest, err)
	}

	if err := statemachine.NewIntentFSM(intent).Complete(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if err := s.intents.Update(ctx, intent); err != nil {
		// Every store is written. The sweeper flags the intent and a retry closes it.
		logger.Warn("Failed to mark payment intent completed", "intent_id", intent.ID, "error", err)
	}

	return &PaymentOutcome{
		IntentID:    intent.ID,
		Operation:   intent.Operation,
		Line:        line,
		Balance:     s.ledger.Settings().Balance(&line),
		Checks:      intent.Payload.Checks,
		LedgerEntry: intent.Payload.LedgerEntry,
		Version:     version,
	}, nil
}

func (s *OrdinoService) persistChecks(ctx context.Context, intent *models.PaymentIntent) error {
	if intent.Operation == models.IntentOperationReverse {
		return s.reverseLinkedCheck(ctx, intent)
	}
	if intent.ChecksDone() {
		return nil
	}

	for i := range intent.Payload.Checks {
		check := &intent.Payload.Checks[i]
		if check.ID != 0 {
			continue
		}

		// A crash between create and intent update leaves the row behind
		existing, err := s.checks.FindByPaymentEventID(ctx, check.PaymentEventID)
		if err == nil {
			check.ID = existing.ID
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up check %s: %w", check.ReferenceNo, err)
		}

		if err := s.checks.Create(ctx, check); err != nil {
			return fmt.Errorf("failed to create check %s: %w", check.ReferenceNo, err)
		}
	}

	return s.intents.Update(ctx, intent)
}

func (s *OrdinoService) reverseLinkedCheck(ctx context.Context, intent *models.PaymentIntent) error {
	event := intent.Payload.ReversedEvent
	if event == nil || event.Method != models.PaymentMethodCheck {
		return nil
	}

	check, err := s.checks.FindByPaymentEventID(ctx, event.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up check for payment %s: %w", event.ID, err)
	}
	if check.Status == models.CheckStatusReversed {
		return nil
	}

	if err := statemachine.NewCheckFSM(check).Reverse(ctx); err != nil {
		return err
	}
	if err := s.checks.Update(ctx, check); err != nil {
		return fmt.Errorf("failed to reverse check %s: %w", check.ReferenceNo, err)
	}
	return nil
}

func (s *OrdinoService) persistLedgerEntry(ctx context.Context, intent *models.PaymentIntent) error {
	if intent.LedgerEntryID != nil {
		return nil
	}

	entry := intent.Payload.LedgerEntry
	existing, err := s.finance.FindByIntent(ctx, intent.ID, entry.Source)
	switch {
	case err == nil:
		entry = *existing
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.finance.Create(ctx, &entry); err != nil {
			return fmt.Errorf("failed to append ledger entry: %w", err)
		}
	default:
		return fmt.Errorf("failed to look up ledger entry: %w", err)
	}

	entryID := entry.ID
	intent.LedgerEntryID = &entryID
	intent.Payload.LedgerEntry = entry
	return s.intents.Update(ctx, intent)
}

func (s *OrdinoService) persistManifest(ctx context.Context, intent *models.PaymentIntent, shipment *models.Shipment) (models.ManifestLine, int64, error) {
	line, ok := shipment.Line(intent.LineID)
	if !ok {
		return models.ManifestLine{}, 0, ErrLineNotFound
	}
	if intent.ManifestWritten || manifestHasOutcome(&line, intent) {
		intent.ManifestWritten = true
		return line, shipment.Version, nil
	}

	var updated models.ManifestLine
	var err error
	if intent.Operation == models.IntentOperationReverse {
		updated, err = s.ledger.ReversePayment(line, intent.Payload.ReversedEvent.ID)
	} else {
		updated, err = s.ledger.ApplyEvents(line, intent.Payload.Events)
	}
	if err != nil {
		return models.ManifestLine{}, 0, err
	}

	manifest, _ := shipment.Manifest.Replace(updated)
	version, err := s.writeManifestVersion(ctx, shipment, manifest)
	if err != nil {
		return models.ManifestLine{}, 0, err
	}

	intent.ManifestWritten = true
	return updated, version, nil
}

// manifestHasOutcome reports whether the line already reflects the intent
func manifestHasOutcome(line *models.ManifestLine, intent *models.PaymentIntent) bool {
	if intent.Operation == models.IntentOperationReverse {
		return intent.Payload.ReversedEvent == nil || !line.HasPayment(intent.Payload.ReversedEvent.ID)
	}
	for _, e := range intent.Payload.Events {
		if !line.HasPayment(e.ID) {
			return false
		}
	}
	return true
}

// fail records the failed step on the intent, reports it and wraps the cause
func (s *OrdinoService) fail(ctx context.Context, intent *models.PaymentIntent, step string, cause error) error {
	// The request context may already be cancelled; the failure must still land.
	ctx = context.WithoutCancel(ctx)

	if err := statemachine.NewIntentFSM(intent).Fail(ctx, step, cause); err != nil {
		logger.Error("Failed to transition payment intent", "intent_id", intent.ID, "error", err)
	}
	if err := s.intents.Update(ctx, intent); err != nil {
		logger.Error("Failed to persist payment intent failure", "intent_id", intent.ID, "error", err)
	}

	logger.Error("Payment intent failed",
		"intent_id", intent.ID,
		"operation", intent.Operation,
		"shipment_id", intent.ShipmentID,
		"step", step,
		"error", cause,
	)
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("intent_id", intent.ID)
		scope.SetTag("intent_step", step)
		scope.SetTag("intent_operation", intent.Operation)
		sentry.CaptureException(cause)
	})

	return &PartialFailureError{IntentID: intent.ID, Step: step, Err: cause}
}
