package statemachine

import (
	"context"
	"fmt"
	"time"

	"github.com/looplab/fsm"
	"github.com/sjperalta/ordino-api/internal/models"
)

// IntentFSM wraps a payment intent with its state machine
type IntentFSM struct {
	intent *models.PaymentIntent
	fsm    *fsm.FSM
}

// NewIntentFSM creates a new payment intent state machine
func NewIntentFSM(intent *models.PaymentIntent) *IntentFSM {
	ifsm := &IntentFSM{
		intent: intent,
	}

	ifsm.fsm = fsm.NewFSM(
		intent.Status,
		fsm.Events{
			// pending → completed
			{Name: "complete", Src: []string{models.IntentStatusPending}, Dst: models.IntentStatusCompleted},

			// pending → failed
			{Name: "fail", Src: []string{models.IntentStatusPending}, Dst: models.IntentStatusFailed},

			// failed → pending (retry)
			{Name: "retry", Src: []string{models.IntentStatusFailed}, Dst: models.IntentStatusPending},

			// failed → abandoned (manual reconciliation)
			{Name: "abandon", Src: []string{models.IntentStatusFailed}, Dst: models.IntentStatusAbandoned},
		},
		fsm.Callbacks{},
	)

	return ifsm
}

// Complete marks every step of the intent as done
func (i *IntentFSM) Complete(ctx context.Context) error {
	if err := i.fsm.Event(ctx, "complete"); err != nil {
		return fmt.Errorf("failed to complete intent: %w", err)
	}

	now := time.Now()
	i.intent.Status = i.fsm.Current()
	i.intent.CompletedAt = &now
	i.intent.FailedStep = nil
	i.intent.LastError = nil
	return nil
}

// Fail records the step that broke and moves the intent to failed
func (i *IntentFSM) Fail(ctx context.Context, step string, cause error) error {
	if err := i.fsm.Event(ctx, "fail"); err != nil {
		return fmt.Errorf("failed to fail intent: %w", err)
	}

	i.intent.Status = i.fsm.Current()
	i.intent.MarkFailed(step, cause)
	return nil
}

// Retry moves a failed intent back to pending and counts the attempt
func (i *IntentFSM) Retry(ctx context.Context) error {
	if !i.intent.MayRetry() {
		return fmt.Errorf("intent cannot be retried in current state: %s", i.intent.Status)
	}

	if err := i.fsm.Event(ctx, "retry"); err != nil {
		return fmt.Errorf("failed to retry intent: %w", err)
	}

	i.intent.Status = i.fsm.Current()
	i.intent.Attempts++
	return nil
}

// Abandon hands a failed intent over to manual reconciliation
func (i *IntentFSM) Abandon(ctx context.Context) error {
	if !i.intent.MayAbandon() {
		return fmt.Errorf("intent cannot be abandoned in current state: %s", i.intent.Status)
	}

	if err := i.fsm.Event(ctx, "abandon"); err != nil {
		return fmt.Errorf("failed to abandon intent: %w", err)
	}

	i.intent.Status = i.fsm.Current()
	return nil
}

// Current returns the current state
func (i *IntentFSM) Current() string {
	return i.fsm.Current()
}

// Can checks if a transition is possible
func (i *IntentFSM) Can(event string) bool {
	return i.fsm.Can(event)
}
