package statemachine

import (
	"context"
	"fmt"
	"time"

	"github.com/looplab/fsm"
	"github.com/sjperalta/ordino-api/internal/models"
)

// CheckFSM wraps a check instrument with its state machine
type CheckFSM struct {
	check *models.CheckInstrument
	fsm   *fsm.FSM
}

// NewCheckFSM creates a new check state machine
func NewCheckFSM(check *models.CheckInstrument) *CheckFSM {
	cfsm := &CheckFSM{
		check: check,
	}

	cfsm.fsm = fsm.NewFSM(
		check.Status,
		fsm.Events{
			// pending → cleared
			{Name: "clear", Src: []string{models.CheckStatusPending}, Dst: models.CheckStatusCleared},

			// pending → bounced
			{Name: "bounce", Src: []string{models.CheckStatusPending}, Dst: models.CheckStatusBounced},

			// any live state → reversed (payment reversal)
			{Name: "reverse", Src: []string{models.CheckStatusPending, models.CheckStatusCleared, models.CheckStatusBounced}, Dst: models.CheckStatusReversed},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				now := time.Now()
				cfsm.check.StatusChangedAt = &now
			},
		},
	)

	return cfsm
}

// Clear transitions check to cleared state
func (c *CheckFSM) Clear(ctx context.Context) error {
	if !c.check.MayClear() {
		return fmt.Errorf("check cannot be cleared in current state: %s", c.check.Status)
	}

	if err := c.fsm.Event(ctx, "clear"); err != nil {
		return fmt.Errorf("failed to clear check: %w", err)
	}

	c.check.Status = c.fsm.Current()
	return nil
}

// Bounce transitions check to bounced state
func (c *CheckFSM) Bounce(ctx context.Context) error {
	if !c.check.MayBounce() {
		return fmt.Errorf("check cannot be bounced in current state: %s", c.check.Status)
	}

	if err := c.fsm.Event(ctx, "bounce"); err != nil {
		return fmt.Errorf("failed to bounce check: %w", err)
	}

	c.check.Status = c.fsm.Current()
	return nil
}

// Reverse marks the check as reversed together with its payment event
func (c *CheckFSM) Reverse(ctx context.Context) error {
	if !c.check.MayReverse() {
		return fmt.Errorf("check cannot be reversed in current state: %s", c.check.Status)
	}

	if err := c.fsm.Event(ctx, "reverse"); err != nil {
		return fmt.Errorf("failed to reverse check: %w", err)
	}

	c.check.Status = c.fsm.Current()
	return nil
}

// Current returns the current state
func (c *CheckFSM) Current() string {
	return c.fsm.Current()
}

// Can checks if a transition is possible
func (c *CheckFSM) Can(event string) bool {
	return c.fsm.Can(event)
}
