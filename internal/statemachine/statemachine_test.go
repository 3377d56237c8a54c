package statemachine

import (
	"context"
	"errors"
	"testing"

	"github.com/sjperalta/ordino-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntentFSM_HappyPath(t *testing.T) {
	intent := &models.PaymentIntent{Status: models.IntentStatusPending}
	f := NewIntentFSM(intent)

	require.NoError(t, f.Complete(context.Background()))
	assert.Equal(t, models.IntentStatusCompleted, intent.Status)
	assert.NotNil(t, intent.CompletedAt)
	assert.False(t, f.Can("retry"))
}

func TestIntentFSM_FailRetryComplete(t *testing.T) {
	ctx := context.Background()
	intent := &models.PaymentIntent{Status: models.IntentStatusPending}
	f := NewIntentFSM(intent)

	require.NoError(t, f.Fail(ctx, models.IntentStepLedger, errors.New("connection reset")))
	assert.Equal(t, models.IntentStatusFailed, intent.Status)
	require.NotNil(t, intent.FailedStep)
	assert.Equal(t, models.IntentStepLedger, *intent.FailedStep)
	assert.Equal(t, "connection reset", *intent.LastError)

	require.NoError(t, f.Retry(ctx))
	assert.Equal(t, models.IntentStatusPending, intent.Status)
	assert.Equal(t, 1, intent.Attempts)

	require.NoError(t, f.Complete(ctx))
	assert.Nil(t, intent.FailedStep)
	assert.Nil(t, intent.LastError)
}

func TestIntentFSM_InvalidTransitions(t *testing.T) {
	ctx := context.Background()

	pending := &models.PaymentIntent{Status: models.IntentStatusPending}
	assert.Error(t, NewIntentFSM(pending).Retry(ctx))
	assert.Error(t, NewIntentFSM(pending).Abandon(ctx))

	completed := &models.PaymentIntent{Status: models.IntentStatusCompleted}
	assert.Error(t, NewIntentFSM(completed).Fail(ctx, models.IntentStepManifest, errors.New("x")))
	assert.Error(t, NewIntentFSM(completed).Complete(ctx))

	failed := &models.PaymentIntent{Status: models.IntentStatusFailed}
	require.NoError(t, NewIntentFSM(failed).Abandon(ctx))
	assert.Equal(t, models.IntentStatusAbandoned, failed.Status)
	assert.Error(t, NewIntentFSM(failed).Retry(ctx))
}

func TestCheckFSM(t *testing.T) {
	ctx := context.Background()

	t.Run("clear pending", func(t *testing.T) {
		check := &models.CheckInstrument{Status: models.CheckStatusPending}
		require.NoError(t, NewCheckFSM(check).Clear(ctx))
		assert.Equal(t, models.CheckStatusCleared, check.Status)
		assert.NotNil(t, check.StatusChangedAt)
	})

	t.Run("bounce pending", func(t *testing.T) {
		check := &models.CheckInstrument{Status: models.CheckStatusPending}
		require.NoError(t, NewCheckFSM(check).Bounce(ctx))
		assert.Equal(t, models.CheckStatusBounced, check.Status)
	})

	t.Run("cleared check cannot bounce", func(t *testing.T) {
		check := &models.CheckInstrument{Status: models.CheckStatusCleared}
		assert.Error(t, NewCheckFSM(check).Bounce(ctx))
		assert.Equal(t, models.CheckStatusCleared, check.Status)
	})

	t.Run("reverse from any live state", func(t *testing.T) {
		for _, status := range []string{models.CheckStatusPending, models.CheckStatusCleared, models.CheckStatusBounced} {
			check := &models.CheckInstrument{Status: status}
			require.NoError(t, NewCheckFSM(check).Reverse(ctx), status)
			assert.Equal(t, models.CheckStatusReversed, check.Status)
		}
	})

	t.Run("reversed is terminal", func(t *testing.T) {
		check := &models.CheckInstrument{Status: models.CheckStatusReversed}
		f := NewCheckFSM(check)
		assert.Error(t, f.Reverse(ctx))
		assert.Error(t, f.Clear(ctx))
		assert.False(t, f.Can("bounce"))
	})
}
