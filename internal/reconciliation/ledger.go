package reconciliation

import (
	"time"

	"github.com/google/uuid"
)

// Ledger applies payment operations to manifest lines. It is stateless apart
// from its settings and can be shared across goroutines.
type Ledger struct {
	settings Settings
	newID    func() string
	now      func() time.Time
}

// Option configures a Ledger
type Option func(*Ledger)

// WithIDGenerator overrides the uuid generator used for new events and lines
func WithIDGenerator(fn func() string) Option {
	return func(l *Ledger) {
		l.newID = fn
	}
}

// WithClock overrides the clock used when a request carries no date
func WithClock(fn func() time.Time) Option {
	return func(l *Ledger) {
		l.now = fn
	}
}

// NewLedger creates a ledger with the given settings
func NewLedger(settings Settings, opts ...Option) *Ledger {
	l := &Ledger{
		settings: settings,
		newID:    func() string { return uuid.NewString() },
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Settings returns the configuration the ledger was built with
func (l *Ledger) Settings() Settings {
	return l.settings
}

// NewID returns a fresh identifier from the ledger's generator
func (l *Ledger) NewID() string {
	return l.newID()
}
