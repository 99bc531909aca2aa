// Package ledger tracks locally granted generation credits. The balance is
// deliberately independent of whatever the remote provider accounts for; it
// gates generation attempts on this side before any network call is made.
package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamadhk7/3D-AR-GENERATOR/types"
)

// SchemaVersion is written into every persisted snapshot.
const SchemaVersion = 1

// DefaultInitialBalance seeds a ledger that has never been persisted.
const DefaultInitialBalance = 5220

// ErrNotInitialized is returned by a Store when no snapshot has been
// persisted yet. The Ledger reacts by seeding the initial balance.
var ErrNotInitialized = errors.New("ledger: not initialized")

// Snapshot is the persisted ledger state.
type Snapshot struct {
	SchemaVersion int       `json:"schema_version"`
	FreeBalance   int64     `json:"free_balance"`
	TotalConsumed int64     `json:"total_consumed"`
	LastUpdated   time.Time `json:"last_updated"`
}

// Store persists ledger snapshots. Implementations do not need to be
// concurrency safe; the Ledger serializes all access.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
}

// Ledger gates and accounts generation attempts against an injected Store.
// All mutations are serialized by an in-process mutex, so concurrent debits
// on the same instance cannot lose updates.
type Ledger struct {
	store   Store
	initial int64
	logger  *zap.Logger
	mu      sync.Mutex
	now     func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithInitialBalance overrides the balance a fresh ledger is seeded with.
func WithInitialBalance(balance int64) Option {
	return func(l *Ledger) { l.initial = balance }
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates a Ledger backed by the given store.
func New(store Store, logger *zap.Logger, opts ...Option) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Ledger{
		store:   store,
		initial: DefaultInitialBalance,
		logger:  logger.With(zap.String("component", "credit_ledger")),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// load returns the current snapshot, seeding and persisting the initial
// balance if none exists yet. Callers must hold l.mu.
func (l *Ledger) load(ctx context.Context) (*Snapshot, error) {
	snap, err := l.store.Load(ctx)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, ErrNotInitialized) {
		return nil, types.NewError(types.ErrStorage, "failed to load credit ledger").WithCause(err)
	}

	snap = &Snapshot{
		SchemaVersion: SchemaVersion,
		FreeBalance:   l.initial,
		TotalConsumed: 0,
		LastUpdated:   l.now(),
	}
	if err := l.store.Save(ctx, snap); err != nil {
		return nil, types.NewError(types.ErrStorage, "failed to seed credit ledger").WithCause(err)
	}

	l.logger.Info("credit ledger initialized", zap.Int64("free_balance", snap.FreeBalance))
	return snap, nil
}

// CheckAvailable reports whether amount credits can be debited, along with
// the current balance. Read-only, except that a ledger that has never been
// persisted is lazily created with the configured initial balance.
func (l *Ledger) CheckAvailable(ctx context.Context, amount int64) (bool, int64, error) {
	if amount <= 0 {
		amount = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	snap, err := l.load(ctx)
	if err != nil {
		return false, 0, err
	}
	return snap.FreeBalance >= amount, snap.FreeBalance, nil
}

// Debit consumes amount credits as one logically atomic unit: the balance
// decreases, the consumed counter increases, the timestamp advances, and the
// snapshot is persisted, or none of that happens. Returns false without
// mutating state when the balance is insufficient.
func (l *Ledger) Debit(ctx context.Context, amount int64) (bool, error) {
	if amount <= 0 {
		amount = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	snap, err := l.load(ctx)
	if err != nil {
		return false, err
	}

	if snap.FreeBalance < amount {
		l.logger.Warn("insufficient credits",
			zap.Int64("free_balance", snap.FreeBalance),
			zap.Int64("requested", amount),
		)
		return false, nil
	}

	next := &Snapshot{
		SchemaVersion: SchemaVersion,
		FreeBalance:   snap.FreeBalance - amount,
		TotalConsumed: snap.TotalConsumed + amount,
		LastUpdated:   l.now(),
	}
	if err := l.store.Save(ctx, next); err != nil {
		return false, types.NewError(types.ErrStorage, "failed to persist credit debit").WithCause(err)
	}

	l.logger.Info("credits debited",
		zap.Int64("amount", amount),
		zap.Int64("free_balance", next.FreeBalance),
		zap.Int64("total_consumed", next.TotalConsumed),
	)
	return true, nil
}

// Status returns the current snapshot, seeding the ledger if needed.
func (l *Ledger) Status(ctx context.Context) (*Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}
