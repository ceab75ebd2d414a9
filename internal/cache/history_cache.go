// Package cache holds the client-side view of workout history and the
// optimistic-mutation bookkeeping around it: a submitted log is shown
// immediately as a pending entry, then reconciled against the server or
// rolled back to the exact pre-mutation state.
package cache

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ironlog/fitness-app/internal/domain"
)

// EntryStatus marks whether an entry is server-confirmed or still pending.
type EntryStatus string

const (
	StatusPending   EntryStatus = "pending"
	StatusConfirmed EntryStatus = "confirmed"
)

// Entry is one visible history row. Pending entries carry a synthetic id
// until the authoritative one replaces them on reconciliation.
type Entry struct {
	ID     string
	Status EntryStatus
	Log    domain.WorkoutLog
}

// Notifier surfaces mutation failures to the user (toast equivalent).
type Notifier interface {
	Notify(message string)
}

// FetchFunc retrieves the authoritative history from the server.
type FetchFunc func(ctx context.Context) ([]domain.WorkoutLog, error)

// HistoryCache is the cached history list. It is injected where needed,
// never a package-level singleton.
type HistoryCache struct {
	mu       sync.Mutex
	entries  []Entry
	snapshot []Entry // pre-mutation state, non-nil while a mutation is in flight
	inFlight bool
	fetch    FetchFunc
	notifier Notifier
	logger   zerolog.Logger
}

// NewHistoryCache creates an empty cache.
func NewHistoryCache(fetch FetchFunc, notifier Notifier, logger zerolog.Logger) *HistoryCache {
	return &HistoryCache{
		fetch:    fetch,
		notifier: notifier,
		logger:   logger.With().Str("component", "history-cache").Logger(),
	}
}

// Seed replaces the cache with server-confirmed rows.
func (c *HistoryCache) Seed(logs []domain.WorkoutLog) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = confirmedEntries(logs)
}

// Entries returns a copy of the current visible list.
func (c *HistoryCache) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// ApplyPending snapshots the current state and inserts the submitted log at
// the head of the list as a pending entry with a synthetic id. The id is
// returned so callers can correlate the eventual outcome.
func (c *HistoryCache) ApplyPending(log domain.WorkoutLog) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.inFlight {
		c.snapshot = make([]Entry, len(c.entries))
		copy(c.snapshot, c.entries)
		c.inFlight = true
	}

	entry := Entry{
		ID:     uuid.NewString(),
		Status: StatusPending,
		Log:    log,
	}
	c.entries = append([]Entry{entry}, c.entries...)
	return entry.ID
}

// Reconcile invalidates the optimistic state after a server success: the
// authoritative list is refetched and replaces the cache wholesale, so the
// pending entry and its confirmed counterpart can never both be visible.
func (c *HistoryCache) Reconcile(ctx context.Context) error {
	logs, err := c.fetch(ctx)
	if err != nil {
		// The optimistic entry stays visible; the next successful fetch
		// settles the view.
		c.logger.Warn().Err(err).Msg("history refetch failed after mutation")
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = confirmedEntries(logs)
	c.snapshot = nil
	c.inFlight = false
	return nil
}

// Rollback restores the exact pre-mutation state after a server failure and
// reports the error through the notifier.
func (c *HistoryCache) Rollback(err error) {
	c.mu.Lock()
	if c.inFlight {
		c.entries = c.snapshot
		c.snapshot = nil
		c.inFlight = false
	}
	c.mu.Unlock()

	c.logger.Warn().Err(err).Msg("log submission failed, cache rolled back")
	if c.notifier != nil {
		c.notifier.Notify("Could not save your workout. Please try again.")
	}
}

func confirmedEntries(logs []domain.WorkoutLog) []Entry {
	entries := make([]Entry, len(logs))
	for i, log := range logs {
		entries[i] = Entry{
			ID:     log.ID.Hex(),
			Status: StatusConfirmed,
			Log:    log,
		}
	}
	return entries
}
