package ledger

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when a topic or version has no entry.
	ErrNotFound = errors.New("ledger: entry not found")

	// ErrConcurrentModification is returned when a concurrent publish wins
	// every retry.
	ErrConcurrentModification = errors.New("ledger: concurrent modification detected")
)

// Entry describes one published rank output.
type Entry struct {
	Topic           string
	Version         uint64
	RunID           string
	Output          string
	Nodes           int
	Iterations      int
	TotalRankChange float64
	Converged       bool
	CreatedAt       time.Time
}

// Ledger stores the published entries per topic.
type Ledger interface {
	// Publish assigns the next version to e and stores it. The stored entry
	// is returned.
	Publish(ctx context.Context, e Entry) (Entry, error)
	// Latest returns the highest version of topic.
	Latest(ctx context.Context, topic string) (Entry, error)
	// Get returns a specific version of topic.
	Get(ctx context.Context, topic string, version uint64) (Entry, error)
}

// MemoryLedger is an in-memory Ledger. It is safe for concurrent use.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries map[string][]Entry
	now     func() time.Time
}

// NewMemoryLedger creates an empty MemoryLedger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		entries: make(map[string][]Entry),
		now:     time.Now,
	}
}

// Publish implements Ledger.
func (l *MemoryLedger) Publish(_ context.Context, e Entry) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.Version = uint64(len(l.entries[e.Topic])) + 1
	if e.CreatedAt.IsZero() {
		e.CreatedAt = l.now()
	}
	l.entries[e.Topic] = append(l.entries[e.Topic], e)
	return e, nil
}

// Latest implements Ledger.
func (l *MemoryLedger) Latest(_ context.Context, topic string) (Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := l.entries[topic]
	if len(entries) == 0 {
		return Entry{}, ErrNotFound
	}
	return entries[len(entries)-1], nil
}

// Get implements Ledger.
func (l *MemoryLedger) Get(_ context.Context, topic string, version uint64) (Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := l.entries[topic]
	if version == 0 || version > uint64(len(entries)) {
		return Entry{}, ErrNotFound
	}
	return entries[version-1], nil
}

// Topics returns the number of topics with at least one entry.
func (l *MemoryLedger) Topics() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
