package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ChangeType represents the kind of chain configuration change
type ChangeType string

const (
	ChangeRegister  ChangeType = "register"
	ChangeAttach    ChangeType = "attach"
	ChangeDetach    ChangeType = "detach"
	ChangeEnable    ChangeType = "enable"
	ChangeDisable   ChangeType = "disable"
	ChangeSortOrder ChangeType = "sort_order"
	ChangeApply     ChangeType = "apply"
)

// ChangeEntry represents a single chain configuration change
type ChangeEntry struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Operation   string          `json:"operation"`
	Change      ChangeType      `json:"change"`
	Interceptor string          `json:"interceptor,omitempty"`
	BeforeState json.RawMessage `json:"beforeState,omitempty"`
	AfterState  json.RawMessage `json:"afterState,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// ChangeJournal tracks how the interceptor chains of operations change over time
type ChangeJournal interface {
	// Record records a change entry
	Record(ctx context.Context, entry *ChangeEntry) error

	// RecordChange records a change with the chain state before and after it
	RecordChange(ctx context.Context, operation string, change ChangeType, interceptor string, before, after any) error

	// RecordError records a rejected change
	RecordError(ctx context.Context, operation string, change ChangeType, interceptor string, err error) error

	// GetByOperation retrieves the most recent changes of an operation
	GetByOperation(ctx context.Context, operation string, limit int) ([]*ChangeEntry, error)

	// GetByTimeRange retrieves changes within a time range
	GetByTimeRange(ctx context.Context, start, end time.Time) ([]*ChangeEntry, error)

	// GetStats returns journal statistics
	GetStats(ctx context.Context) (*JournalStats, error)

	// Clear removes entries older than the specified duration
	Clear(ctx context.Context, olderThan time.Duration) (int, error)
}

// JournalStats represents journal statistics
type JournalStats struct {
	TotalEntries       int64                `json:"totalEntries"`
	EntriesByChange    map[ChangeType]int64 `json:"entriesByChange"`
	EntriesByOperation map[string]int64     `json:"entriesByOperation"`
	ErrorCount         int64                `json:"errorCount"`
	LastEntry          time.Time            `json:"lastEntry"`
}

// InMemoryJournal provides an in-memory implementation of ChangeJournal
type InMemoryJournal struct {
	entries       []*ChangeEntry
	byOperation   map[string][]*ChangeEntry
	mu            sync.RWMutex
	maxEntries    int
	rotatePercent float64
}

// InMemoryJournalOption configures the in-memory journal
type InMemoryJournalOption func(*InMemoryJournal)

// WithMaxEntries sets the maximum number of entries
func WithMaxEntries(max int) InMemoryJournalOption {
	return func(j *InMemoryJournal) {
		if max > 0 {
			j.maxEntries = max
		}
	}
}

// WithRotatePercent sets the share of entries dropped when max is reached.
// Values outside (0, 1] are ignored.
func WithRotatePercent(percent float64) InMemoryJournalOption {
	return func(j *InMemoryJournal) {
		if percent > 0 && percent <= 1 {
			j.rotatePercent = percent
		}
	}
}

// NewInMemoryJournal creates a new in-memory journal
func NewInMemoryJournal(opts ...InMemoryJournalOption) *InMemoryJournal {
	j := &InMemoryJournal{
		byOperation:   make(map[string][]*ChangeEntry),
		maxEntries:    1000,
		rotatePercent: 0.2,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Record records a change entry
func (j *InMemoryJournal) Record(ctx context.Context, entry *ChangeEntry) error {
	if entry == nil {
		return fmt.Errorf("entry cannot be nil")
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if len(j.entries) >= j.maxEntries {
		j.rotate()
	}
	j.entries = append(j.entries, entry)
	if entry.Operation != "" {
		j.byOperation[entry.Operation] = append(j.byOperation[entry.Operation], entry)
	}
	return nil
}

// RecordChange records a change with the chain state before and after it
func (j *InMemoryJournal) RecordChange(ctx context.Context, operation string, change ChangeType, interceptor string, before, after any) error {
	var beforeState, afterState json.RawMessage
	var err error

	if before != nil {
		beforeState, err = json.Marshal(before)
		if err != nil {
			return fmt.Errorf("failed to marshal before state: %w", err)
		}
	}
	if after != nil {
		afterState, err = json.Marshal(after)
		if err != nil {
			return fmt.Errorf("failed to marshal after state: %w", err)
		}
	}

	return j.Record(ctx, &ChangeEntry{
		Operation:   operation,
		Change:      change,
		Interceptor: interceptor,
		BeforeState: beforeState,
		AfterState:  afterState,
	})
}

// RecordError records a rejected change
func (j *InMemoryJournal) RecordError(ctx context.Context, operation string, change ChangeType, interceptor string, err error) error {
	if err == nil {
		return nil
	}
	return j.Record(ctx, &ChangeEntry{
		Operation:   operation,
		Change:      change,
		Interceptor: interceptor,
		Error:       err.Error(),
	})
}

// GetByOperation retrieves the most recent changes of an operation, oldest
// first. A limit of zero returns all of them.
func (j *InMemoryJournal) GetByOperation(ctx context.Context, operation string, limit int) ([]*ChangeEntry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	entries := j.byOperation[operation]
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return copyEntries(entries), nil
}

// GetByTimeRange retrieves changes within a time range
func (j *InMemoryJournal) GetByTimeRange(ctx context.Context, start, end time.Time) ([]*ChangeEntry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var result []*ChangeEntry
	for _, entry := range j.entries {
		if entry.Timestamp.After(start) && entry.Timestamp.Before(end) {
			entryCopy := *entry
			result = append(result, &entryCopy)
		}
	}
	return result, nil
}

// GetStats returns journal statistics
func (j *InMemoryJournal) GetStats(ctx context.Context) (*JournalStats, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	stats := &JournalStats{
		TotalEntries:       int64(len(j.entries)),
		EntriesByChange:    make(map[ChangeType]int64),
		EntriesByOperation: make(map[string]int64),
	}
	for _, entry := range j.entries {
		stats.EntriesByChange[entry.Change]++
		stats.EntriesByOperation[entry.Operation]++
		if entry.Error != "" {
			stats.ErrorCount++
		}
		if entry.Timestamp.After(stats.LastEntry) {
			stats.LastEntry = entry.Timestamp
		}
	}
	return stats, nil
}

// Clear removes entries older than the specified duration
func (j *InMemoryJournal) Clear(ctx context.Context, olderThan time.Duration) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	kept := make([]*ChangeEntry, 0, len(j.entries))
	for _, entry := range j.entries {
		if entry.Timestamp.After(cutoff) {
			kept = append(kept, entry)
		}
	}
	removed := len(j.entries) - len(kept)
	j.entries = kept
	j.rebuildIndexes()
	return removed, nil
}

// rotate removes oldest entries when max is reached
func (j *InMemoryJournal) rotate() {
	removeCount := int(float64(j.maxEntries) * j.rotatePercent)
	removeCount = max(1, min(removeCount, len(j.entries)))
	j.entries = j.entries[removeCount:]
	j.rebuildIndexes()
}

func (j *InMemoryJournal) rebuildIndexes() {
	j.byOperation = make(map[string][]*ChangeEntry)
	for _, entry := range j.entries {
		if entry.Operation != "" {
			j.byOperation[entry.Operation] = append(j.byOperation[entry.Operation], entry)
		}
	}
}

func copyEntries(entries []*ChangeEntry) []*ChangeEntry {
	result := make([]*ChangeEntry, len(entries))
	for i, entry := range entries {
		entryCopy := *entry
		result[i] = &entryCopy
	}
	return result
}
