package calllog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps call logs in memory. It backs tests and single-node
// deployments without MySQL.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*CallLog
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*CallLog)}
}

// Create implements Store.
func (m *MemoryStore) Create(_ context.Context, record *CallLog) error {
	if err := record.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[record.CallID]; ok {
		return ErrCallLogConflict
	}
	now := time.Now().Unix()
	clone := record.Clone()
	if clone.CreatedAt == 0 {
		clone.CreatedAt = now
	}
	clone.UpdatedAt = now
	m.records[record.CallID] = clone
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, callID string) (*CallLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[callID]
	if !ok {
		return nil, ErrCallLogNotFound
	}
	return record.Clone(), nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, opts ...ListOption) ([]*CallLog, error) {
	options := buildListOptions(opts)

	m.mu.RLock()
	matched := make([]*CallLog, 0, len(m.records))
	for _, record := range m.records {
		if options.LoadID != "" && record.LoadID != options.LoadID {
			continue
		}
		if options.Sentiment != "" && !strings.EqualFold(record.Sentiment, options.Sentiment) {
			continue
		}
		if options.Outcome != "" && !strings.EqualFold(record.Outcome, options.Outcome) {
			continue
		}
		matched = append(matched, record.Clone())
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CallStartedAt == matched[j].CallStartedAt {
			return matched[i].CallID < matched[j].CallID
		}
		if options.Order == SortByStartedAsc {
			return matched[i].CallStartedAt < matched[j].CallStartedAt
		}
		return matched[i].CallStartedAt > matched[j].CallStartedAt
	})

	if options.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[options.Offset:]
	if len(matched) > options.Limit {
		matched = matched[:options.Limit]
	}
	return matched, nil
}

// Update implements Store.
func (m *MemoryStore) Update(_ context.Context, record *CallLog) error {
	if err := record.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.records[record.CallID]
	if !ok {
		return ErrCallLogNotFound
	}
	clone := record.Clone()
	clone.CreatedAt = existing.CreatedAt
	clone.UpdatedAt = time.Now().Unix()
	m.records[record.CallID] = clone
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, callID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[callID]; !ok {
		return ErrCallLogNotFound
	}
	delete(m.records, callID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
