package load

import (
	"context"
	"sort"
	"strings"
	"sync"

	xerrors "CarrierDesk/internal/errors"
)

// MemoryRepository keeps loads in an in-process map. Used for tests and
// single-node development setups.
type MemoryRepository struct {
	mu    sync.RWMutex
	loads map[string]*Load
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{loads: make(map[string]*Load)}
}

// Put inserts or replaces a load record.
func (m *MemoryRepository) Put(_ context.Context, l *Load) error {
	if l == nil {
		return xerrors.New(xerrors.CodeInvalidArgument, "load cannot be nil")
	}
	if strings.TrimSpace(l.LoadID) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "load_id cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := l.Clone()
	if clone.LoadBooked == "" {
		clone.LoadBooked = BookedNo
	}
	m.loads[clone.LoadID] = clone
	return nil
}

// Get implements Repository.
func (m *MemoryRepository) Get(_ context.Context, loadID string) (*Load, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.loads[loadID]
	if !ok {
		return nil, ErrLoadNotFound
	}
	return l.Clone(), nil
}

// Search implements Repository. Matching mirrors the data store's ilike
// filters: case-insensitive substring on origin, destination and equipment.
func (m *MemoryRepository) Search(_ context.Context, origin, destination, equipmentType string) ([]*Load, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]*Load, 0)
	for _, l := range m.loads {
		if l.Booked() {
			continue
		}
		if !containsFold(l.Origin, origin) {
			continue
		}
		if !containsFold(l.Destination, destination) {
			continue
		}
		if !containsFold(l.EquipmentType, equipmentType) {
			continue
		}
		results = append(results, l.Clone())
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].LoadID < results[j].LoadID
	})
	return results, nil
}

// SetBooked implements Repository.
func (m *MemoryRepository) SetBooked(_ context.Context, loadID string, booked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.loads[loadID]
	if !ok {
		return ErrLoadNotFound
	}
	if booked {
		l.LoadBooked = BookedYes
	} else {
		l.LoadBooked = BookedNo
	}
	return nil
}

// Close is a no-op for the in-memory repository.
func (m *MemoryRepository) Close() error {
	return nil
}

func containsFold(value, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(filter))
}

// ensure interface compliance at compile time
var _ Repository = (*MemoryRepository)(nil)
