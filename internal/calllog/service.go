package calllog

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Summary aggregates call logs for the dashboard.
type Summary struct {
	TotalCalls            int            `json:"total_calls"`
	SentimentDistribution map[string]int `json:"sentiment_distribution"`
	OutcomeDistribution   map[string]int `json:"outcome_distribution"`
}

// unspecifiedBucket absorbs records with a blank sentiment or outcome so the
// distributions always sum to the total.
const unspecifiedBucket = "unspecified"

// Service fronts the store: it assigns identifiers on creation and computes
// the dashboard summary.
type Service struct {
	store Store
}

// NewService wraps the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create stores the record, assigning a call_id when the caller left it
// blank.
func (s *Service) Create(ctx context.Context, record *CallLog) (*CallLog, error) {
	clone := record.Clone()
	if clone == nil {
		clone = &CallLog{}
	}
	if strings.TrimSpace(clone.CallID) == "" {
		clone.CallID = uuid.NewString()
	}
	if err := s.store.Create(ctx, clone); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, clone.CallID)
}

// Get returns one record.
func (s *Service) Get(ctx context.Context, callID string) (*CallLog, error) {
	return s.store.Get(ctx, callID)
}

// List returns records matching the options.
func (s *Service) List(ctx context.Context, opts ...ListOption) ([]*CallLog, error) {
	return s.store.List(ctx, opts...)
}

// Update replaces a record.
func (s *Service) Update(ctx context.Context, record *CallLog) (*CallLog, error) {
	if err := s.store.Update(ctx, record); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, record.CallID)
}

// Delete removes a record.
func (s *Service) Delete(ctx context.Context, callID string) error {
	return s.store.Delete(ctx, callID)
}

// Summarize aggregates every stored call. Sentiments and outcomes are
// normalized to lowercase so "Success" and "success" count together.
func (s *Service) Summarize(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		SentimentDistribution: make(map[string]int),
		OutcomeDistribution:   make(map[string]int),
	}
	const page = 100
	for offset := 0; ; offset += page {
		records, err := s.store.List(ctx, WithLimit(page), WithOffset(offset))
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			break
		}
		for _, record := range records {
			summary.TotalCalls++
			summary.SentimentDistribution[bucket(record.Sentiment)]++
			summary.OutcomeDistribution[bucket(record.Outcome)]++
		}
		if len(records) < page {
			break
		}
	}
	return summary, nil
}

func bucket(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return unspecifiedBucket
	}
	return value
}
