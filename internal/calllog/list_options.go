package calllog

import "strings"

// SortOrder defines how results are ordered when listing call logs.
type SortOrder int

const (
	// SortByStartedDesc orders call logs by CallStartedAt descending.
	SortByStartedDesc SortOrder = iota
	// SortByStartedAsc orders call logs by CallStartedAt ascending.
	SortByStartedAsc
)

// ListOptions controls how call logs are selected when querying the store.
type ListOptions struct {
	Limit     int
	Offset    int
	LoadID    string
	Sentiment string
	Outcome   string
	Order     SortOrder
}

func (opts *ListOptions) applyDefaults() {
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	if opts.Order != SortByStartedAsc {
		opts.Order = SortByStartedDesc
	}
	opts.LoadID = strings.TrimSpace(opts.LoadID)
	opts.Sentiment = strings.TrimSpace(opts.Sentiment)
	opts.Outcome = strings.TrimSpace(opts.Outcome)
}

// ListOption mutates ListOptions.
type ListOption func(*ListOptions)

// WithLimit limits the number of call logs returned.
func WithLimit(limit int) ListOption {
	return func(opts *ListOptions) {
		opts.Limit = limit
	}
}

// WithOffset skips the first n matching call logs.
func WithOffset(offset int) ListOption {
	return func(opts *ListOptions) {
		opts.Offset = offset
	}
}

// WithLoadID filters call logs for one load.
func WithLoadID(loadID string) ListOption {
	return func(opts *ListOptions) {
		opts.LoadID = loadID
	}
}

// WithSentiment filters by sentiment, case-insensitively.
func WithSentiment(sentiment string) ListOption {
	return func(opts *ListOptions) {
		opts.Sentiment = sentiment
	}
}

// WithOutcome filters by outcome, case-insensitively.
func WithOutcome(outcome string) ListOption {
	return func(opts *ListOptions) {
		opts.Outcome = outcome
	}
}

// WithSortOrder changes the returned order.
func WithSortOrder(order SortOrder) ListOption {
	return func(opts *ListOptions) {
		opts.Order = order
	}
}

func buildListOptions(opts []ListOption) ListOptions {
	options := ListOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	options.applyDefaults()
	return options
}
