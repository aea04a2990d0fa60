package calllog

import (
	"context"
	stdErrors "errors"
	"testing"
)

func seedStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	records := []*CallLog{
		{CallID: "call-1", LoadID: "LD-100", CallStartedAt: 100, Sentiment: "Positive", Outcome: "booked"},
		{CallID: "call-2", LoadID: "LD-100", CallStartedAt: 200, Sentiment: "negative", Outcome: "no deal"},
		{CallID: "call-3", LoadID: "LD-101", CallStartedAt: 300, Sentiment: "positive", Outcome: "booked"},
	}
	for _, record := range records {
		if err := store.Create(context.Background(), record); err != nil {
			t.Fatalf("unexpected error seeding %s: %v", record.CallID, err)
		}
	}
	return store
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	store := seedStore(t)

	record, err := store.Get(context.Background(), "call-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.LoadID != "LD-100" {
		t.Fatalf("unexpected load id: got %s want LD-100", record.LoadID)
	}
	if record.CreatedAt == 0 || record.UpdatedAt == 0 {
		t.Fatal("expected timestamps to be stamped on create")
	}

	t.Run("duplicate id conflicts", func(t *testing.T) {
		err := store.Create(context.Background(), &CallLog{CallID: "call-1", CallStartedAt: 1})
		if !stdErrors.Is(err, ErrCallLogConflict) {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing id rejected", func(t *testing.T) {
		if err := store.Create(context.Background(), &CallLog{CallStartedAt: 1}); err == nil {
			t.Fatal("expected validation error")
		}
	})
}

func TestMemoryStoreList(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	t.Run("default order is newest first", func(t *testing.T) {
		records, err := store.List(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("unexpected count: got %d want %d", len(records), 3)
		}
		if records[0].CallID != "call-3" {
			t.Fatalf("unexpected first record: got %s want call-3", records[0].CallID)
		}
	})

	t.Run("filter by load", func(t *testing.T) {
		records, err := store.List(ctx, WithLoadID("LD-100"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("unexpected count: got %d want %d", len(records), 2)
		}
	})

	t.Run("sentiment filter is case-insensitive", func(t *testing.T) {
		records, err := store.List(ctx, WithSentiment("POSITIVE"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("unexpected count: got %d want %d", len(records), 2)
		}
	})

	t.Run("limit and offset", func(t *testing.T) {
		records, err := store.List(ctx, WithLimit(1), WithOffset(1), WithSortOrder(SortByStartedAsc))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("unexpected count: got %d want %d", len(records), 1)
		}
		if records[0].CallID != "call-2" {
			t.Fatalf("unexpected record: got %s want call-2", records[0].CallID)
		}
	})
}

func TestMemoryStoreUpdateAndDelete(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	updated := &CallLog{CallID: "call-1", LoadID: "LD-100", CallStartedAt: 100, Sentiment: "neutral", Outcome: "follow up"}
	if err := store.Update(ctx, updated); err != nil {
		t.Fatalf("unexpected error updating: %v", err)
	}
	record, err := store.Get(ctx, "call-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Sentiment != "neutral" {
		t.Fatalf("unexpected sentiment: got %s want neutral", record.Sentiment)
	}

	if err := store.Update(ctx, &CallLog{CallID: "call-404", CallStartedAt: 1}); !stdErrors.Is(err, ErrCallLogNotFound) {
		t.Fatalf("unexpected error updating missing record: %v", err)
	}

	if err := store.Delete(ctx, "call-1"); err != nil {
		t.Fatalf("unexpected error deleting: %v", err)
	}
	if _, err := store.Get(ctx, "call-1"); !stdErrors.Is(err, ErrCallLogNotFound) {
		t.Fatalf("unexpected error after delete: %v", err)
	}
	if err := store.Delete(ctx, "call-1"); !stdErrors.Is(err, ErrCallLogNotFound) {
		t.Fatalf("unexpected error deleting twice: %v", err)
	}
}

func TestServiceAssignsIdentifiers(t *testing.T) {
	service := NewService(NewMemoryStore())
	record, err := service.Create(context.Background(), &CallLog{LoadID: "LD-100", CallStartedAt: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.CallID == "" {
		t.Fatal("expected a generated call_id")
	}
}

func TestServiceSummarize(t *testing.T) {
	service := NewService(NewMemoryStore())
	ctx := context.Background()

	seeds := []*CallLog{
		{CallStartedAt: 1, Sentiment: "Positive", Outcome: "Booked"},
		{CallStartedAt: 2, Sentiment: "positive", Outcome: "booked"},
		{CallStartedAt: 3, Sentiment: "negative", Outcome: ""},
		{CallStartedAt: 4, Sentiment: "", Outcome: "no deal"},
	}
	for i, seed := range seeds {
		if _, err := service.Create(ctx, seed); err != nil {
			t.Fatalf("unexpected error seeding %d: %v", i, err)
		}
	}

	summary, err := service.Summarize(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TotalCalls != 4 {
		t.Fatalf("unexpected total: got %d want %d", summary.TotalCalls, 4)
	}
	if got := summary.SentimentDistribution["positive"]; got != 2 {
		t.Fatalf("unexpected positive count: got %d want %d", got, 2)
	}
	if got := summary.SentimentDistribution["unspecified"]; got != 1 {
		t.Fatalf("unexpected unspecified sentiment count: got %d want %d", got, 1)
	}
	if got := summary.OutcomeDistribution["booked"]; got != 2 {
		t.Fatalf("unexpected booked count: got %d want %d", got, 2)
	}
	if got := summary.OutcomeDistribution["unspecified"]; got != 1 {
		t.Fatalf("unexpected unspecified outcome count: got %d want %d", got, 1)
	}

	t.Run("pages through large stores", func(t *testing.T) {
		for i := 0; i < 250; i++ {
			if _, err := service.Create(ctx, &CallLog{CallStartedAt: int64(10 + i), Sentiment: "neutral"}); err != nil {
				t.Fatalf("unexpected error seeding bulk record %d: %v", i, err)
			}
		}
		summary, err := service.Summarize(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.TotalCalls != 254 {
			t.Fatalf("unexpected total: got %d want %d", summary.TotalCalls, 254)
		}
	})
}
