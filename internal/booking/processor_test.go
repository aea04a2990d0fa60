package booking

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestProcessorJournalsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookings.log")
	journal, err := OpenJournal(path)
	if err != nil {
		t.Fatalf("unexpected error opening journal: %v", err)
	}
	defer journal.Close()

	queue := NewMemoryQueue(8)
	processor := NewProcessor(queue, journal, WithWorkerCount(2))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = processor.Start(ctx)
	}()

	events := []Event{
		{EventID: "evt-1", LoadID: "LD-100", AgreedPrice: 970},
		{EventID: "evt-2", LoadID: "LD-101", AgreedPrice: 1450},
	}
	for _, event := range events {
		if err := queue.Publish(context.Background(), event); err != nil {
			t.Fatalf("unexpected error publishing: %v", err)
		}
	}

	deadline := time.After(2 * time.Second)
	for {
		if len(journal.ListLatest(0)) == len(events) {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for journal entries: got %d want %d",
				len(journal.ListLatest(0)), len(events))
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done

	latest := journal.ListLatest(0)
	seen := make(map[string]bool, len(latest))
	for _, entry := range latest {
		seen[entry.EventID] = true
	}
	for _, event := range events {
		if !seen[event.EventID] {
			t.Fatalf("journal missing event %s", event.EventID)
		}
	}
}

func TestMemoryQueuePublishAfterClose(t *testing.T) {
	queue := NewMemoryQueue(1)
	if err := queue.Close(); err != nil {
		t.Fatalf("unexpected error closing queue: %v", err)
	}
	if err := queue.Publish(context.Background(), Event{EventID: "evt-1"}); err == nil {
		t.Fatal("expected error publishing to closed queue")
	}
}

func TestProcessorRequiresConsumer(t *testing.T) {
	processor := NewProcessor(nil, nil)
	if err := processor.Start(context.Background()); err == nil {
		t.Fatal("expected error starting processor without consumer")
	}
}
