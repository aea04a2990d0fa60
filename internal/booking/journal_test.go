package booking

import (
	"fmt"
	"path/filepath"
	"testing"
)

func TestJournalAppendAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookings.log")
	journal, err := OpenJournal(path)
	if err != nil {
		t.Fatalf("unexpected error opening journal: %v", err)
	}
	defer journal.Close()

	for i := 0; i < 3; i++ {
		event := Event{
			EventID:     fmt.Sprintf("evt-%d", i),
			LoadID:      fmt.Sprintf("LD-%d", i),
			AgreedPrice: float64(1000 + i),
			BookedAt:    int64(1700000000 + i),
		}
		if err := journal.Append(event); err != nil {
			t.Fatalf("unexpected error appending event %d: %v", i, err)
		}
	}

	latest := journal.ListLatest(2)
	if len(latest) != 2 {
		t.Fatalf("unexpected entry count: got %d want %d", len(latest), 2)
	}
	if latest[0].EventID != "evt-2" {
		t.Fatalf("unexpected newest entry: got %s want evt-2", latest[0].EventID)
	}
	if latest[1].EventID != "evt-1" {
		t.Fatalf("unexpected second entry: got %s want evt-1", latest[1].EventID)
	}
}

func TestJournalReopenLoadsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookings.log")
	journal, err := OpenJournal(path)
	if err != nil {
		t.Fatalf("unexpected error opening journal: %v", err)
	}
	if err := journal.Append(Event{EventID: "evt-1", LoadID: "LD-1", AgreedPrice: 950}); err != nil {
		t.Fatalf("unexpected error appending: %v", err)
	}
	if err := journal.Close(); err != nil {
		t.Fatalf("unexpected error closing: %v", err)
	}

	reopened, err := OpenJournal(path)
	if err != nil {
		t.Fatalf("unexpected error reopening journal: %v", err)
	}
	defer reopened.Close()

	latest := reopened.ListLatest(0)
	if len(latest) != 1 {
		t.Fatalf("unexpected entry count after reopen: got %d want %d", len(latest), 1)
	}
	if latest[0].LoadID != "LD-1" {
		t.Fatalf("unexpected load id: got %s want LD-1", latest[0].LoadID)
	}
	if latest[0].AgreedPrice != 950 {
		t.Fatalf("unexpected agreed price: got %v want %v", latest[0].AgreedPrice, 950.0)
	}
}

func TestJournalAppendAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookings.log")
	journal, err := OpenJournal(path)
	if err != nil {
		t.Fatalf("unexpected error opening journal: %v", err)
	}
	if err := journal.Close(); err != nil {
		t.Fatalf("unexpected error closing: %v", err)
	}
	if err := journal.Append(Event{EventID: "evt-1"}); err == nil {
		t.Fatal("expected error appending to closed journal")
	}
}
