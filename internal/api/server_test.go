package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"CarrierDesk/internal/auth"
	"CarrierDesk/internal/booking"
	"CarrierDesk/internal/calllog"
	"CarrierDesk/internal/load"
	"CarrierDesk/internal/negotiation"
)

const testAPIKey = "test-key"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	loads := load.NewMemoryRepository()
	rate := 1000.0
	seeds := []*load.Load{
		{LoadID: "LD-100", Origin: "Chicago, IL", Destination: "Dallas, TX", EquipmentType: "Dry Van", LoadboardRate: &rate},
		{LoadID: "LD-101", Origin: "Chicago, IL", Destination: "Atlanta, GA", EquipmentType: "Reefer", LoadboardRate: &rate},
		{LoadID: "LD-102", LoadBooked: load.BookedYes, Origin: "Miami, FL", Destination: "Tampa, FL", EquipmentType: "Flatbed", LoadboardRate: &rate},
	}
	for _, seed := range seeds {
		if err := loads.Put(context.Background(), seed); err != nil {
			t.Fatalf("unexpected error seeding load %s: %v", seed.LoadID, err)
		}
	}

	journal, err := booking.OpenJournal(filepath.Join(t.TempDir(), "bookings.log"))
	if err != nil {
		t.Fatalf("unexpected error opening journal: %v", err)
	}
	t.Cleanup(func() { journal.Close() })

	authSvc, err := auth.NewService(auth.ModeAPIKey, testAPIKey)
	if err != nil {
		t.Fatalf("unexpected error building auth service: %v", err)
	}

	server := NewServer(Config{
		Negotiator: negotiation.NewService(loads),
		Loads:      loads,
		CallLogs:   calllog.NewService(calllog.NewMemoryStore()),
		Journal:    journal,
		Auth:       authSvc,
	})
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doRequest(t *testing.T, method, url, key string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("unexpected error encoding body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("unexpected error building request: %v", err)
	}
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("unexpected error sending request: %v", err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("unexpected error reading body: %v", err)
	}
	return resp, buf.Bytes()
}

func TestHealthIsOpen(t *testing.T) {
	ts := newTestServer(t)
	resp, body := doRequest(t, http.MethodGet, ts.URL+"/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusOK)
	}
	var payload map[string]string
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unexpected error decoding body: %v", err)
	}
	if payload["status"] != "healthy" {
		t.Fatalf("unexpected status field: got %s want healthy", payload["status"])
	}
}

func TestAuthGate(t *testing.T) {
	ts := newTestServer(t)

	t.Run("missing key", func(t *testing.T) {
		resp, _ := doRequest(t, http.MethodGet, ts.URL+"/get_loads", "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusUnauthorized)
		}
	})
	t.Run("wrong key", func(t *testing.T) {
		resp, _ := doRequest(t, http.MethodGet, ts.URL+"/get_loads", "wrong", nil)
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusForbidden)
		}
	})
	t.Run("valid key", func(t *testing.T) {
		resp, _ := doRequest(t, http.MethodGet, ts.URL+"/get_loads", testAPIKey, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusOK)
		}
	})
}

func TestGetLoadsFiltersAndExcludesBooked(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doRequest(t, http.MethodGet, ts.URL+"/get_loads?origin=chicago", testAPIKey, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusOK)
	}
	var payload struct {
		Loads []load.Load `json:"loads"`
		Count int         `json:"count"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unexpected error decoding body: %v", err)
	}
	if payload.Count != 2 {
		t.Fatalf("unexpected count: got %d want %d", payload.Count, 2)
	}

	resp, body = doRequest(t, http.MethodGet, ts.URL+"/get_loads?equipment_type=reefer", testAPIKey, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusOK)
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unexpected error decoding body: %v", err)
	}
	if payload.Count != 1 || payload.Loads[0].LoadID != "LD-101" {
		t.Fatalf("unexpected reefer results: %+v", payload)
	}

	// LD-102 is booked and must never appear.
	resp, body = doRequest(t, http.MethodGet, ts.URL+"/get_loads", testAPIKey, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusOK)
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unexpected error decoding body: %v", err)
	}
	for _, record := range payload.Loads {
		if record.LoadID == "LD-102" {
			t.Fatal("booked load leaked into search results")
		}
	}
}

func TestNegotiateEndToEnd(t *testing.T) {
	ts := newTestServer(t)

	var result negotiation.Result
	resp, body := doRequest(t, http.MethodPost, ts.URL+"/negotiate", testAPIKey,
		map[string]any{"load_id": "LD-100", "carrier_offer": 800})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d (%s)", resp.StatusCode, http.StatusOK, body)
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("unexpected error decoding body: %v", err)
	}
	if result.Outcome != negotiation.OutcomeCountered || result.AgentOffer != 970 {
		t.Fatalf("unexpected round 0 result: %+v", result)
	}

	resp, body = doRequest(t, http.MethodPost, ts.URL+"/negotiate", testAPIKey,
		map[string]any{"load_id": "LD-100", "carrier_offer": 985})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusOK)
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("unexpected error decoding body: %v", err)
	}
	if result.Outcome != negotiation.OutcomeAccepted || result.AgreedPrice != 985 {
		t.Fatalf("unexpected acceptance result: %+v", result)
	}

	t.Run("booked load disappears from search", func(t *testing.T) {
		resp, body := doRequest(t, http.MethodGet, ts.URL+"/get_loads?destination=dallas", testAPIKey, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusOK)
		}
		var payload struct {
			Count int `json:"count"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unexpected error decoding body: %v", err)
		}
		if payload.Count != 0 {
			t.Fatalf("unexpected count after booking: got %d want %d", payload.Count, 0)
		}
	})

	t.Run("unknown load maps to 404", func(t *testing.T) {
		resp, _ := doRequest(t, http.MethodPost, ts.URL+"/negotiate", testAPIKey,
			map[string]any{"load_id": "LD-404", "carrier_offer": 800})
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusNotFound)
		}
	})

	t.Run("invalid offer maps to 400", func(t *testing.T) {
		resp, _ := doRequest(t, http.MethodPost, ts.URL+"/negotiate", testAPIKey,
			map[string]any{"load_id": "LD-101", "carrier_offer": -1})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusBadRequest)
		}
	})
}

func TestCallLogLifecycle(t *testing.T) {
	ts := newTestServer(t)

	var created calllog.CallLog
	resp, body := doRequest(t, http.MethodPost, ts.URL+"/call_logs", testAPIKey,
		map[string]any{"load_id": "LD-100", "call_started_at": 100, "sentiment": "Positive", "outcome": "booked"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status: got %d want %d (%s)", resp.StatusCode, http.StatusCreated, body)
	}
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("unexpected error decoding body: %v", err)
	}
	if created.CallID == "" {
		t.Fatal("expected a generated call_id")
	}

	resp, body = doRequest(t, http.MethodGet, ts.URL+"/call_logs/"+created.CallID, testAPIKey, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusOK)
	}

	resp, body = doRequest(t, http.MethodPut, ts.URL+"/call_logs/"+created.CallID, testAPIKey,
		map[string]any{"load_id": "LD-100", "call_started_at": 100, "sentiment": "neutral", "outcome": "follow up"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d (%s)", resp.StatusCode, http.StatusOK, body)
	}
	var updated calllog.CallLog
	if err := json.Unmarshal(body, &updated); err != nil {
		t.Fatalf("unexpected error decoding body: %v", err)
	}
	if updated.Sentiment != "neutral" {
		t.Fatalf("unexpected sentiment after update: got %s want neutral", updated.Sentiment)
	}

	resp, body = doRequest(t, http.MethodGet, ts.URL+"/metrics/summary", testAPIKey, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusOK)
	}
	var summary calllog.Summary
	if err := json.Unmarshal(body, &summary); err != nil {
		t.Fatalf("unexpected error decoding body: %v", err)
	}
	if summary.TotalCalls != 1 {
		t.Fatalf("unexpected total calls: got %d want %d", summary.TotalCalls, 1)
	}
	if summary.SentimentDistribution["neutral"] != 1 {
		t.Fatalf("unexpected sentiment distribution: %+v", summary.SentimentDistribution)
	}

	resp, _ = doRequest(t, http.MethodDelete, ts.URL+"/call_logs/"+created.CallID, testAPIKey, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusNoContent)
	}
	resp, _ = doRequest(t, http.MethodGet, ts.URL+"/call_logs/"+created.CallID, testAPIKey, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status after delete: got %d want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestBookingsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doRequest(t, http.MethodGet, ts.URL+"/bookings", testAPIKey, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusOK)
	}
	var payload struct {
		Bookings []booking.Event `json:"bookings"`
		Count    int             `json:"count"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unexpected error decoding body: %v", err)
	}
	if payload.Count != 0 {
		t.Fatalf("unexpected booking count: got %d want %d", payload.Count, 0)
	}
}
