package carrierdesk

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientSendsAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "test-key", nil)
	if err != nil {
		t.Fatalf("unexpected error building client: %v", err)
	}
	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClientGetLoads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/get_loads" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("origin"); got != "chicago" {
			t.Errorf("unexpected origin filter: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"loads":[{"load_id":"LD-100","origin":"Chicago, IL"}],"count":1}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "test-key", nil)
	if err != nil {
		t.Fatalf("unexpected error building client: %v", err)
	}
	loads, err := client.GetLoads(context.Background(), LoadFilters{Origin: "chicago"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loads) != 1 || loads[0].LoadID != "LD-100" {
		t.Fatalf("unexpected loads: %+v", loads)
	}
}

func TestClientNegotiate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/negotiate" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("unexpected body error: %v", err)
		}
		if body["load_id"] != "LD-100" {
			t.Errorf("unexpected load_id: %v", body["load_id"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"load_id":"LD-100","outcome":"countered","carrier_offer":800,"agent_offer":970,"agreed_price":-1,"remaining_attempts":2}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "test-key", nil)
	if err != nil {
		t.Fatalf("unexpected error building client: %v", err)
	}
	result, err := client.Negotiate(context.Background(), "LD-100", 800, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != "countered" || result.AgentOffer != 970 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestClientDecodesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"LOAD_NOT_FOUND","message":"load not found"}}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "test-key", nil)
	if err != nil {
		t.Fatalf("unexpected error building client: %v", err)
	}
	_, err = client.Negotiate(context.Background(), "LD-404", 800, "")
	if err == nil {
		t.Fatal("expected an API error")
	}
	var apiErr *APIError
	if !stdErrors.As(err, &apiErr) {
		t.Fatalf("unexpected error type: %T", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Code != "LOAD_NOT_FOUND" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}
