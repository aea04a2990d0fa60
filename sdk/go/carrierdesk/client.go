// Package carrierdesk is a typed HTTP client for the CarrierDesk REST API.
package carrierdesk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"
)

// DefaultHTTPTimeout is used by clients created without a custom http.Client.
const DefaultHTTPTimeout = 15 * time.Second

// Client wraps the HTTP interactions with the CarrierDesk REST API.
type Client struct {
	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client
}

// Load mirrors the API's load record.
type Load struct {
	LoadID           string     `json:"load_id"`
	LoadBooked       string     `json:"load_booked"`
	Origin           string     `json:"origin"`
	Destination      string     `json:"destination"`
	PickupDatetime   *time.Time `json:"pickup_datetime,omitempty"`
	DeliveryDatetime *time.Time `json:"delivery_datetime,omitempty"`
	EquipmentType    string     `json:"equipment_type"`
	LoadboardRate    *float64   `json:"loadboard_rate,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	Weight           *int       `json:"weight,omitempty"`
	CommodityType    string     `json:"commodity_type,omitempty"`
	NumOfPieces      *int       `json:"num_of_pieces,omitempty"`
	Miles            *int       `json:"miles,omitempty"`
	Dimensions       string     `json:"dimensions,omitempty"`
}

// LoadFilters narrows a load search. Empty fields match everything.
type LoadFilters struct {
	Origin        string
	Destination   string
	EquipmentType string
}

// NegotiationResult mirrors the API's negotiation answer. AgentOffer and
// AgreedPrice carry -1 when the outcome leaves them unset.
type NegotiationResult struct {
	LoadID            string  `json:"load_id"`
	Outcome           string  `json:"outcome"`
	CarrierOffer      float64 `json:"carrier_offer"`
	AgentOffer        float64 `json:"agent_offer"`
	AgreedPrice       float64 `json:"agreed_price"`
	Message           string  `json:"message"`
	RemainingAttempts int     `json:"remaining_attempts"`
}

// CallLog mirrors the API's call log record.
type CallLog struct {
	CallID        string `json:"call_id,omitempty"`
	LoadID        string `json:"load_id,omitempty"`
	CallStartedAt int64  `json:"call_started_at"`
	Sentiment     string `json:"sentiment,omitempty"`
	Outcome       string `json:"outcome,omitempty"`
	Notes         string `json:"notes,omitempty"`
	CreatedAt     int64  `json:"created_at,omitempty"`
	UpdatedAt     int64  `json:"updated_at,omitempty"`
}

// CallSummary mirrors the /metrics/summary payload.
type CallSummary struct {
	TotalCalls            int            `json:"total_calls"`
	SentimentDistribution map[string]int `json:"sentiment_distribution"`
	OutcomeDistribution   map[string]int `json:"outcome_distribution"`
}

// Booking mirrors one journaled booking confirmation.
type Booking struct {
	EventID     string  `json:"event_id"`
	LoadID      string  `json:"load_id"`
	AgreedPrice float64 `json:"agreed_price"`
	Notes       string  `json:"notes,omitempty"`
	BookedAt    int64   `json:"booked_at"`
}

// APIError represents server side validation or internal errors.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Code != "" {
		return fmt.Sprintf("carrierdesk api error (%d): %s - %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("carrierdesk api error (%d): %s", e.StatusCode, e.Message)
}

// NewClient instantiates a client. When httpClient is nil, a default client
// with a sensible timeout is used.
func NewClient(rawURL, apiKey string, httpClient *http.Client) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Client{baseURL: parsed, apiKey: apiKey, httpClient: httpClient}, nil
}

// Health checks the service's liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	var payload struct {
		Status string `json:"status"`
	}
	return c.get(ctx, "/health", nil, &payload)
}

// GetLoads returns unbooked loads matching the filters.
func (c *Client) GetLoads(ctx context.Context, filters LoadFilters) ([]Load, error) {
	query := url.Values{}
	if filters.Origin != "" {
		query.Set("origin", filters.Origin)
	}
	if filters.Destination != "" {
		query.Set("destination", filters.Destination)
	}
	if filters.EquipmentType != "" {
		query.Set("equipment_type", filters.EquipmentType)
	}
	var payload struct {
		Loads []Load `json:"loads"`
	}
	if err := c.get(ctx, "/get_loads", query, &payload); err != nil {
		return nil, err
	}
	return payload.Loads, nil
}

// Negotiate runs one negotiation round for a load.
func (c *Client) Negotiate(ctx context.Context, loadID string, carrierOffer float64, notes string) (NegotiationResult, error) {
	request := map[string]any{
		"load_id":       loadID,
		"carrier_offer": carrierOffer,
	}
	if notes != "" {
		request["notes"] = notes
	}
	var result NegotiationResult
	if err := c.post(ctx, "/negotiate", request, &result); err != nil {
		return NegotiationResult{}, err
	}
	return result, nil
}

// CreateCallLog stores a new call record and returns it with its identifier.
func (c *Client) CreateCallLog(ctx context.Context, record CallLog) (CallLog, error) {
	var created CallLog
	if err := c.post(ctx, "/call_logs", record, &created); err != nil {
		return CallLog{}, err
	}
	return created, nil
}

// GetCallLog fetches one call record.
func (c *Client) GetCallLog(ctx context.Context, callID string) (CallLog, error) {
	var record CallLog
	if err := c.get(ctx, "/call_logs/"+url.PathEscape(callID), nil, &record); err != nil {
		return CallLog{}, err
	}
	return record, nil
}

// ListCallLogs returns call records, optionally filtered by load.
func (c *Client) ListCallLogs(ctx context.Context, loadID string, limit, offset int) ([]CallLog, error) {
	query := url.Values{}
	if loadID != "" {
		query.Set("load_id", loadID)
	}
	if limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", limit))
	}
	if offset > 0 {
		query.Set("offset", fmt.Sprintf("%d", offset))
	}
	var payload struct {
		CallLogs []CallLog `json:"call_logs"`
	}
	if err := c.get(ctx, "/call_logs", query, &payload); err != nil {
		return nil, err
	}
	return payload.CallLogs, nil
}

// UpdateCallLog replaces a call record.
func (c *Client) UpdateCallLog(ctx context.Context, record CallLog) (CallLog, error) {
	if record.CallID == "" {
		return CallLog{}, fmt.Errorf("call_id is required")
	}
	var updated CallLog
	if err := c.put(ctx, "/call_logs/"+url.PathEscape(record.CallID), record, &updated); err != nil {
		return CallLog{}, err
	}
	return updated, nil
}

// DeleteCallLog removes a call record.
func (c *Client) DeleteCallLog(ctx context.Context, callID string) error {
	return c.delete(ctx, "/call_logs/"+url.PathEscape(callID))
}

// MetricsSummary fetches the aggregated call statistics.
func (c *Client) MetricsSummary(ctx context.Context) (CallSummary, error) {
	var summary CallSummary
	if err := c.get(ctx, "/metrics/summary", nil, &summary); err != nil {
		return CallSummary{}, err
	}
	return summary, nil
}

// Bookings returns the most recent booking confirmations.
func (c *Client) Bookings(ctx context.Context, limit int) ([]Booking, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", limit))
	}
	var payload struct {
		Bookings []Booking `json:"bookings"`
	}
	if err := c.get(ctx, "/bookings", query, &payload); err != nil {
		return nil, err
	}
	return payload.Bookings, nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, query, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, endpoint string, payload, out any) error {
	return c.send(ctx, http.MethodPost, endpoint, payload, out)
}

func (c *Client) put(ctx context.Context, endpoint string, payload, out any) error {
	return c.send(ctx, http.MethodPut, endpoint, payload, out)
}

func (c *Client) delete(ctx context.Context, endpoint string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, endpoint, nil, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) send(ctx context.Context, method, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := c.newRequest(ctx, method, endpoint, nil, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, query url.Values, body io.Reader) (*http.Request, error) {
	rel := &url.URL{Path: path.Join(c.baseURL.Path, endpoint)}
	u := c.baseURL.ResolveReference(rel)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := APIError{StatusCode: resp.StatusCode}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read error response: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &struct {
				Error *APIError `json:"error"`
			}{Error: &apiErr}); err != nil {
				// server may have returned a flat payload
				_ = json.Unmarshal(data, &apiErr)
			}
		}
		if apiErr.Message == "" {
			apiErr.Message = string(bytes.TrimSpace(data))
		}
		return &apiErr
	}

	if out == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
