// Package booking distributes accepted-deal events to downstream consumers.
// The negotiation service publishes an event whenever a carrier's offer is
// accepted; a processor consumes the queue and appends each confirmation to a
// journal the ops dashboard reads. Queue delivery is best-effort: a publish
// failure is alerted, never surfaced to the carrier.
package booking

import (
	"encoding/json"
	"fmt"

	xerrors "CarrierDesk/internal/errors"
)

// Event describes one accepted deal.
type Event struct {
	EventID     string  `json:"event_id"`
	LoadID      string  `json:"load_id"`
	AgreedPrice float64 `json:"agreed_price"`
	Notes       string  `json:"notes,omitempty"`
	BookedAt    int64   `json:"booked_at"`
}

// encode serialises an event for queue transport.
func (e Event) encode() ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode booking event: %w", err)
	}
	return body, nil
}

func decodeEvent(body []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return Event{}, fmt.Errorf("decode booking event: %w", err)
	}
	return event, nil
}

const (
	CodeBookingPublish xerrors.Code = "BOOKING_PUBLISH_FAILED"
	CodeBookingJournal xerrors.Code = "BOOKING_JOURNAL_FAILED"
)

func init() {
	xerrors.Register(CodeBookingPublish, xerrors.Attributes{
		Message:   "failed to publish booking event",
		Severity:  xerrors.SeverityWarning,
		Retryable: true,
		Alert:     true,
	})
	xerrors.Register(CodeBookingJournal, xerrors.Attributes{
		Message:   "failed to journal booking event",
		Severity:  xerrors.SeverityCritical,
		Retryable: true,
		Alert:     true,
	})
}
