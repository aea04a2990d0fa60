// Package calllog stores the outcome records of carrier sales calls and
// aggregates them for the ops dashboard.
package calllog

import (
	"strings"

	xerrors "CarrierDesk/internal/errors"
)

// CallLog records one carrier call and how it ended.
type CallLog struct {
	CallID        string `json:"call_id"`
	LoadID        string `json:"load_id,omitempty"`
	CallStartedAt int64  `json:"call_started_at"`
	Sentiment     string `json:"sentiment,omitempty"`
	Outcome       string `json:"outcome,omitempty"`
	Notes         string `json:"notes,omitempty"`
	CreatedAt     int64  `json:"created_at"`
	UpdatedAt     int64  `json:"updated_at"`
}

// Validate rejects records that cannot be stored.
func (c *CallLog) Validate() error {
	if c == nil {
		return xerrors.New(CodeCallLogValidation, "call log cannot be nil")
	}
	if strings.TrimSpace(c.CallID) == "" {
		return xerrors.New(CodeCallLogValidation, "call_id cannot be empty")
	}
	if c.CallStartedAt < 0 {
		return xerrors.New(CodeCallLogValidation, "call_started_at cannot be negative")
	}
	return nil
}

// Clone returns an independent copy.
func (c *CallLog) Clone() *CallLog {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// Sentinel errors for store lookups.
var (
	ErrCallLogNotFound = xerrors.New(CodeCallLogNotFound, "call log does not exist")
	ErrCallLogConflict = xerrors.New(CodeCallLogConflict, "call log already exists")
)

const (
	CodeCallLogNotFound   xerrors.Code = "CALL_LOG_NOT_FOUND"
	CodeCallLogConflict   xerrors.Code = "CALL_LOG_CONFLICT"
	CodeCallLogValidation xerrors.Code = "CALL_LOG_VALIDATION_FAILED"
	CodeCallLogStorage    xerrors.Code = "CALL_LOG_STORAGE_FAILURE"
)

func init() {
	xerrors.Register(CodeCallLogNotFound, xerrors.Attributes{
		Message:   "call log does not exist",
		Severity:  xerrors.SeverityWarning,
		Retryable: false,
		Alert:     false,
	})
	xerrors.Register(CodeCallLogConflict, xerrors.Attributes{
		Message:   "call log already exists",
		Severity:  xerrors.SeverityWarning,
		Retryable: false,
		Alert:     false,
	})
	xerrors.Register(CodeCallLogValidation, xerrors.Attributes{
		Message:   "call log failed validation",
		Severity:  xerrors.SeverityWarning,
		Retryable: false,
		Alert:     false,
	})
	xerrors.Register(CodeCallLogStorage, xerrors.Attributes{
		Message:   "call log storage failure",
		Severity:  xerrors.SeverityCritical,
		Retryable: true,
		Alert:     true,
	})
}
