// Package negotiation implements the bounded counteroffer protocol between
// the pricing agent and an external carrier. Each load gets at most MaxRounds
// decision rounds; state lives in process memory and is serialized per load,
// so two calls for the same load can never interleave their round counting.
package negotiation

import (
	xerrors "CarrierDesk/internal/errors"
)

// MaxRounds bounds the number of negotiation rounds per load.
const MaxRounds = 3

// NoOffer is the sentinel for agent_offer and agreed_price fields that carry
// no value in a given outcome.
const NoOffer float64 = -1

// Outcome classifies the result of one negotiation call.
type Outcome string

const (
	OutcomeAccepted     Outcome = "accepted"
	OutcomeCountered    Outcome = "countered"
	OutcomeLimitReached Outcome = "limit_reached"
)

// Result is the caller-facing answer to one negotiation round.
type Result struct {
	LoadID            string  `json:"load_id"`
	Outcome           Outcome `json:"outcome"`
	CarrierOffer      float64 `json:"carrier_offer"`
	AgentOffer        float64 `json:"agent_offer"`
	AgreedPrice       float64 `json:"agreed_price"`
	Message           string  `json:"message"`
	RemainingAttempts int     `json:"remaining_attempts"`
}

const (
	CodeNegotiationValidation xerrors.Code = "NEGOTIATION_VALIDATION_FAILED"
	CodeNegotiationBadRecord  xerrors.Code = "NEGOTIATION_BAD_LOAD_RECORD"
	CodeNegotiationDependency xerrors.Code = "NEGOTIATION_DEPENDENCY_FAILED"
)

func init() {
	xerrors.Register(CodeNegotiationValidation, xerrors.Attributes{
		Message:   "negotiation request failed validation",
		Severity:  xerrors.SeverityWarning,
		Retryable: false,
		Alert:     false,
	})
	xerrors.Register(CodeNegotiationBadRecord, xerrors.Attributes{
		Message:   "load record cannot be negotiated",
		Severity:  xerrors.SeverityCritical,
		Retryable: false,
		Alert:     true,
	})
	xerrors.Register(CodeNegotiationDependency, xerrors.Attributes{
		Message:   "negotiation dependency failed",
		Severity:  xerrors.SeverityCritical,
		Retryable: true,
		Alert:     true,
	})
}
