// Package load defines the freight load model and the repository contract the
// negotiation core and the API depend on.
package load

import (
	"strings"
	"time"

	xerrors "CarrierDesk/internal/errors"
)

// Booking flag values stored with each load. The data store keeps the flag as
// a Y/N character column.
const (
	BookedYes = "Y"
	BookedNo  = "N"
)

// Load is a freight shipment record. LoadboardRate is the broker's original
// asking price; it may be absent for loads posted without a rate.
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

// Booked reports whether the load has already been booked.
func (l *Load) Booked() bool {
	return l != nil && strings.EqualFold(l.LoadBooked, BookedYes)
}

// Validate checks that a record read from the data store can be interpreted
// as a load. Records failing validation surface as LOAD_VALIDATION_FAILED.
func (l *Load) Validate() error {
	if l == nil {
		return xerrors.New(CodeLoadValidation, "load record is nil")
	}
	if strings.TrimSpace(l.LoadID) == "" {
		return xerrors.New(CodeLoadValidation, "load_id is empty")
	}
	if strings.TrimSpace(l.Origin) == "" {
		return xerrors.New(CodeLoadValidation, "origin is empty", xerrors.WithMetadata("load_id", l.LoadID))
	}
	if strings.TrimSpace(l.Destination) == "" {
		return xerrors.New(CodeLoadValidation, "destination is empty", xerrors.WithMetadata("load_id", l.LoadID))
	}
	if strings.TrimSpace(l.EquipmentType) == "" {
		return xerrors.New(CodeLoadValidation, "equipment_type is empty", xerrors.WithMetadata("load_id", l.LoadID))
	}
	if l.LoadboardRate != nil && *l.LoadboardRate < 0 {
		return xerrors.New(CodeLoadValidation, "loadboard_rate is negative", xerrors.WithMetadata("load_id", l.LoadID))
	}
	return nil
}

// Clone returns a deep copy so repository callers cannot mutate shared state.
func (l *Load) Clone() *Load {
	if l == nil {
		return nil
	}
	clone := *l
	clone.PickupDatetime = cloneTime(l.PickupDatetime)
	clone.DeliveryDatetime = cloneTime(l.DeliveryDatetime)
	clone.LoadboardRate = cloneFloat(l.LoadboardRate)
	clone.Weight = cloneInt(l.Weight)
	clone.NumOfPieces = cloneInt(l.NumOfPieces)
	clone.Miles = cloneInt(l.Miles)
	return &clone
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

var (
	// ErrLoadNotFound indicates no record exists for the requested load_id.
	ErrLoadNotFound = xerrors.New(CodeLoadNotFound, "load not found")
)

const (
	CodeLoadNotFound       xerrors.Code = "LOAD_NOT_FOUND"
	CodeLoadValidation     xerrors.Code = "LOAD_VALIDATION_FAILED"
	CodeLoadStorageFailure xerrors.Code = "LOAD_STORAGE_FAILURE"
)

func init() {
	xerrors.Register(CodeLoadNotFound, xerrors.Attributes{
		Message:   "load not found",
		Severity:  xerrors.SeverityInfo,
		Retryable: false,
		Alert:     false,
	})
	xerrors.Register(CodeLoadValidation, xerrors.Attributes{
		Message:   "invalid load record in data store",
		Severity:  xerrors.SeverityWarning,
		Retryable: false,
		Alert:     true,
	})
	xerrors.Register(CodeLoadStorageFailure, xerrors.Attributes{
		Message:   "load store unavailable",
		Severity:  xerrors.SeverityCritical,
		Retryable: true,
		Alert:     true,
	})
}
