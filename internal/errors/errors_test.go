package errors

import (
	stdErrors "errors"
	"testing"
)

func TestWrapPreservesCauseAndCode(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := Wrap(CodeStorageFailure, cause, "failed to reach store")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped error to match its cause")
	}
	if got := CodeOf(err); got != CodeStorageFailure {
		t.Fatalf("unexpected code: got %s want %s", got, CodeStorageFailure)
	}
	if !RetryableError(err) {
		t.Fatal("expected storage failures to be retryable")
	}
	if !ShouldAlert(err) {
		t.Fatal("expected storage failures to alert")
	}
}

func TestCodeOfUnknownError(t *testing.T) {
	if got := CodeOf(stdErrors.New("plain")); got != CodeUnknown {
		t.Fatalf("unexpected code: got %s want %s", got, CodeUnknown)
	}
	if got := CodeOf(nil); got != CodeUnknown {
		t.Fatalf("unexpected code for nil: got %s want %s", got, CodeUnknown)
	}
}

func TestOptionsOverrideRegistryDefaults(t *testing.T) {
	err := New(CodeNotFound, "missing", WithRetryable(true), WithSeverity(SeverityCritical), WithAlert(true))
	if !RetryableError(err) {
		t.Fatal("expected option to mark the error retryable")
	}
	if got := SeverityOf(err); got != SeverityCritical {
		t.Fatalf("unexpected severity: got %s want %s", got, SeverityCritical)
	}
	if !ShouldAlert(err) {
		t.Fatal("expected option to mark the error alerting")
	}
}

func TestIsMatchesByCode(t *testing.T) {
	a := New(CodeConflict, "first")
	b := New(CodeConflict, "second")
	if !stdErrors.Is(a, b) {
		t.Fatal("expected errors sharing a code to match")
	}
	c := New(CodeTimeout, "third")
	if stdErrors.Is(a, c) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestMetadata(t *testing.T) {
	err := New(CodeInvalidArgument, "bad field", WithMetadata("field", "carrier_offer"))
	if got := err.Metadata()["field"]; got != "carrier_offer" {
		t.Fatalf("unexpected metadata: got %s want carrier_offer", got)
	}
}
