package auth

import (
	stdErrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthenticate(t *testing.T) {
	service, err := NewService(ModeAPIKey, "secret-key")
	if err != nil {
		t.Fatalf("unexpected error building service: %v", err)
	}

	cases := []struct {
		name   string
		header string
		want   error
	}{
		{name: "valid key", header: "Bearer secret-key", want: nil},
		{name: "missing header", header: "", want: ErrMissingToken},
		{name: "not bearer", header: "Basic secret-key", want: ErrMissingToken},
		{name: "empty token", header: "Bearer   ", want: ErrMissingToken},
		{name: "wrong key", header: "Bearer other-key", want: ErrInvalidKey},
		{name: "case-insensitive scheme", header: "bearer secret-key", want: nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := service.Authenticate(tc.header)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !stdErrors.Is(err, tc.want) {
				t.Fatalf("unexpected error: got %v want %v", err, tc.want)
			}
		})
	}
}

func TestNewServiceValidation(t *testing.T) {
	if _, err := NewService(ModeAPIKey, "  "); err == nil {
		t.Fatal("expected error for blank key in api_key mode")
	}
	if _, err := NewService(Mode("token"), "x"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if _, err := NewService(ModeDisabled, ""); err != nil {
		t.Fatalf("unexpected error for disabled mode: %v", err)
	}
}

func TestMiddlewareStatusMapping(t *testing.T) {
	service, err := NewService(ModeAPIKey, "secret-key")
	if err != nil {
		t.Fatalf("unexpected error building service: %v", err)
	}
	handler := service.Middleware(MiddlewareConfig{})(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{name: "authorized", header: "Bearer secret-key", want: http.StatusOK},
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "wrong key", header: "Bearer nope", want: http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/get_loads", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("unexpected status: got %d want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestMiddlewareDisabledMode(t *testing.T) {
	service, err := NewService(ModeDisabled, "")
	if err != nil {
		t.Fatalf("unexpected error building service: %v", err)
	}
	handler := service.Middleware(MiddlewareConfig{})(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

	req := httptest.NewRequest(http.MethodGet, "/get_loads", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusNoContent)
	}
}
