// Package auth guards the HTTP API with a shared Bearer API key.
package auth

import (
	"crypto/subtle"
	"log/slog"
	"strings"

	xerrors "CarrierDesk/internal/errors"
)

// Mode selects how requests are authenticated.
type Mode string

const (
	// ModeDisabled lets every request through. Local development only.
	ModeDisabled Mode = "disabled"
	// ModeAPIKey requires a Bearer token matching the configured key.
	ModeAPIKey Mode = "api_key"
)

// Authentication failures, distinguished so the middleware can map a missing
// or malformed header to 401 and a wrong key to 403.
var (
	ErrMissingToken = xerrors.New(CodeAuthMissingToken, "authorization header is missing or malformed")
	ErrInvalidKey   = xerrors.New(CodeAuthInvalidKey, "api key is not valid")
)

const (
	CodeAuthMissingToken xerrors.Code = "AUTH_MISSING_TOKEN"
	CodeAuthInvalidKey   xerrors.Code = "AUTH_INVALID_KEY"
)

func init() {
	xerrors.Register(CodeAuthMissingToken, xerrors.Attributes{
		Message:   "authorization header is missing or malformed",
		Severity:  xerrors.SeverityWarning,
		Retryable: false,
		Alert:     false,
	})
	xerrors.Register(CodeAuthInvalidKey, xerrors.Attributes{
		Message:   "api key is not valid",
		Severity:  xerrors.SeverityWarning,
		Retryable: false,
		Alert:     false,
	})
}

// Service validates API keys.
type Service struct {
	mode  Mode
	key   []byte
	audit *slog.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithAuditLogger overrides the audit log destination.
func WithAuditLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.audit = logger
	}
}

// NewService builds an auth service. In ModeAPIKey the key must be non-empty.
func NewService(mode Mode, apiKey string, opts ...Option) (*Service, error) {
	switch mode {
	case ModeDisabled:
	case ModeAPIKey:
		if strings.TrimSpace(apiKey) == "" {
			return nil, xerrors.New(xerrors.CodeInitializationFailure,
				"api key auth enabled but no key configured")
		}
	default:
		return nil, xerrors.New(xerrors.CodeInitializationFailure,
			"unknown auth mode: "+string(mode))
	}
	s := &Service{mode: mode, key: []byte(apiKey)}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Authenticate checks the Authorization header value.
func (s *Service) Authenticate(header string) error {
	if s == nil || s.mode == ModeDisabled {
		return nil
	}
	token, ok := bearerToken(header)
	if !ok {
		return ErrMissingToken
	}
	if subtle.ConstantTimeCompare([]byte(token), s.key) != 1 {
		return ErrInvalidKey
	}
	return nil
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", false
	}
	return token, true
}
