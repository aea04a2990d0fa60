package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"CarrierDesk/internal/auth"
	"CarrierDesk/internal/booking"
	"CarrierDesk/internal/calllog"
	xerrors "CarrierDesk/internal/errors"
	"CarrierDesk/internal/load"
	"CarrierDesk/internal/negotiation"
	"CarrierDesk/internal/observability/metrics"
	"CarrierDesk/pkg/logger"
)

// Server exposes the REST API.
type Server struct {
	addr              string
	readHeaderTimeout time.Duration
	shutdownTimeout   time.Duration

	negotiator *negotiation.Service
	loads      load.Repository
	callLogs   *calllog.Service
	journal    *booking.Journal
	authSvc    *auth.Service
}

// Config wires the server's collaborators.
type Config struct {
	Address           string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration

	Negotiator *negotiation.Service
	Loads      load.Repository
	CallLogs   *calllog.Service
	Journal    *booking.Journal
	Auth       *auth.Service
}

// NewServer builds a Server.
func NewServer(cfg Config) *Server {
	addr := cfg.Address
	if addr == "" {
		addr = ":8000"
	}
	readHeaderTimeout := cfg.ReadHeaderTimeout
	if readHeaderTimeout <= 0 {
		readHeaderTimeout = 5 * time.Second
	}
	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}
	return &Server{
		addr:              addr,
		readHeaderTimeout: readHeaderTimeout,
		shutdownTimeout:   shutdownTimeout,
		negotiator:        cfg.Negotiator,
		loads:             cfg.Loads,
		callLogs:          cfg.CallLogs,
		journal:           cfg.Journal,
		authSvc:           cfg.Auth,
	}
}

// Start serves HTTP until the context is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           withContext(ctx, s.Handler()),
		ReadHeaderTimeout: s.readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Handler assembles the route table. Health and metrics stay open; everything
// else sits behind the API key.
func (s *Server) Handler() http.Handler {
	guard := func(name string, handler http.HandlerFunc) http.Handler {
		wrapped := metrics.Middleware(name, handler)
		if s.authSvc != nil {
			wrapped = s.authSvc.Middleware(auth.MiddlewareConfig{AuditEvent: name})(wrapped)
		}
		return wrapped
	}

	mux := http.NewServeMux()
	mux.Handle("/health", metrics.Middleware("health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/get_loads", guard("get_loads", s.handleGetLoads))
	mux.Handle("/negotiate", guard("negotiate", s.handleNegotiate))
	mux.Handle("/call_logs", guard("call_logs", s.handleCallLogs))
	mux.Handle("/call_logs/", guard("call_log", s.handleCallLogByID))
	mux.Handle("/metrics/summary", guard("metrics_summary", s.handleMetricsSummary))
	mux.Handle("/bookings", guard("bookings", s.handleBookings))
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is supported")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleGetLoads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is supported")
		return
	}
	query := r.URL.Query()
	results, err := s.loads.Search(r.Context(),
		query.Get("origin"), query.Get("destination"), query.Get("equipment_type"))
	if err != nil {
		writeCodedError(w, err)
		return
	}
	if results == nil {
		results = []*load.Load{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"loads": results, "count": len(results)})
}

type negotiateRequest struct {
	LoadID       string  `json:"load_id"`
	CarrierOffer float64 `json:"carrier_offer"`
	Notes        string  `json:"notes"`
}

func (s *Server) handleNegotiate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only POST is supported")
		return
	}
	var req negotiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST_BODY", "request body is not valid JSON")
		return
	}
	result, err := s.negotiator.Negotiate(r.Context(), req.LoadID, req.CarrierOffer, req.Notes)
	if err != nil {
		writeCodedError(w, err)
		return
	}
	metrics.ObserveNegotiation(string(result.Outcome))
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCallLogs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListCallLogs(w, r)
	case http.MethodPost:
		s.handleCreateCallLog(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET/POST are supported")
	}
}

func (s *Server) handleListCallLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	opts := []calllog.ListOption{
		calllog.WithLoadID(query.Get("load_id")),
		calllog.WithSentiment(query.Get("sentiment")),
		calllog.WithOutcome(query.Get("outcome")),
	}
	if raw := query.Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			opts = append(opts, calllog.WithLimit(parsed))
		}
	}
	if raw := query.Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			opts = append(opts, calllog.WithOffset(parsed))
		}
	}
	records, err := s.callLogs.List(r.Context(), opts...)
	if err != nil {
		writeCodedError(w, err)
		return
	}
	if records == nil {
		records = []*calllog.CallLog{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"call_logs": records, "count": len(records)})
}

func (s *Server) handleCreateCallLog(w http.ResponseWriter, r *http.Request) {
	var record calllog.CallLog
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST_BODY", "request body is not valid JSON")
		return
	}
	created, err := s.callLogs.Create(r.Context(), &record)
	if err != nil {
		writeCodedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleCallLogByID(w http.ResponseWriter, r *http.Request) {
	callID := strings.TrimPrefix(r.URL.Path, "/call_logs/")
	if callID == "" || strings.Contains(callID, "/") {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown resource")
		return
	}
	switch r.Method {
	case http.MethodGet:
		record, err := s.callLogs.Get(r.Context(), callID)
		if err != nil {
			writeCodedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, record)
	case http.MethodPut:
		var record calllog.CallLog
		if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST_BODY", "request body is not valid JSON")
			return
		}
		record.CallID = callID
		updated, err := s.callLogs.Update(r.Context(), &record)
		if err != nil {
			writeCodedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := s.callLogs.Delete(r.Context(), callID); err != nil {
			writeCodedError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET/PUT/DELETE are supported")
	}
}

func (s *Server) handleMetricsSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is supported")
		return
	}
	summary, err := s.callLogs.Summarize(r.Context())
	if err != nil {
		writeCodedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is supported")
		return
	}
	if s.journal == nil {
		writeJSON(w, http.StatusOK, map[string]any{"bookings": []booking.Event{}, "count": 0})
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	events := s.journal.ListLatest(limit)
	if events == nil {
		events = []booking.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": events, "count": len(events)})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L().Error("failed to encode response", slog.Any("error", err))
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}

// writeCodedError maps the shared error taxonomy onto HTTP statuses.
func writeCodedError(w http.ResponseWriter, err error) {
	code := xerrors.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case load.CodeLoadNotFound, calllog.CodeCallLogNotFound:
		status = http.StatusNotFound
	case negotiation.CodeNegotiationValidation, calllog.CodeCallLogValidation, xerrors.CodeInvalidArgument:
		status = http.StatusBadRequest
	case calllog.CodeCallLogConflict:
		status = http.StatusConflict
	case negotiation.CodeNegotiationDependency, load.CodeLoadStorageFailure,
		calllog.CodeCallLogStorage, xerrors.CodeTimeout, xerrors.CodeStorageFailure:
		status = http.StatusBadGateway
	case negotiation.CodeNegotiationBadRecord, load.CodeLoadValidation:
		status = http.StatusInternalServerError
	}
	message := err.Error()
	if coded, ok := xerrors.From(err); ok {
		message = coded.Message()
	}
	if status >= 500 {
		logger.L().Error("request failed",
			slog.String("code", string(code)),
			slog.Any("error", err),
		)
	}
	writeError(w, status, string(code), message)
}

// withContext rejects new requests once the root context is cancelled.
func withContext(ctx context.Context, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			writeError(w, http.StatusServiceUnavailable, "SHUTTING_DOWN", "server is shutting down")
			return
		default:
		}
		handler.ServeHTTP(w, r)
	})
}
