package negotiation

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"CarrierDesk/internal/booking"
	xerrors "CarrierDesk/internal/errors"
	"CarrierDesk/internal/load"
	"CarrierDesk/pkg/logger"
)

const defaultRepositoryTimeout = 5 * time.Second

// Service orchestrates one negotiation round per call: looks up the load,
// asks the strategy for a decision, updates per-load state, and on acceptance
// books the load and announces the deal.
type Service struct {
	repo        load.Repository
	states      *StateStore
	strategy    Strategy
	producer    booking.Producer
	repoTimeout time.Duration
	logger      *slog.Logger
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithStrategy replaces the default deterministic strategy.
func WithStrategy(strategy Strategy) ServiceOption {
	return func(s *Service) {
		if strategy != nil {
			s.strategy = strategy
		}
	}
}

// WithBookingProducer wires the queue that announces accepted deals.
func WithBookingProducer(producer booking.Producer) ServiceOption {
	return func(s *Service) {
		s.producer = producer
	}
}

// WithRepositoryTimeout bounds each repository call.
func WithRepositoryTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		if timeout > 0 {
			s.repoTimeout = timeout
		}
	}
}

// WithServiceLogger sets the debug logger.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService builds a negotiation service over the given repository.
func NewService(repo load.Repository, opts ...ServiceOption) *Service {
	s := &Service{
		repo:        repo,
		states:      NewStateStore(),
		strategy:    MidpointStrategy{},
		repoTimeout: defaultRepositoryTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Negotiate runs one round for the load. The whole round holds the per-load
// session so concurrent calls for the same load serialize end to end.
func (s *Service) Negotiate(ctx context.Context, loadID string, carrierOffer float64, notes string) (*Result, error) {
	if strings.TrimSpace(loadID) == "" {
		return nil, xerrors.New(CodeNegotiationValidation, "load_id cannot be empty")
	}
	if carrierOffer <= 0 || math.IsNaN(carrierOffer) || math.IsInf(carrierOffer, 0) {
		return nil, xerrors.New(CodeNegotiationValidation,
			fmt.Sprintf("carrier_offer must be a positive amount, got %v", carrierOffer))
	}

	sess := s.states.Begin(loadID)
	defer sess.End()
	state := sess.State()

	if state.Attempts >= MaxRounds {
		return &Result{
			LoadID:            loadID,
			Outcome:           OutcomeLimitReached,
			CarrierOffer:      carrierOffer,
			AgentOffer:        NoOffer,
			AgreedPrice:       NoOffer,
			Message:           "Negotiation attempt limit reached; please contact support.",
			RemainingAttempts: 0,
		}, nil
	}

	record, err := s.fetchLoad(ctx, loadID)
	if err != nil {
		return nil, err
	}
	if err := record.Validate(); err != nil {
		return nil, xerrors.Wrap(CodeNegotiationBadRecord, err,
			fmt.Sprintf("load %s cannot be negotiated", loadID))
	}

	originalPrice := carrierOffer
	if record.LoadboardRate != nil {
		originalPrice = *record.LoadboardRate
	}

	agentOffer, accepted := s.strategy.Decide(originalPrice, carrierOffer, state.Attempts, state.LastAgentOffer)
	offer := agentOffer
	state.LastAgentOffer = &offer
	state.Attempts++
	remaining := MaxRounds - state.Attempts

	if s.logger != nil {
		s.logger.Debug("negotiation round decided",
			slog.String("load_id", loadID),
			slog.Int("attempt", state.Attempts),
			slog.Float64("carrier_offer", carrierOffer),
			slog.Float64("agent_offer", agentOffer),
			slog.Bool("accepted", accepted),
		)
	}

	if accepted {
		return s.acceptDeal(ctx, sess, loadID, carrierOffer, agentOffer, notes, remaining)
	}

	message := fmt.Sprintf("The agent counters at %s. Original ask was %s.",
		formatUSD(agentOffer), formatUSD(originalPrice))
	if remaining == 0 {
		message += " No further counter offers are available."
	}
	return &Result{
		LoadID:            loadID,
		Outcome:           OutcomeCountered,
		CarrierOffer:      carrierOffer,
		AgentOffer:        agentOffer,
		AgreedPrice:       NoOffer,
		Message:           message,
		RemainingAttempts: remaining,
	}, nil
}

func (s *Service) fetchLoad(ctx context.Context, loadID string) (*load.Load, error) {
	rctx, cancel := context.WithTimeout(ctx, s.repoTimeout)
	defer cancel()

	record, err := s.repo.Get(rctx, loadID)
	if err != nil {
		if stdErrors.Is(err, load.ErrLoadNotFound) {
			return nil, err
		}
		if stdErrors.Is(err, context.DeadlineExceeded) {
			return nil, xerrors.Wrap(xerrors.CodeTimeout, err,
				fmt.Sprintf("load repository timed out reading %s", loadID))
		}
		return nil, xerrors.Wrap(CodeNegotiationDependency, err,
			fmt.Sprintf("load repository failed reading %s", loadID))
	}
	return record, nil
}

// acceptDeal clears the negotiation state, then persists the booking. The
// ordering is deliberate: state is gone before the write is confirmed, so a
// booking write failure leaves the load negotiable from scratch. Reordering
// would change retry semantics for callers.
func (s *Service) acceptDeal(ctx context.Context, sess *Session, loadID string, carrierOffer, agentOffer float64, notes string, remaining int) (*Result, error) {
	sess.Remove()

	rctx, cancel := context.WithTimeout(ctx, s.repoTimeout)
	defer cancel()
	if err := s.repo.SetBooked(rctx, loadID, true); err != nil {
		return nil, xerrors.Wrap(CodeNegotiationDependency, err,
			fmt.Sprintf("failed to persist booking for load %s", loadID))
	}

	logger.Audit().Info("deal accepted",
		slog.String("load_id", loadID),
		slog.Float64("agreed_price", carrierOffer),
		slog.Float64("agent_target", agentOffer),
	)
	s.publishBooking(ctx, loadID, carrierOffer, notes)

	return &Result{
		LoadID:            loadID,
		Outcome:           OutcomeAccepted,
		CarrierOffer:      carrierOffer,
		AgentOffer:        NoOffer,
		AgreedPrice:       carrierOffer,
		Message: fmt.Sprintf("The agent accepted the carrier's offer of %s; it meets the agent's target of %s.",
			formatUSD(carrierOffer), formatUSD(agentOffer)),
		RemainingAttempts: remaining,
	}, nil
}

// publishBooking announces the deal on the booking queue. Delivery is
// best-effort; the deal stands even if the announcement fails.
func (s *Service) publishBooking(ctx context.Context, loadID string, agreedPrice float64, notes string) {
	if s.producer == nil {
		return
	}
	event := booking.Event{
		EventID:     uuid.NewString(),
		LoadID:      loadID,
		AgreedPrice: agreedPrice,
		Notes:       notes,
		BookedAt:    time.Now().Unix(),
	}
	if err := s.producer.Publish(ctx, event); err != nil {
		wrapped := xerrors.Wrap(booking.CodeBookingPublish, err,
			fmt.Sprintf("failed to announce booking for load %s", loadID))
		logger.L().Error("booking announcement failed",
			slog.Any("error", wrapped),
			slog.String("load_id", loadID),
		)
	}
}

// formatUSD renders a price as $1,234.56.
func formatUSD(value float64) string {
	text := strconv.FormatFloat(value, 'f', 2, 64)
	negative := strings.HasPrefix(text, "-")
	if negative {
		text = text[1:]
	}
	dot := strings.IndexByte(text, '.')
	whole, frac := text[:dot], text[dot:]
	var builder strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			builder.WriteByte(',')
		}
		builder.WriteRune(digit)
	}
	sign := ""
	if negative {
		sign = "-"
	}
	return sign + "$" + builder.String() + frac
}
