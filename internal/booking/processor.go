package booking

import (
	"context"
	"log/slog"
	"time"

	xerrors "CarrierDesk/internal/errors"
	"CarrierDesk/internal/observability/alerting"
	"CarrierDesk/pkg/logger"
)

// Processor drains booking events from the queue and journals each one.
type Processor struct {
	consumer    Consumer
	journal     *Journal
	workerCount int
	logger      *slog.Logger
	alerter     alerting.Dispatcher
}

// ProcessorOption customises a Processor.
type ProcessorOption func(*Processor)

// WithProcessorLogger sets the debug logger.
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithWorkerCount sets the number of consumer goroutines.
func WithWorkerCount(workers int) ProcessorOption {
	return func(p *Processor) {
		if workers > 0 {
			p.workerCount = workers
		}
	}
}

// WithAlertDispatcher wires the alert channel used on journal failures.
func WithAlertDispatcher(dispatcher alerting.Dispatcher) ProcessorOption {
	return func(p *Processor) {
		p.alerter = dispatcher
	}
}

// NewProcessor builds a Processor over the given consumer and journal.
func NewProcessor(consumer Consumer, journal *Journal, opts ...ProcessorOption) *Processor {
	p := &Processor{
		consumer:    consumer,
		journal:     journal,
		workerCount: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.workerCount <= 0 {
		p.workerCount = 1
	}
	return p
}

// Start blocks consuming events until the context is cancelled.
func (p *Processor) Start(ctx context.Context) error {
	if p.consumer == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "booking consumer is not configured")
	}
	return p.consumer.Consume(ctx, p.workerCount, p.handle)
}

func (p *Processor) handle(ctx context.Context, event Event) error {
	if p.journal == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "booking journal is not configured")
	}
	if err := p.journal.Append(event); err != nil {
		logger.L().Error("failed to journal booking",
			slog.Any("error", err),
			slog.String("event_id", event.EventID),
			slog.String("load_id", event.LoadID),
		)
		p.emitAlert(ctx, event, err)
		return err
	}
	logger.Audit().Info("booking confirmed",
		slog.String("event_id", event.EventID),
		slog.String("load_id", event.LoadID),
		slog.Float64("agreed_price", event.AgreedPrice),
	)
	if p.logger != nil {
		p.logger.Debug("booking journaled", slog.String("event_id", event.EventID))
	}
	return nil
}

func (p *Processor) emitAlert(ctx context.Context, event Event, cause error) {
	if p == nil || p.alerter == nil {
		return
	}
	attrs := xerrors.AttributesOf(CodeBookingJournal)
	message := attrs.Message
	if cause != nil {
		message = cause.Error()
	}
	alert := alerting.Event{
		Code:       CodeBookingJournal,
		Message:    message,
		Severity:   attrs.Severity,
		LoadID:     event.LoadID,
		Metadata:   map[string]string{"event_id": event.EventID},
		OccurredAt: time.Now(),
	}
	if err := p.alerter.Notify(ctx, alert); err != nil {
		logger.L().Error("failed to deliver booking alert",
			slog.Any("error", err),
			slog.String("load_id", event.LoadID),
		)
	}
}
