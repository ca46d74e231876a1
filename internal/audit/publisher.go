package audit

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/mssola/useragent"

	"market/pkg/requestcontext"
)

// Sink persists or forwards events.
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// FailureRecorder counts events that could not be delivered.
type FailureRecorder interface {
	IncrementAuditPublishErrors()
}

// Publisher enriches events with request metadata and hands them to a sink.
// Delivery failures are logged and counted; they never fail the caller.
type Publisher struct {
	sink     Sink
	logger   *slog.Logger
	failures FailureRecorder
}

type Option func(*Publisher)

func WithFailureRecorder(r FailureRecorder) Option {
	return func(p *Publisher) {
		p.failures = r
	}
}

func NewPublisher(sink Sink, logger *slog.Logger, opts ...Option) *Publisher {
	p := &Publisher{sink: sink, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil || p.sink == nil {
		return
	}
	event = Enrich(ctx, event)
	if err := p.sink.Write(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish audit event",
			"error", err,
			"action", string(event.Action),
			"request_id", event.RequestID,
		)
		if p.failures != nil {
			p.failures.IncrementAuditPublishErrors()
		}
	}
}

// Enrich fills timestamp, request id and client details from ctx.
func Enrich(ctx context.Context, event Event) Event {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = middleware.GetReqID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if event.UserAgent == "" {
		event.UserAgent = requestcontext.UserAgent(ctx)
	}
	if event.UserAgent != "" && event.Browser == "" {
		ua := useragent.New(event.UserAgent)
		name, version := ua.Browser()
		if version != "" {
			name += " " + version
		}
		event.Browser = name
		event.OS = ua.OS()
		event.Mobile = ua.Mobile()
	}
	return event
}
