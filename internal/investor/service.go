package investor

import (
	"context"
	"errors"
	"log/slog"

	"bondgate/internal/audit"
	"bondgate/internal/platform/metrics"
	id "bondgate/pkg/domain"
	dErrors "bondgate/pkg/domain-errors"
	"bondgate/pkg/platform/sentinel"
	"bondgate/pkg/requestcontext"
)

// Service handles investor registration. Balance mutations live in the
// transfer engine, not here.
type Service struct {
	store   Store
	logger  *slog.Logger
	auditor audit.Emitter
	metrics *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditEmitter(emitter audit.Emitter) Option {
	return func(s *Service) { s.auditor = emitter }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an investor record owned by the caller, active with
// zeroed counters. One record per owner.
func (s *Service) Register(ctx context.Context, owner id.InvestorID, fullNames, country string) (*Record, error) {
	record, err := NewRecord(owner, fullNames, country, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			return nil, dErrors.New(dErrors.CodeAccountAlreadyInitialized, "investor already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create investor")
	}

	s.emit(ctx, audit.EventInvestorRegistered, owner.String())
	if s.metrics != nil {
		s.metrics.InvestorsRegistered.Inc()
	}
	return record, nil
}

// Get returns the investor record for an owner.
func (s *Service) Get(ctx context.Context, owner id.InvestorID) (*Record, error) {
	record, err := s.store.Get(ctx, owner)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeAccountNotInitialized, "investor not registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load investor")
	}
	return record, nil
}

func (s *Service) emit(ctx context.Context, action audit.Action, subject string) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, audit.Event{
		Action:     action,
		Actor:      requestcontext.CallerID(ctx),
		Subject:    subject,
		RequestID:  requestcontext.RequestID(ctx),
		Device:     requestcontext.Device(ctx),
		OccurredAt: requestcontext.Now(ctx),
	}); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", string(action), "error", err.Error())
	}
}
