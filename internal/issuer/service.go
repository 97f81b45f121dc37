package issuer

import (
	"context"
	"errors"
	"log/slog"

	"bondgate/internal/audit"
	"bondgate/internal/platform/metrics"
	dErrors "bondgate/pkg/domain-errors"
	"bondgate/pkg/platform/sentinel"
	"bondgate/pkg/requestcontext"
)

// Service manages the bounded issuer registry. Registration of a bond
// appends its issuer through here so the roster and the bond ledger
// stay in one transaction.
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

// Init bootstraps the registry. Administrative, one-shot.
func (s *Service) Init(ctx context.Context) error {
	if err := s.store.Init(ctx); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			return dErrors.New(dErrors.CodeAccountAlreadyInitialized, "config registry already initialized")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to initialize config registry")
	}
	s.emit(ctx, audit.EventRegistryInitialized, "registry")
	return nil
}

// Register validates and appends an issuer to the roster.
func (s *Service) Register(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := s.store.Append(ctx, Record{Name: name}); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeAccountNotInitialized, "config registry not initialized")
		case errors.Is(err, sentinel.ErrCapacity):
			return dErrors.Newf(dErrors.CodeCapacityExceeded, "issuer registry is full (max %d)", MaxIssuers)
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append issuer")
		}
	}
	if s.metrics != nil {
		s.metrics.IssuersRegistered.Inc()
	}
	s.emit(ctx, audit.EventIssuerRegistered, name)
	return nil
}

// List returns the registered issuers in append order.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeAccountNotInitialized, "config registry not initialized")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list issuers")
	}
	return records, nil
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
