package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"pdtoken/internal/audit"
	issuermetrics "pdtoken/internal/issuer/metrics"
	"pdtoken/internal/issuer/mintfactor"
	"pdtoken/internal/issuer/models"
	"pdtoken/internal/issuer/registry"
	"pdtoken/internal/ledger"
	"pdtoken/internal/platform/chain"
	"pdtoken/pkg/chainctx"
	"pdtoken/pkg/domain"
	dErrors "pdtoken/pkg/domain-errors"
)

// AuditPublisher receives the controller's append-only notifications.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the issuance controller. It validates caller eligibility
// against the registry, computes the per-action ceiling, and delegates
// balance changes to the ledger. Guard order is part of the contract:
// authorization before expiration before target and amount checks.
type Service struct {
	registry *registry.Registry
	ledger   ledger.Ledger
	clock    chain.Clock
	params   models.Params

	logger  *slog.Logger
	audit   AuditPublisher
	metrics *issuermetrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithMetrics(m *issuermetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the issuance controller.
func New(reg *registry.Registry, led ledger.Ledger, clock chain.Clock, params models.Params, opts ...Option) (*Service, error) {
	if reg == nil {
		return nil, errors.New("issuer registry is required")
	}
	if led == nil {
		return nil, errors.New("ledger is required")
	}
	if clock == nil {
		return nil, errors.New("chain clock is required")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		registry: reg,
		ledger:   led,
		clock:    clock,
		params:   params,
		logger:   slog.Default(),
		tracer:   otel.Tracer("pdtoken/issuer"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// height returns the operation's block: the one stamped into the context by
// middleware, or the clock's current height for non-HTTP callers.
func (s *Service) height(ctx context.Context) uint64 {
	if h, ok := chainctx.Height(ctx); ok {
		return h
	}
	return s.clock.Height()
}

// requireActiveIssuer enforces the leading guard pair. The authorization
// check precedes the expiration check; callers rely on that ordering in
// observable failures.
func (s *Service) requireActiveIssuer(caller domain.Address, now uint64) (*models.IssuerRecord, error) {
	rec, ok := s.registry.Record(caller)
	if !ok {
		return nil, models.ErrNotAuthorized
	}
	if rec.Expired(now) {
		return nil, models.ErrTermExpired
	}
	return rec, nil
}

func (s *Service) factorParams() mintfactor.Params {
	return mintfactor.Params{BaseFactor: s.params.BaseFactor}
}

func historyOf(rec *models.IssuerRecord) mintfactor.History {
	return mintfactor.History{
		TotalMinted: rec.TotalMinted,
		MintCount:   rec.MintCount,
		TotalBurned: rec.TotalBurned,
		BurnCount:   rec.BurnCount,
	}
}

// wrapGuard translates named guard failures into coded domain errors while
// preserving the chain for errors.Is.
func (s *Service) wrapGuard(err error) error {
	if err == nil {
		return nil
	}
	var code dErrors.Code
	switch {
	case errors.Is(err, models.ErrNotAuthorized),
		errors.Is(err, models.ErrTermExpired),
		errors.Is(err, models.ErrTermNotExpired):
		code = dErrors.CodeForbidden
	case errors.Is(err, models.ErrAlreadyAuthorized),
		errors.Is(err, models.ErrCapReached),
		errors.Is(err, models.ErrCooldownActive):
		code = dErrors.CodeConflict
	case errors.Is(err, models.ErrInvalidTarget),
		errors.Is(err, models.ErrInvalidReceiver),
		errors.Is(err, models.ErrNonPositiveAmount),
		errors.Is(err, models.ErrExceedsMintFactor):
		code = dErrors.CodeValidation
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "issuer operation failed")
	}
	if s.metrics != nil {
		s.metrics.RejectGuard(string(code))
	}
	return dErrors.Wrap(err, code, err.Error())
}

// emit publishes a notification. Emission happens after the state change, so
// a sink failure is logged rather than turned into a partial-looking error.
func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	event.RequestID = chainctx.RequestID(ctx)
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"action", string(event.Action),
			"issuer", event.Issuer,
			"error", err,
		)
	}
}

func (s *Service) setActiveGauge() {
	if s.metrics != nil {
		s.metrics.ActiveIssuers.Set(float64(s.registry.Len()))
	}
}
