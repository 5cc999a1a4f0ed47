package service

import (
	"context"
	"time"

	"pdtoken/internal/audit"
	"pdtoken/internal/issuer/models"
	"pdtoken/pkg/chainctx"
	"pdtoken/pkg/domain"
)

// AuthorizeIssuer admits an identity for a fresh term and returns its record.
func (s *Service) AuthorizeIssuer(ctx context.Context, addr domain.Address) (*models.IssuerRecord, error) {
	ctx, span := s.tracer.Start(ctx, "issuer.Authorize")
	defer span.End()
	start := time.Now()

	now := s.height(ctx)
	rec, err := s.registry.Authorize(ctx, addr, now)
	if err != nil {
		return nil, s.wrapGuard(err)
	}

	s.emit(ctx, audit.Event{
		Action:     audit.ActionIssuerAuthorized,
		Block:      now,
		Issuer:     addr.String(),
		Actor:      chainctx.Caller(ctx).String(),
		Expiration: rec.ExpirationBlock,
	})
	if s.metrics != nil {
		s.metrics.Authorized.Inc()
		s.metrics.ObserveOp("authorize", start)
	}
	s.setActiveGauge()
	s.logger.InfoContext(ctx, "issuer authorized",
		"issuer", addr, "expiration", rec.ExpirationBlock, "block", now)
	return rec, nil
}

// DeauthorizeIssuer removes an identity. The caller comes from the request
// context: self-removal is unconditional, third parties must wait for
// expiry.
func (s *Service) DeauthorizeIssuer(ctx context.Context, addr domain.Address) error {
	ctx, span := s.tracer.Start(ctx, "issuer.Deauthorize")
	defer span.End()
	start := time.Now()

	now := s.height(ctx)
	caller := chainctx.Caller(ctx)
	if _, err := s.registry.Deauthorize(ctx, addr, caller, now); err != nil {
		return s.wrapGuard(err)
	}

	s.emit(ctx, audit.Event{
		Action: audit.ActionIssuerDeauthorized,
		Block:  now,
		Issuer: addr.String(),
		Actor:  caller.String(),
	})
	if s.metrics != nil {
		s.metrics.Deauthorized.Inc()
		s.metrics.ObserveOp("deauthorize", start)
	}
	s.setActiveGauge()
	s.logger.InfoContext(ctx, "issuer deauthorized",
		"issuer", addr, "caller", caller, "block", now)
	return nil
}

// DeauthorizeAllExpired sweeps out every expired issuer and returns the
// removed identities.
func (s *Service) DeauthorizeAllExpired(ctx context.Context) ([]domain.Address, error) {
	ctx, span := s.tracer.Start(ctx, "issuer.SweepExpired")
	defer span.End()
	start := time.Now()

	now := s.height(ctx)
	caller := chainctx.Caller(ctx)
	removed, err := s.registry.DeauthorizeAllExpired(ctx, now)
	if err != nil {
		return nil, s.wrapGuard(err)
	}

	out := make([]domain.Address, 0, len(removed))
	for _, rec := range removed {
		out = append(out, rec.Address)
		s.emit(ctx, audit.Event{
			Action: audit.ActionIssuerDeauthorized,
			Block:  now,
			Issuer: rec.Address.String(),
			Actor:  caller.String(),
		})
	}
	if s.metrics != nil {
		s.metrics.Deauthorized.Add(float64(len(removed)))
		s.metrics.SweepRemovals.Observe(float64(len(removed)))
		s.metrics.ObserveOp("sweep_expired", start)
	}
	s.setActiveGauge()
	if len(removed) > 0 {
		s.logger.InfoContext(ctx, "expired issuers swept", "count", len(removed), "block", now)
	}
	return out, nil
}

// TransferAuthorization moves the caller's authorization, history included,
// to a new identity.
func (s *Service) TransferAuthorization(ctx context.Context, to domain.Address) (*models.IssuerRecord, error) {
	ctx, span := s.tracer.Start(ctx, "issuer.TransferAuthorization")
	defer span.End()
	start := time.Now()

	now := s.height(ctx)
	from := chainctx.Caller(ctx)
	rec, err := s.registry.TransferAuthorization(ctx, from, to, now)
	if err != nil {
		return nil, s.wrapGuard(err)
	}

	s.emit(ctx, audit.Event{
		Action:       audit.ActionIssuerTransferred,
		Block:        now,
		Issuer:       from.String(),
		Counterparty: to.String(),
		Position:     rec.Position,
	})
	if s.metrics != nil {
		s.metrics.Transferred.Inc()
		s.metrics.ObserveOp("transfer", start)
	}
	s.logger.InfoContext(ctx, "issuer authorization transferred",
		"from", from, "to", to, "position", rec.Position, "block", now)
	return rec, nil
}
