package service

import (
	"context"
	"math/big"

	"pdtoken/internal/issuer/mintfactor"
	"pdtoken/internal/issuer/models"
	"pdtoken/pkg/domain"
)

// Issuers returns the current issuer list. Read-only; calling it never
// mutates state.
func (s *Service) Issuers(ctx context.Context) []domain.Address {
	return s.registry.Issuers()
}

// ExpiredIssuers returns the issuers whose term has run out at the current
// block.
func (s *Service) ExpiredIssuers(ctx context.Context) []domain.Address {
	return s.registry.ExpiredIssuers(s.height(ctx))
}

// Record returns the issuer's record snapshot.
func (s *Service) Record(ctx context.Context, addr domain.Address) (*models.IssuerRecord, error) {
	rec, ok := s.registry.Record(addr)
	if !ok {
		return nil, s.wrapGuard(models.ErrNotAuthorized)
	}
	return rec, nil
}

// MintFactor recomputes the issuer's current factor (parts-per-10000 of
// supply) from its record and the live supply. Pure derivation; no state
// changes.
func (s *Service) MintFactor(ctx context.Context, addr domain.Address) (uint64, error) {
	rec, ok := s.registry.Record(addr)
	if !ok {
		return 0, s.wrapGuard(models.ErrNotAuthorized)
	}
	supply := s.ledger.TotalSupply(ctx)
	return mintfactor.Factor(historyOf(rec), supply, s.factorParams()), nil
}

// MaxMintable converts the issuer's factor into an absolute amount against
// the current supply.
func (s *Service) MaxMintable(ctx context.Context, addr domain.Address) (*big.Int, error) {
	factor, err := s.MintFactor(ctx, addr)
	if err != nil {
		return nil, err
	}
	return mintfactor.MaxMintable(factor, s.ledger.TotalSupply(ctx)), nil
}
