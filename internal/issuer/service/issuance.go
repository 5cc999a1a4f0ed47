package service

import (
	"context"
	"math/big"
	"time"

	"pdtoken/internal/audit"
	"pdtoken/internal/issuer/mintfactor"
	"pdtoken/internal/issuer/models"
	"pdtoken/internal/ledger"
	"pdtoken/pkg/chainctx"
	"pdtoken/pkg/domain"
	dErrors "pdtoken/pkg/domain-errors"
)

// MintResult reports what a mint actually created, which can exceed the
// request when the supply floor tops it up.
type MintResult struct {
	Amount *big.Int
	Record *models.IssuerRecord
}

// Mint creates new units for the receiver on the caller's authority. With
// zero supply the requested amount is ignored and the supply floor is minted
// outright (bootstrap); otherwise the request must fit inside the caller's
// current mint factor, and any shortfall against the floor is added on top.
func (s *Service) Mint(ctx context.Context, to domain.Address, requested *big.Int) (*MintResult, error) {
	ctx, span := s.tracer.Start(ctx, "issuer.Mint")
	defer span.End()
	start := time.Now()

	now := s.height(ctx)
	caller := chainctx.Caller(ctx)
	rec, err := s.requireActiveIssuer(caller, now)
	if err != nil {
		return nil, s.wrapGuard(err)
	}
	if to.IsZero() || to == s.params.Controller {
		return nil, s.wrapGuard(models.ErrInvalidReceiver)
	}

	supply := s.ledger.TotalSupply(ctx)
	amount, err := s.mintAmount(rec, supply, requested)
	if err != nil {
		return nil, s.wrapGuard(err)
	}

	if err := s.ledger.Mint(ctx, to, amount); err != nil {
		return nil, s.wrapLedger(err)
	}
	updated, err := s.registry.RecordMint(caller, amount)
	if err != nil {
		return nil, s.wrapGuard(err)
	}

	s.emit(ctx, audit.Event{
		Action:       audit.ActionIssuerActivity,
		Block:        now,
		Issuer:       caller.String(),
		Counterparty: to.String(),
		Minted:       amount.String(),
		TotalMinted:  updated.TotalMinted.String(),
		TotalBurned:  updated.TotalBurned.String(),
	})
	if s.metrics != nil {
		s.metrics.Mints.Inc()
		s.metrics.ObserveOp("mint", start)
	}
	s.logger.InfoContext(ctx, "minted",
		"issuer", caller, "to", to, "amount", amount.String(), "block", now)
	return &MintResult{Amount: amount, Record: updated}, nil
}

// mintAmount computes the actual amount to create for a request against the
// current supply.
func (s *Service) mintAmount(rec *models.IssuerRecord, supply, requested *big.Int) (*big.Int, error) {
	if supply.Sign() == 0 {
		if s.params.SupplyFloor.Sign() == 0 {
			return nil, models.ErrNonPositiveAmount
		}
		return new(big.Int).Set(s.params.SupplyFloor), nil
	}
	if requested == nil || requested.Sign() <= 0 {
		return nil, models.ErrNonPositiveAmount
	}

	factor := mintfactor.Factor(historyOf(rec), supply, s.factorParams())
	lhs := new(big.Int).Mul(requested, big.NewInt(mintfactor.Scale))
	rhs := new(big.Int).Mul(supply, new(big.Int).SetUint64(factor))
	if lhs.Cmp(rhs) > 0 {
		return nil, models.ErrExceedsMintFactor
	}

	amount := new(big.Int).Set(requested)
	after := new(big.Int).Add(supply, requested)
	if after.Cmp(s.params.SupplyFloor) < 0 {
		shortfall := new(big.Int).Sub(s.params.SupplyFloor, after)
		amount.Add(amount, shortfall)
	}
	return amount, nil
}

// Burn destroys units from the caller's own balance.
func (s *Service) Burn(ctx context.Context, amount *big.Int) (*models.IssuerRecord, error) {
	ctx, span := s.tracer.Start(ctx, "issuer.Burn")
	defer span.End()
	start := time.Now()

	now := s.height(ctx)
	caller := chainctx.Caller(ctx)
	if _, err := s.requireActiveIssuer(caller, now); err != nil {
		return nil, s.wrapGuard(err)
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, s.wrapGuard(models.ErrNonPositiveAmount)
	}

	if err := s.ledger.Burn(ctx, caller, amount); err != nil {
		return nil, s.wrapLedger(err)
	}
	return s.finishBurn(ctx, "burn", start, caller, caller, amount, now)
}

// BurnFrom destroys units from another account, spending the caller's
// allowance. The balance is checked before the allowance is spent so a
// failed burn never leaves a half-consumed allowance.
func (s *Service) BurnFrom(ctx context.Context, account domain.Address, amount *big.Int) (*models.IssuerRecord, error) {
	ctx, span := s.tracer.Start(ctx, "issuer.BurnFrom")
	defer span.End()
	start := time.Now()

	now := s.height(ctx)
	caller := chainctx.Caller(ctx)
	if _, err := s.requireActiveIssuer(caller, now); err != nil {
		return nil, s.wrapGuard(err)
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, s.wrapGuard(models.ErrNonPositiveAmount)
	}
	if s.ledger.BalanceOf(ctx, account).Cmp(amount) < 0 {
		return nil, s.wrapLedger(ledger.ErrInsufficientBalance)
	}

	if err := s.ledger.SpendAllowance(ctx, account, caller, amount); err != nil {
		return nil, s.wrapLedger(err)
	}
	if err := s.ledger.Burn(ctx, account, amount); err != nil {
		return nil, s.wrapLedger(err)
	}
	return s.finishBurn(ctx, "burn_from", start, caller, account, amount, now)
}

func (s *Service) finishBurn(ctx context.Context, op string, start time.Time, caller, account domain.Address, amount *big.Int, now uint64) (*models.IssuerRecord, error) {
	updated, err := s.registry.RecordBurn(caller, amount)
	if err != nil {
		return nil, s.wrapGuard(err)
	}
	s.emit(ctx, audit.Event{
		Action:       audit.ActionIssuerActivity,
		Block:        now,
		Issuer:       caller.String(),
		Counterparty: account.String(),
		Burned:       amount.String(),
		TotalMinted:  updated.TotalMinted.String(),
		TotalBurned:  updated.TotalBurned.String(),
	})
	if s.metrics != nil {
		s.metrics.Burns.Inc()
		s.metrics.ObserveOp(op, start)
	}
	s.logger.InfoContext(ctx, "burned",
		"issuer", caller, "account", account, "amount", amount.String(), "block", now)
	return updated, nil
}

func (s *Service) wrapLedger(err error) error {
	if err == nil {
		return nil
	}
	switch err {
	case ledger.ErrInsufficientBalance, ledger.ErrInsufficientAllowance,
		ledger.ErrNonPositiveAmount, ledger.ErrInvalidAccount:
		return dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "ledger operation failed")
}
