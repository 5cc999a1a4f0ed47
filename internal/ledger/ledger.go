// Package ledger provides the fungible-value ledger the issuance controller
// delegates balance changes to. The controller treats it as an external
// collaborator: it only ever calls TotalSupply, BalanceOf, Mint, Burn, and
// SpendAllowance; the rest of the surface exists for completeness of the
// token ledger itself.
package ledger

import (
	"context"
	"errors"
	"math/big"

	"pdtoken/pkg/domain"
)

var (
	ErrInvalidAccount        = errors.New("invalid account")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrNonPositiveAmount     = errors.New("amount must be positive")
)

// Ledger is the token-ledger interface. Implementations must keep the
// conservation invariant: the sum of all balances equals the total supply.
type Ledger interface {
	TotalSupply(ctx context.Context) *big.Int
	BalanceOf(ctx context.Context, account domain.Address) *big.Int
	Allowance(ctx context.Context, owner, spender domain.Address) *big.Int

	Mint(ctx context.Context, to domain.Address, amount *big.Int) error
	Burn(ctx context.Context, from domain.Address, amount *big.Int) error
	Transfer(ctx context.Context, from, to domain.Address, amount *big.Int) error
	Approve(ctx context.Context, owner, spender domain.Address, amount *big.Int) error
	SpendAllowance(ctx context.Context, owner, spender domain.Address, amount *big.Int) error
}
