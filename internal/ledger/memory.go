package ledger

import (
	"context"
	"math/big"
	"sync"

	"pdtoken/internal/audit"
	"pdtoken/pkg/chainctx"
	"pdtoken/pkg/domain"
)

// Notifier receives the transfer notifications the ledger fires into the
// audit stream.
type Notifier interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Memory is an in-process Ledger. Balances and allowances are held as
// arbitrary-precision integers; every mutation validates its guards before
// touching state, so a failed call leaves the ledger unchanged.
type Memory struct {
	mu          sync.RWMutex
	totalSupply *big.Int
	balances    map[domain.Address]*big.Int
	allowances  map[domain.Address]map[domain.Address]*big.Int
	notify      Notifier
}

// Option configures a Memory ledger.
type Option func(*Memory)

// WithNotifier wires the audit stream for transfer notifications.
func WithNotifier(n Notifier) Option {
	return func(m *Memory) { m.notify = n }
}

// NewMemory creates an empty in-memory ledger.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		totalSupply: new(big.Int),
		balances:    make(map[domain.Address]*big.Int),
		allowances:  make(map[domain.Address]map[domain.Address]*big.Int),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) TotalSupply(ctx context.Context) *big.Int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return new(big.Int).Set(m.totalSupply)
}

func (m *Memory) BalanceOf(ctx context.Context, account domain.Address) *big.Int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.balances[account]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func (m *Memory) Allowance(ctx context.Context, owner, spender domain.Address) *big.Int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.allowances[owner][spender]; ok {
		return new(big.Int).Set(a)
	}
	return new(big.Int)
}

func (m *Memory) Mint(ctx context.Context, to domain.Address, amount *big.Int) error {
	if to.IsZero() {
		return ErrInvalidAccount
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrNonPositiveAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credit(to, amount)
	m.totalSupply.Add(m.totalSupply, amount)
	return nil
}

func (m *Memory) Burn(ctx context.Context, from domain.Address, amount *big.Int) error {
	if from.IsZero() {
		return ErrInvalidAccount
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrNonPositiveAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.debit(from, amount); err != nil {
		return err
	}
	m.totalSupply.Sub(m.totalSupply, amount)
	return nil
}

func (m *Memory) Transfer(ctx context.Context, from, to domain.Address, amount *big.Int) error {
	if from.IsZero() || to.IsZero() {
		return ErrInvalidAccount
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrNonPositiveAmount
	}
	m.mu.Lock()
	if err := m.debit(from, amount); err != nil {
		m.mu.Unlock()
		return err
	}
	m.credit(to, amount)
	m.mu.Unlock()

	m.fireTransfer(ctx, from, to, amount)
	return nil
}

// fireTransfer notifies the audit stream of a committed transfer. The
// transfer already happened, so a sink failure is dropped rather than
// surfaced as a ledger error.
func (m *Memory) fireTransfer(ctx context.Context, from, to domain.Address, amount *big.Int) {
	if m.notify == nil {
		return
	}
	block, _ := chainctx.Height(ctx)
	_ = m.notify.Emit(ctx, audit.Event{
		Action:       audit.ActionLedgerTransfer,
		Block:        block,
		Issuer:       from.String(),
		Counterparty: to.String(),
		Amount:       amount.String(),
		RequestID:    chainctx.RequestID(ctx),
	})
}

func (m *Memory) Approve(ctx context.Context, owner, spender domain.Address, amount *big.Int) error {
	if owner.IsZero() || spender.IsZero() {
		return ErrInvalidAccount
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrNonPositiveAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	byOwner, ok := m.allowances[owner]
	if !ok {
		byOwner = make(map[domain.Address]*big.Int)
		m.allowances[owner] = byOwner
	}
	byOwner[spender] = new(big.Int).Set(amount)
	return nil
}

func (m *Memory) SpendAllowance(ctx context.Context, owner, spender domain.Address, amount *big.Int) error {
	if owner.IsZero() || spender.IsZero() {
		return ErrInvalidAccount
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrNonPositiveAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	allowance, ok := m.allowances[owner][spender]
	if !ok || allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	allowance.Sub(allowance, amount)
	return nil
}

// credit assumes the caller holds the lock.
func (m *Memory) credit(account domain.Address, amount *big.Int) {
	if b, ok := m.balances[account]; ok {
		b.Add(b, amount)
		return
	}
	m.balances[account] = new(big.Int).Set(amount)
}

// debit assumes the caller holds the lock. Fails without mutation when the
// balance is short.
func (m *Memory) debit(account domain.Address, amount *big.Int) error {
	b, ok := m.balances[account]
	if !ok || b.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	b.Sub(b, amount)
	return nil
}
