// Package registry owns the set of authorized issuers: a dense ordered list
// plus a record map used as both membership set and reverse index, giving
// O(1) presence tests and O(1) swap-and-truncate removal. Bulk expiry sweeps
// remove repeatedly, so nothing here may be O(n) per removal.
package registry

import (
	"context"
	"math/big"
	"sync"

	"pdtoken/internal/issuer/models"
	"pdtoken/internal/issuer/store/cooldown"
	"pdtoken/pkg/domain"
)

// Registry is the issuer membership state machine. All operations are
// serialized under one mutex and validate every guard before the first
// mutation, so a failed call leaves the registry untouched.
type Registry struct {
	mu        sync.Mutex
	params    models.Params
	cooldowns cooldown.Store

	// list is dense and ordered; records[addr].Position always equals the
	// address's index in list. Record presence is the membership test.
	list    []domain.Address
	records map[domain.Address]*models.IssuerRecord
}

// New constructs an empty registry. The cooldown store is required.
func New(params models.Params, cooldowns cooldown.Store) (*Registry, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if cooldowns == nil {
		return nil, models.ErrInvalidTarget
	}
	return &Registry{
		params:    params,
		cooldowns: cooldowns,
		records:   make(map[domain.Address]*models.IssuerRecord),
	}, nil
}

// Authorize admits an identity for a fresh term anchored at the current
// block. Guard order: membership, cap, cooldown.
func (r *Registry) Authorize(ctx context.Context, addr domain.Address, now uint64) (*models.IssuerRecord, error) {
	if addr.IsZero() || addr == r.params.Controller {
		return nil, models.ErrInvalidTarget
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[addr]; ok {
		return nil, models.ErrAlreadyAuthorized
	}
	if len(r.list) >= r.params.MaxIssuers {
		return nil, models.ErrCapReached
	}
	until, ok, err := r.cooldowns.Until(ctx, addr)
	if err != nil {
		return nil, err
	}
	if ok {
		if until > now {
			return nil, models.ErrCooldownActive
		}
		// Stale entry; drop it before admitting.
		if err := r.cooldowns.Clear(ctx, addr); err != nil {
			return nil, err
		}
	}

	rec := models.NewIssuerRecord(addr, len(r.list), now, r.params.TermLength)
	r.list = append(r.list, addr)
	r.records[addr] = rec
	return rec.Clone(), nil
}

// Deauthorize removes an identity. Self-removal is allowed at any time; a
// third party may only remove an expired issuer. A self-removal before the
// cooldown threshold of the term records a cooldown until the original
// expiration block.
func (r *Registry) Deauthorize(ctx context.Context, addr, caller domain.Address, now uint64) (*models.IssuerRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[addr]
	if !ok {
		return nil, models.ErrNotAuthorized
	}
	if caller != addr && !rec.Expired(now) {
		return nil, models.ErrTermNotExpired
	}
	if err := r.applyExitCooldown(ctx, rec, now); err != nil {
		return nil, err
	}

	snapshot := rec.Clone()
	r.removeLocked(rec)
	return snapshot, nil
}

// DeauthorizeAllExpired sweeps out every issuer whose term has run out and
// returns their final records. The scan runs back-to-front so swap-removals
// never move an unvisited element past the cursor; forward iteration would
// skip the element swapped into the freed slot.
func (r *Registry) DeauthorizeAllExpired(ctx context.Context, now uint64) ([]*models.IssuerRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []*models.IssuerRecord
	for i := len(r.list) - 1; i >= 0; i-- {
		rec := r.records[r.list[i]]
		if !rec.Expired(now) {
			continue
		}
		if err := r.applyExitCooldown(ctx, rec, now); err != nil {
			return removed, err
		}
		removed = append(removed, rec.Clone())
		r.removeLocked(rec)
	}
	return removed, nil
}

// TransferAuthorization migrates from's record verbatim to to: same
// counters, same term window, same position, so the list needs no
// restructuring beyond swapping the identity in place. The departing
// identity is subject to the same early-exit cooldown rule as a voluntary
// removal.
func (r *Registry) TransferAuthorization(ctx context.Context, from, to domain.Address, now uint64) (*models.IssuerRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[from]
	if !ok {
		return nil, models.ErrNotAuthorized
	}
	if rec.Expired(now) {
		return nil, models.ErrTermExpired
	}
	if _, ok := r.records[to]; ok {
		return nil, models.ErrAlreadyAuthorized
	}
	if to.IsZero() || to == r.params.Controller {
		return nil, models.ErrInvalidTarget
	}
	until, ok, err := r.cooldowns.Until(ctx, to)
	if err != nil {
		return nil, err
	}
	if ok {
		if until > now {
			return nil, models.ErrCooldownActive
		}
		if err := r.cooldowns.Clear(ctx, to); err != nil {
			return nil, err
		}
	}
	if err := r.applyExitCooldown(ctx, rec, now); err != nil {
		return nil, err
	}

	inherited := rec.Clone()
	inherited.Address = to
	r.records[to] = inherited
	r.list[inherited.Position] = to
	delete(r.records, from)
	return inherited.Clone(), nil
}

// RecordMint bumps the issuer's lifetime mint counters and returns the
// updated snapshot.
func (r *Registry) RecordMint(addr domain.Address, amount *big.Int) (*models.IssuerRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[addr]
	if !ok {
		return nil, models.ErrNotAuthorized
	}
	rec.RecordMint(amount)
	return rec.Clone(), nil
}

// RecordBurn bumps the issuer's lifetime burn counters and returns the
// updated snapshot.
func (r *Registry) RecordBurn(addr domain.Address, amount *big.Int) (*models.IssuerRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[addr]
	if !ok {
		return nil, models.ErrNotAuthorized
	}
	rec.RecordBurn(amount)
	return rec.Clone(), nil
}

// Record returns a snapshot of the identity's record, if it is a member.
func (r *Registry) Record(addr domain.Address) (*models.IssuerRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[addr]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// Member reports whether the identity is currently authorized.
func (r *Registry) Member(addr domain.Address) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.records[addr]
	return ok
}

// Len returns the current issuer count.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.list)
}

// Issuers returns a copy of the current issuer list.
func (r *Registry) Issuers() []domain.Address {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Address, len(r.list))
	copy(out, r.list)
	return out
}

// ExpiredIssuers returns the identities whose term has run out at the given
// block. Two passes: count first, then fill, so the result is sized exactly.
func (r *Registry) ExpiredIssuers(now uint64) []domain.Address {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, addr := range r.list {
		if r.records[addr].Expired(now) {
			n++
		}
	}
	out := make([]domain.Address, 0, n)
	for _, addr := range r.list {
		if r.records[addr].Expired(now) {
			out = append(out, addr)
		}
	}
	return out
}

// applyExitCooldown records a cooldown for an early exit. Expired records
// have served the full term, so the rule no-ops for them. Called before any
// mutation so a store failure aborts the whole operation cleanly.
func (r *Registry) applyExitCooldown(ctx context.Context, rec *models.IssuerRecord, now uint64) error {
	if rec.Expired(now) || !rec.EarlyExit(now, r.params.CooldownThresholdPct) {
		return nil
	}
	return r.cooldowns.Set(ctx, rec.Address, rec.ExpirationBlock)
}

// removeLocked deletes a member via swap-and-truncate: overwrite the freed
// slot with the last element, fix that element's position, shrink the list.
// O(1), and position bookkeeping survives without a re-index scan.
func (r *Registry) removeLocked(rec *models.IssuerRecord) {
	idx := rec.Position
	last := len(r.list) - 1
	if idx != last {
		moved := r.list[last]
		r.list[idx] = moved
		r.records[moved].Position = idx
	}
	r.list = r.list[:last]
	delete(r.records, rec.Address)
}
