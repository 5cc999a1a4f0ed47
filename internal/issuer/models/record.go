package models

import (
	"math/big"

	"pdtoken/pkg/domain"
)

// IssuerRecord is the per-identity authorization record.
//
// Invariants:
//   - Position always equals the record's index in the registry's dense list
//   - ExpirationBlock == StartBlock + term length, fixed at authorization
//   - Lifetime counters never decrease while the record exists; they reset
//     only by deletion of the whole record
//
// A record migrates verbatim on authorization transfer (same counters, same
// position) so the inheriting identity carries the full issuance history.
type IssuerRecord struct {
	Address         domain.Address `json:"address"`
	Position        int            `json:"position"`
	StartBlock      uint64         `json:"start_block"`
	ExpirationBlock uint64         `json:"expiration_block"`
	TotalMinted     *big.Int       `json:"total_minted"`
	MintCount       uint64         `json:"mint_count"`
	TotalBurned     *big.Int       `json:"total_burned"`
	BurnCount       uint64         `json:"burn_count"`
}

// NewIssuerRecord creates a fresh record anchored at the current block.
func NewIssuerRecord(addr domain.Address, position int, now, termLength uint64) *IssuerRecord {
	return &IssuerRecord{
		Address:         addr,
		Position:        position,
		StartBlock:      now,
		ExpirationBlock: now + termLength,
		TotalMinted:     new(big.Int),
		TotalBurned:     new(big.Int),
	}
}

// Expired reports whether the term has run out at the given block.
func (r *IssuerRecord) Expired(now uint64) bool {
	return now >= r.ExpirationBlock
}

// EarlyExit reports whether leaving at the given block counts as an early
// exit: less than thresholdPct percent of the term has been served. An early
// exit triggers a cooldown until the original expiration block, so statistics
// cannot be reset sooner than a full natural term.
func (r *IssuerRecord) EarlyExit(now, thresholdPct uint64) bool {
	term := r.ExpirationBlock - r.StartBlock
	return now < r.StartBlock+term*thresholdPct/100
}

// RecordMint bumps the lifetime mint counters.
func (r *IssuerRecord) RecordMint(amount *big.Int) {
	r.TotalMinted.Add(r.TotalMinted, amount)
	r.MintCount++
}

// RecordBurn bumps the lifetime burn counters.
func (r *IssuerRecord) RecordBurn(amount *big.Int) {
	r.TotalBurned.Add(r.TotalBurned, amount)
	r.BurnCount++
}

// Clone returns a deep copy so snapshots handed out of the registry cannot
// alias registry-owned state.
func (r *IssuerRecord) Clone() *IssuerRecord {
	cp := *r
	cp.TotalMinted = new(big.Int).Set(r.TotalMinted)
	cp.TotalBurned = new(big.Int).Set(r.TotalBurned)
	return &cp
}
