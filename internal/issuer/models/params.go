package models

import (
	"fmt"
	"math/big"

	"pdtoken/pkg/domain"
)

// Params are the issuance parameters, fixed at construction. The hardened
// deployment variant has no runtime knob to change them.
type Params struct {
	// Controller is the controller's own identity. Mints to it and
	// authorization transfers to it are rejected.
	Controller domain.Address
	// MaxIssuers caps concurrent authorizations.
	MaxIssuers int
	// TermLength is the authorization validity window in blocks.
	TermLength uint64
	// BaseFactor is the global mint ceiling, parts-per-10000 of supply.
	BaseFactor uint64
	// SupplyFloor is the minimum total supply topped up on mint calls.
	SupplyFloor *big.Int
	// CooldownThresholdPct is the served-term percentage below which a
	// voluntary exit triggers a cooldown.
	CooldownThresholdPct uint64
}

// Validate checks parameter sanity once, at wiring time.
func (p Params) Validate() error {
	if p.MaxIssuers <= 0 {
		return fmt.Errorf("max issuers must be positive, got %d", p.MaxIssuers)
	}
	if p.TermLength == 0 {
		return fmt.Errorf("term length must be positive")
	}
	if p.BaseFactor == 0 || p.BaseFactor > 10_000 {
		return fmt.Errorf("base factor must be in (0, 10000], got %d", p.BaseFactor)
	}
	if p.SupplyFloor == nil || p.SupplyFloor.Sign() < 0 {
		return fmt.Errorf("supply floor must be a non-negative integer")
	}
	if p.CooldownThresholdPct > 100 {
		return fmt.Errorf("cooldown threshold must be at most 100, got %d", p.CooldownThresholdPct)
	}
	return nil
}
