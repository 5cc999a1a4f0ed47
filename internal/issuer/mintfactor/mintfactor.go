// Package mintfactor computes the per-issuer mint ceiling as a pure function
// of the issuer's lifetime statistics and the current supply. All arithmetic
// is scaled-integer with truncating division; the truncation direction is
// part of the observable contract (issuers get the floor of their
// entitlement), so floating point must never be substituted here.
package mintfactor

import "math/big"

// Scale is the fixed-point denominator: factors are parts-per-10000.
const Scale = 10_000

const (
	// DefaultBurnBonus is the headroom restored per satisfied burn
	// condition, in scale units (1% of supply each).
	DefaultBurnBonus = 100
	// DefaultLowMintThreshold is the average-percent-mint level under
	// which an issuer counts as conservative (2% scaled).
	DefaultLowMintThreshold = 200
)

// Params tune the calculation. BaseFactor is the global ceiling; BurnBonus
// and LowMintThreshold default when zero.
type Params struct {
	BaseFactor       uint64
	BurnBonus        uint64
	LowMintThreshold uint64
}

// History is the slice of an issuer record the calculation depends on.
type History struct {
	TotalMinted *big.Int
	MintCount   uint64
	TotalBurned *big.Int
	BurnCount   uint64
}

// Factor returns the maximum fraction of current supply the issuer may mint
// in one action, in Scale units. The result never exceeds p.BaseFactor for
// any reachable history.
func Factor(h History, supply *big.Int, p Params) uint64 {
	if p.BurnBonus == 0 {
		p.BurnBonus = DefaultBurnBonus
	}
	if p.LowMintThreshold == 0 {
		p.LowMintThreshold = DefaultLowMintThreshold
	}

	// Bootstrap: with no supply there is no history worth weighing.
	if supply == nil || supply.Sign() == 0 {
		return p.BaseFactor
	}

	totalMinted := orZero(h.TotalMinted)
	totalBurned := orZero(h.TotalBurned)

	avgMint := average(totalMinted, h.MintCount)
	avgBurn := average(totalBurned, h.BurnCount)

	// avgPercentMint = avgMint * Scale / supply, truncated.
	avgPercentMint := new(big.Int).Mul(avgMint, big.NewInt(Scale))
	avgPercentMint.Quo(avgPercentMint, supply)

	// An issuer historically minting at or above the base rate loses all
	// headroom from this term.
	base := new(big.Int).SetUint64(p.BaseFactor)
	adjusted := new(big.Int)
	if avgPercentMint.Cmp(base) < 0 {
		adjusted.Sub(base, avgPercentMint)
	}

	// Burn-heavy issuers earn headroom back, one bonus per condition.
	bonus := new(big.Int)
	burnBonus := new(big.Int).SetUint64(p.BurnBonus)
	if totalBurned.Cmp(totalMinted) >= 0 {
		bonus.Add(bonus, burnBonus)
	}
	if avgBurn.Cmp(avgMint) >= 0 {
		bonus.Add(bonus, burnBonus)
	}
	if avgPercentMint.Cmp(new(big.Int).SetUint64(p.LowMintThreshold)) < 0 {
		bonus.Add(bonus, burnBonus)
	}

	result := adjusted.Add(adjusted, bonus)
	if result.Cmp(base) > 0 {
		return p.BaseFactor
	}
	return result.Uint64()
}

// MaxMintable converts a factor into an absolute amount of current supply,
// truncated.
func MaxMintable(factor uint64, supply *big.Int) *big.Int {
	if supply == nil || supply.Sign() == 0 {
		return new(big.Int)
	}
	out := new(big.Int).Mul(supply, new(big.Int).SetUint64(factor))
	return out.Quo(out, big.NewInt(Scale))
}

// average truncates toward zero; zero when there are no samples. This is
// intentional integer-division semantics, not a rounding bug.
func average(total *big.Int, count uint64) *big.Int {
	if count == 0 {
		return new(big.Int)
	}
	return new(big.Int).Quo(total, new(big.Int).SetUint64(count))
}

func orZero(n *big.Int) *big.Int {
	if n == nil {
		return new(big.Int)
	}
	return n
}
