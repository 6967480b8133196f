// Package allocation scores betting candidates with the Kelly criterion and
// distributes a daily budget across races by expected log-growth.
package allocation

import (
	"math"
)

// KellyResult is the optimal stake fraction of a single binary bet and the
// expected log-growth it achieves
type KellyResult struct {
	Fraction   float64 `json:"kelly_fraction"`
	GrowthRate float64 `json:"growth_rate"`
}

// Score computes the Kelly fraction and expected log-growth for a bet won with
// probability p at decimal odds. It reports false when the bet is not attractive:
// expected value at or below evThreshold, a non-positive Kelly fraction, or inputs
// outside p in (0,1] and odds > 1.
func Score(p, odds, evThreshold float64) (KellyResult, bool) {
	if math.IsNaN(p) || math.IsNaN(odds) || math.IsNaN(evThreshold) {
		return KellyResult{}, false
	}
	if p <= 0 || p > 1 || odds <= 1 || math.IsInf(odds, 0) {
		return KellyResult{}, false
	}

	b := odds - 1
	ev := p * odds
	if ev <= evThreshold {
		return KellyResult{}, false
	}

	// f = (bp - q) / b
	f := (p*(b+1) - 1) / b
	f = math.Max(0, math.Min(1, f))
	if f <= 0 {
		return KellyResult{}, false
	}

	return KellyResult{Fraction: f, GrowthRate: GrowthRate(p, odds, f)}, true
}

// GrowthRate returns p*log(1+f*b) + (1-p)*log(1-f) with b = odds-1. The loss term
// is dropped when p == 1 so a certain bet staked in full grows by log(odds).
func GrowthRate(p, odds, f float64) float64 {
	b := odds - 1
	g := p * math.Log1p(f*b)
	if p < 1 {
		g += (1 - p) * math.Log1p(-f)
	}
	return g
}
