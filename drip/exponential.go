// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package drip

import (
	"math/big"

	lru "github.com/hashicorp/golang-lru"

	"github.com/backstopfi/backstop/wad"
)

const factorCacheSize = 1024

// ExponentialModel releases a fixed fraction of the remaining balance per
// second, so the factor follows 1 - e^(-k*elapsed). The per-second decay
// rate is WAD-scaled: rate 0 never releases, rate wad.One releases the
// whole pool after any positive interval.
type ExponentialModel struct {
	ratePerSecond *big.Int
	// continuous decay constant k = -ln(1 - rate), WAD-scaled.
	// nil means infinite decay (rate >= wad.One).
	decayConstant *big.Int

	cache *lru.Cache // elapsed -> *big.Int factor
}

// NewExponential creates an exponential-decay model from a WAD-scaled
// per-second decay rate in [0, wad.One].
func NewExponential(ratePerSecond *big.Int) *ExponentialModel {
	m := &ExponentialModel{ratePerSecond: new(big.Int).Set(ratePerSecond)}
	m.cache, _ = lru.New(factorCacheSize)

	if ratePerSecond.Cmp(wad.One) >= 0 {
		return m
	}
	m.decayConstant = wad.NegLn(new(big.Int).Sub(wad.One, ratePerSecond))
	return m
}

// RatePerSecond returns the configured rate.
func (m *ExponentialModel) RatePerSecond() *big.Int {
	return new(big.Int).Set(m.ratePerSecond)
}

func (m *ExponentialModel) Factor(elapsed uint64, _ *big.Int) *big.Int {
	if elapsed == 0 || m.ratePerSecond.Sign() == 0 {
		return big.NewInt(0)
	}
	if m.decayConstant == nil {
		return new(big.Int).Set(wad.One)
	}
	if cached, ok := m.cache.Get(elapsed); ok {
		return new(big.Int).Set(cached.(*big.Int))
	}

	x := new(big.Int).Mul(m.decayConstant, new(big.Int).SetUint64(elapsed))
	factor := new(big.Int).Sub(wad.One, wad.ExpNeg(x))
	wad.Clamp(factor)

	m.cache.Add(elapsed, new(big.Int).Set(factor))
	return factor
}
