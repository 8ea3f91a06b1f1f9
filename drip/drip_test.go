// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package drip

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backstopfi/backstop/wad"
)

const secondsPerYear = 365 * 24 * 3600

func TestConstantFactor(t *testing.T) {
	pool := big.NewInt(1000)
	m := NewConstant(big.NewInt(10))

	assert.Equal(t, big.NewInt(0), m.Factor(0, pool))
	assert.Equal(t, big.NewInt(5e16), m.Factor(5, pool))
	assert.Equal(t, big.NewInt(1e17), m.Factor(10, pool))
	assert.Equal(t, big.NewInt(25e16), m.Factor(25, pool))
	assert.Equal(t, big.NewInt(5e17), m.Factor(50, pool))
	assert.Equal(t, wad.One, m.Factor(100, pool))

	// never exceeds one regardless of elapsed time
	assert.Equal(t, wad.One, m.Factor(1_000_000, pool))
}

func TestConstantFactorEdges(t *testing.T) {
	pool := big.NewInt(1000)

	zero := NewConstant(big.NewInt(0))
	assert.Equal(t, big.NewInt(0), zero.Factor(1_000_000, pool))

	// rate >= total per second drains the pool after one second
	fast := NewConstant(big.NewInt(1000))
	assert.Equal(t, wad.One, fast.Factor(1, pool))

	// empty pool releases nothing
	m := NewConstant(big.NewInt(10))
	assert.Equal(t, big.NewInt(0), m.Factor(100, big.NewInt(0)))
}

// rate corresponding to a 25% release per year
func annualQuarterRate(t *testing.T) *big.Int {
	t.Helper()
	r := 1 - math.Pow(0.75, 1.0/float64(secondsPerYear))
	rate, err := wad.ParseDecimal(big.NewFloat(r).Text('f', 18))
	require.NoError(t, err)
	return rate
}

func asFloat(factor *big.Int) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(factor), new(big.Float).SetInt(wad.One)).Float64()
	return f
}

func TestExponentialFactorCurve(t *testing.T) {
	m := NewExponential(annualQuarterRate(t))

	tests := []struct {
		elapsed uint64
		want    float64
		delta   float64
	}{
		{0, 0, 0},
		{secondsPerYear / 20, 0.0143, 0.0002},
		{secondsPerYear / 10, 0.0284, 0.0002},
		{secondsPerYear / 4, 0.0694, 0.0002},
		{secondsPerYear / 2, 0.134, 0.0005},
		{secondsPerYear, 0.25, 0.0005},
	}
	for _, tt := range tests {
		got := m.Factor(tt.elapsed, nil)
		assert.InDelta(t, tt.want, asFloat(got), tt.delta, "elapsed %d", tt.elapsed)
	}
}

func TestExponentialFactorEdges(t *testing.T) {
	zero := NewExponential(big.NewInt(0))
	assert.Equal(t, big.NewInt(0), zero.Factor(0, nil))
	assert.Equal(t, big.NewInt(0), zero.Factor(secondsPerYear, nil))

	max := NewExponential(wad.One)
	assert.Equal(t, big.NewInt(0), max.Factor(0, nil))
	assert.Equal(t, wad.One, max.Factor(1, nil))
	assert.Equal(t, wad.One, max.Factor(secondsPerYear, nil))
}

func TestExponentialFactorNeverReachesOne(t *testing.T) {
	m := NewExponential(annualQuarterRate(t))

	factor := m.Factor(100*secondsPerYear, nil)
	assert.True(t, factor.Cmp(wad.One) < 0)
	assert.True(t, factor.Cmp(big.NewInt(0)) > 0)
}

func TestExponentialFactorCached(t *testing.T) {
	m := NewExponential(annualQuarterRate(t))

	first := m.Factor(1000, nil)
	first.Add(first, big.NewInt(1)) // caller mutation must not leak into the cache
	second := m.Factor(1000, nil)

	assert.Equal(t, new(big.Int).Sub(first, big.NewInt(1)), second)
}
