// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package drip

import (
	"math/big"

	"github.com/backstopfi/backstop/wad"
)

// ConstantModel releases a flat amount of asset units per second. Once the
// implied release covers the whole pool the factor saturates at one.
type ConstantModel struct {
	ratePerSecond *big.Int
}

// NewConstant creates a constant-rate model. ratePerSecond is denominated
// in asset base units.
func NewConstant(ratePerSecond *big.Int) *ConstantModel {
	return &ConstantModel{ratePerSecond: new(big.Int).Set(ratePerSecond)}
}

// RatePerSecond returns the configured rate.
func (m *ConstantModel) RatePerSecond() *big.Int {
	return new(big.Int).Set(m.ratePerSecond)
}

func (m *ConstantModel) Factor(elapsed uint64, poolAmount *big.Int) *big.Int {
	if elapsed == 0 || m.ratePerSecond.Sign() == 0 || poolAmount.Sign() == 0 {
		return big.NewInt(0)
	}
	released := new(big.Int).Mul(m.ratePerSecond, new(big.Int).SetUint64(elapsed))
	if released.Cmp(poolAmount) >= 0 {
		return new(big.Int).Set(wad.One)
	}
	return wad.DivDown(released, poolAmount)
}
