// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package drip defines the rate curves that gate how fast value is released
// from a pool. Models are pure: the pool keeps the settlement timestamp and
// hands the elapsed interval in.
package drip

import "math/big"

// Model maps an elapsed interval and the current pool balance to the
// WAD-scaled fraction of the balance that should be released.
type Model interface {
	// Factor returns a fraction in [0, wad.One]. It is exactly zero at
	// elapsed == 0.
	Factor(elapsed uint64, poolAmount *big.Int) *big.Int
}
