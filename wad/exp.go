// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package wad

import "math/big"

// Rounded-up value of e^-1 scaled by One. Rounding the exponential up keeps
// factors of the form One - ExpNeg(x) rounded down.
var expNegOne = big.NewInt(367879441171442322)

// ExpNeg computes e^-x for a WAD-scaled x >= 0, scaled by One.
// The result is an upper bound of the true value, so the decay factor
// One - ExpNeg(x) never exceeds the exact curve. x <= 0 yields One.
func ExpNeg(x *big.Int) *big.Int {
	if x.Sign() <= 0 {
		return new(big.Int).Set(One)
	}

	intPart := new(big.Int).Quo(x, One)
	if !intPart.IsInt64() || intPart.Int64() > 60 {
		// e^-61 is far below the WAD resolution
		return new(big.Int).Set(big1)
	}
	frac := new(big.Int).Rem(x, One)

	r := expNegFrac(frac)
	for i := int64(0); i < intPart.Int64(); i++ {
		r = MulUp(r, expNegOne)
		if r.Cmp(big1) <= 0 {
			return big.NewInt(1)
		}
	}
	return r
}

var (
	// ln 2 scaled by One, rounded down
	ln2     = big.NewInt(693147180559945309)
	halfOne = big.NewInt(5e17)
)

// NegLn computes -ln(x) for a WAD-scaled x in (0, One], scaled by One.
// Values at or above One yield 0. It calibrates decay constants, so terms
// round toward zero without a directed bound.
func NegLn(x *big.Int) *big.Int {
	if x.Cmp(One) >= 0 {
		return big.NewInt(0)
	}
	if x.Sign() <= 0 {
		panic("wad: NegLn of non-positive value")
	}

	// double into [One/2, One); each doubling contributes ln 2
	q := new(big.Int).Set(x)
	n := int64(0)
	for q.Cmp(halfOne) < 0 {
		q.Lsh(q, 1)
		n++
	}

	// Mercator series for -ln(1-y) at y = 1 - q <= 1/2
	y := new(big.Int).Sub(One, q)
	sum := big.NewInt(0)
	pow := new(big.Int).Set(One)
	term := new(big.Int)
	for k := int64(1); ; k++ {
		pow.Mul(pow, y)
		pow.Quo(pow, One)
		term.Quo(pow, big.NewInt(k))
		if term.Sign() == 0 {
			break
		}
		sum.Add(sum, term)
	}
	return sum.Add(sum, new(big.Int).Mul(ln2, big.NewInt(n)))
}

// expNegFrac evaluates the Taylor series of e^-f for f in [0, One) and
// returns an upper bound of the true value.
func expNegFrac(f *big.Int) *big.Int {
	if f.Sign() == 0 {
		return new(big.Int).Set(One)
	}

	sum := new(big.Int).Set(One)
	term := new(big.Int).Set(One)
	for n := int64(1); ; n++ {
		term.Mul(term, f)
		term.Quo(term, One)
		term.Quo(term, big.NewInt(n))
		if term.Sign() == 0 {
			break
		}
		if n%2 == 1 {
			sum.Sub(sum, term)
		} else {
			sum.Add(sum, term)
		}
	}
	// each truncated term loses at most one unit; bump to stay an upper bound
	sum.Add(sum, big1)
	if sum.Cmp(One) > 0 {
		sum.Set(One)
	}
	return sum
}
