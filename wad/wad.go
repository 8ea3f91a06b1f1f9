// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package wad implements 18-decimal fixed-point arithmetic on big integers.
// Anything paid out or minted from a pool is rounded down, so precision
// loss always favors the pool over the recipient.
package wad

import (
	"errors"
	"math/big"
	"strings"
)

// One is the WAD unit, 1e18. Treat as read-only.
var One = big.NewInt(1e18)

var (
	big0 = big.NewInt(0)
	big1 = big.NewInt(1)
)

// MulDown returns floor(a * b / One).
func MulDown(a, b *big.Int) *big.Int {
	r := new(big.Int).Mul(a, b)
	return r.Quo(r, One)
}

// MulUp returns ceil(a * b / One).
func MulUp(a, b *big.Int) *big.Int {
	r := new(big.Int).Mul(a, b)
	var m big.Int
	r.QuoRem(r, One, &m)
	if m.Sign() != 0 {
		r.Add(r, big1)
	}
	return r
}

// DivDown returns floor(a * One / b).
func DivDown(a, b *big.Int) *big.Int {
	r := new(big.Int).Mul(a, One)
	return r.Quo(r, b)
}

// Min returns the smaller of a and b as a fresh value.
func Min(a, b *big.Int) *big.Int {
	if a.Cmp(b) < 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}

// Clamp limits v into [0, One] in place and returns it.
func Clamp(v *big.Int) *big.Int {
	if v.Sign() < 0 {
		return v.Set(big0)
	}
	if v.Cmp(One) > 0 {
		return v.Set(One)
	}
	return v
}

// ParseDecimal parses a decimal string like "0.25" or "10" into a
// WAD-scaled integer. At most 18 fractional digits are accepted.
func ParseDecimal(s string) (*big.Int, error) {
	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" && frac == "" {
		return nil, errors.New("empty decimal")
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 18 {
		return nil, errors.New("more than 18 fractional digits")
	}
	w, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return nil, errors.New("invalid decimal: " + s)
	}
	r := new(big.Int).Mul(w, One)
	if frac != "" {
		f, ok := new(big.Int).SetString(frac, 10)
		if !ok || f.Sign() < 0 {
			return nil, errors.New("invalid decimal: " + s)
		}
		for i := len(frac); i < 18; i++ {
			f.Mul(f, big.NewInt(10))
		}
		r.Add(r, f)
	}
	return r, nil
}

// MustParseDecimal is ParseDecimal, panicking on error.
func MustParseDecimal(s string) *big.Int {
	v, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return v
}
