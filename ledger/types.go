// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"fmt"
	"math/big"

	"github.com/backstopfi/backstop/backstop"
	"github.com/backstopfi/backstop/drip"
	"github.com/backstopfi/backstop/wad"
)

type Kind uint8

const (
	KindUnknown Kind = iota // 0 -> default value
	KindReserve             // holds the staked/deposited asset, slashable
	KindReward              // holds a reward asset dripped to stakers
)

func (k Kind) String() string {
	switch k {
	case KindReserve:
		return "reserve"
	case KindReward:
		return "reward"
	default:
		return "unknown"
	}
}

// ParseKind converts the string form back into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "reserve":
		return KindReserve, nil
	case "reward":
		return KindReward, nil
	default:
		return KindUnknown, fmt.Errorf("unknown pool kind %q", s)
	}
}

// PoolID names a pool by kind and position in the module's ordered pool
// sequence.
type PoolID struct {
	Kind  Kind
	Index uint32
}

func (id PoolID) String() string {
	return fmt.Sprintf("%s/%d", id.Kind, id.Index)
}

// Pool is the share-accounting state of one pool.
type Pool struct {
	ID    PoolID
	Asset backstop.AssetID
	Model drip.Model

	TotalBalance      *big.Int // asset units owned by share holders
	TotalShares       *big.Int // outstanding shares, deposits plus stakes
	TotalStakedShares *big.Int // subset of TotalShares held by stakers

	// amounts redeemed into the withdrawal queue but not yet released;
	// no longer part of TotalBalance, still custodied
	PendingWithdrawals *big.Int
	// WAD factor shrunk by every slash so queued withdrawals share losses
	ScaleFactor *big.Int

	LastDripAt uint64

	// reserve pools only: lifetime cap on the slashable fraction
	MaxSlashPct *big.Int
	// remaining slashable amount, fixed when the module is triggered
	SlashBudget *big.Int
}

// SharePrice returns the WAD-scaled price of one share, or wad.One for an
// empty pool.
func (p *Pool) SharePrice() *big.Int {
	if p.TotalShares.Sign() == 0 {
		return new(big.Int).Set(wad.One)
	}
	return wad.DivDown(p.TotalBalance, p.TotalShares)
}

// SharesForDeposit converts a deposit amount into shares at the current
// exchange rate, rounded down. The first depositor mints 1:1. A pool whose
// balance dripped out entirely while shares remain has no exchange rate
// and yields zero shares.
func (p *Pool) SharesForDeposit(amount *big.Int) *big.Int {
	if p.TotalShares.Sign() == 0 {
		return new(big.Int).Set(amount)
	}
	if p.TotalBalance.Sign() == 0 {
		return big.NewInt(0)
	}
	r := new(big.Int).Mul(amount, p.TotalShares)
	return r.Quo(r, p.TotalBalance)
}

// AmountForShares converts shares back into the asset amount at the current
// exchange rate, rounded down.
func (p *Pool) AmountForShares(shares *big.Int) *big.Int {
	if p.TotalShares.Sign() == 0 {
		return big.NewInt(0)
	}
	r := new(big.Int).Mul(shares, p.TotalBalance)
	return r.Quo(r, p.TotalShares)
}

// Position tracks one owner's shares in one pool. Deposited and staked
// shares redeem through different delay paths and only staked shares earn
// reward drips.
type Position struct {
	Shares       *big.Int
	StakedShares *big.Int
}

// IsEmpty returns whether the entry can be treated as empty.
func (pos *Position) IsEmpty() bool {
	return (pos.Shares == nil || pos.Shares.Sign() == 0) &&
		(pos.StakedShares == nil || pos.StakedShares.Sign() == 0)
}
