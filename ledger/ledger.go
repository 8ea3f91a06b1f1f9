// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger implements share accounting for the module's reserve and
// reward pools. It is pure bookkeeping: authorization, state gating and the
// actual asset custody live with the callers.
package ledger

import (
	"fmt"
	"math/big"

	"github.com/pkg/errors"

	"github.com/backstopfi/backstop/backstop"
	"github.com/backstopfi/backstop/drip"
	"github.com/backstopfi/backstop/wad"
)

type positionKey struct {
	pool  PoolID
	owner backstop.Address
}

// Ledger owns the ordered pool sequences and all depositor positions.
type Ledger struct {
	reserve   []*Pool
	reward    []*Pool
	positions map[positionKey]*Position
}

func New() *Ledger {
	return &Ledger{positions: make(map[positionKey]*Position)}
}

// AddReservePool appends a reserve pool and returns it. maxSlashPct is the
// WAD-scaled lifetime slash cap.
func (l *Ledger) AddReservePool(asset backstop.AssetID, model drip.Model, maxSlashPct *big.Int, now uint64) *Pool {
	p := newPool(PoolID{KindReserve, uint32(len(l.reserve))}, asset, model, now)
	p.MaxSlashPct = new(big.Int).Set(maxSlashPct)
	l.reserve = append(l.reserve, p)
	return p
}

// AddRewardPool appends a reward pool and returns it.
func (l *Ledger) AddRewardPool(asset backstop.AssetID, model drip.Model, now uint64) *Pool {
	p := newPool(PoolID{KindReward, uint32(len(l.reward))}, asset, model, now)
	l.reward = append(l.reward, p)
	return p
}

func newPool(id PoolID, asset backstop.AssetID, model drip.Model, now uint64) *Pool {
	return &Pool{
		ID:                 id,
		Asset:              asset,
		Model:              model,
		TotalBalance:       big.NewInt(0),
		TotalShares:        big.NewInt(0),
		TotalStakedShares:  big.NewInt(0),
		PendingWithdrawals: big.NewInt(0),
		ScaleFactor:        new(big.Int).Set(wad.One),
		LastDripAt:         now,
	}
}

// Pool resolves a pool id.
func (l *Ledger) Pool(id PoolID) (*Pool, error) {
	var seq []*Pool
	switch id.Kind {
	case KindReserve:
		seq = l.reserve
	case KindReward:
		seq = l.reward
	default:
		return nil, errors.Wrapf(backstop.ErrUnknownPool, "kind %d", id.Kind)
	}
	if int(id.Index) >= len(seq) {
		return nil, errors.Wrap(backstop.ErrUnknownPool, id.String())
	}
	return seq[id.Index], nil
}

// ReservePools returns the ordered reserve pool sequence.
func (l *Ledger) ReservePools() []*Pool {
	return l.reserve
}

// RewardPools returns the ordered reward pool sequence.
func (l *Ledger) RewardPools() []*Pool {
	return l.reward
}

// Position returns the position of owner in the given pool, or an empty one.
func (l *Ledger) Position(id PoolID, owner backstop.Address) *Position {
	if pos, ok := l.positions[positionKey{id, owner}]; ok {
		return pos
	}
	return &Position{Shares: big.NewInt(0), StakedShares: big.NewInt(0)}
}

// Deposit mints shares of the pool for receiver against amount. With staked
// set, the shares earn reward drips and redeem through the unstake path.
func (l *Ledger) Deposit(id PoolID, amount *big.Int, receiver backstop.Address, staked bool) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, backstop.ErrZeroAmount
	}
	p, err := l.Pool(id)
	if err != nil {
		return nil, err
	}
	if p.TotalShares.Sign() > 0 && p.TotalBalance.Sign() == 0 {
		// fully dripped out while shares remain: no exchange rate exists
		return nil, errors.Wrapf(backstop.ErrInvalidState, "pool %s has no balance behind %s shares", id, p.TotalShares)
	}

	shares := p.SharesForDeposit(amount)
	if shares.Sign() == 0 {
		// amount too small for one share at the current price
		return nil, backstop.ErrZeroAmount
	}
	p.TotalBalance.Add(p.TotalBalance, amount)
	p.TotalShares.Add(p.TotalShares, shares)

	key := positionKey{id, receiver}
	pos, ok := l.positions[key]
	if !ok {
		pos = &Position{Shares: big.NewInt(0), StakedShares: big.NewInt(0)}
		l.positions[key] = pos
	}
	if staked {
		pos.StakedShares.Add(pos.StakedShares, shares)
		p.TotalStakedShares.Add(p.TotalStakedShares, shares)
	} else {
		pos.Shares.Add(pos.Shares, shares)
	}
	return shares, nil
}

// Redeem burns the owner's shares and removes the corresponding amount from
// the pool at the current share price, rounded down. With queued set the
// amount is parked in the pool's pending-withdrawal bucket instead of being
// released immediately.
func (l *Ledger) Redeem(id PoolID, owner backstop.Address, shares *big.Int, staked, queued bool) (*big.Int, error) {
	if shares == nil || shares.Sign() <= 0 {
		return nil, backstop.ErrZeroAmount
	}
	p, err := l.Pool(id)
	if err != nil {
		return nil, err
	}
	key := positionKey{id, owner}
	pos, ok := l.positions[key]
	if !ok {
		return nil, errors.Wrapf(backstop.ErrInsufficientShares, "no position in %s", id)
	}
	bucket := pos.Shares
	if staked {
		bucket = pos.StakedShares
	}
	if bucket.Cmp(shares) < 0 {
		return nil, errors.Wrapf(backstop.ErrInsufficientShares, "have %s, want %s", bucket, shares)
	}

	amount := p.AmountForShares(shares)
	bucket.Sub(bucket, shares)
	p.TotalShares.Sub(p.TotalShares, shares)
	p.TotalBalance.Sub(p.TotalBalance, amount)
	if staked {
		p.TotalStakedShares.Sub(p.TotalStakedShares, shares)
	}
	if pos.IsEmpty() {
		delete(l.positions, key)
	}
	if queued {
		p.PendingWithdrawals.Add(p.PendingWithdrawals, amount)
	}
	return amount, nil
}

// ReleasePending removes a released withdrawal amount from the pool's
// pending bucket.
func (l *Ledger) ReleasePending(id PoolID, amount *big.Int) error {
	p, err := l.Pool(id)
	if err != nil {
		return err
	}
	if p.PendingWithdrawals.Cmp(amount) < 0 {
		return errors.Wrapf(backstop.ErrInsufficientBalance, "pending %s, release %s", p.PendingWithdrawals, amount)
	}
	p.PendingWithdrawals.Sub(p.PendingWithdrawals, amount)
	return nil
}

// SettleDrip applies the pool's drip model over the interval since the last
// settlement and returns the released amount. A zero interval is a no-op.
// The settlement timestamp always advances, so an observed idle period never
// accumulates backlogged decay.
func (l *Ledger) SettleDrip(id PoolID, now uint64) (*big.Int, error) {
	p, err := l.Pool(id)
	if err != nil {
		return nil, err
	}
	amount := dripAmount(p, now)
	p.TotalBalance.Sub(p.TotalBalance, amount)
	p.LastDripAt = now
	return amount, nil
}

// PreviewDrip computes the amount SettleDrip would release at the given
// time without mutating the pool.
func (l *Ledger) PreviewDrip(id PoolID, now uint64) (*big.Int, error) {
	p, err := l.Pool(id)
	if err != nil {
		return nil, err
	}
	return dripAmount(p, now), nil
}

func dripAmount(p *Pool, now uint64) *big.Int {
	if now < p.LastDripAt {
		panic(fmt.Sprintf("clock moved backwards: pool %s settled at %d, now %d", p.ID, p.LastDripAt, now))
	}
	elapsed := now - p.LastDripAt
	if elapsed == 0 {
		return big.NewInt(0)
	}
	factor := p.Model.Factor(elapsed, p.TotalBalance)
	return wad.MulDown(factor, p.TotalBalance)
}

// Deduct removes a paid-out amount from the pool balance without touching
// shares. Reward claims use it: the claimed amount dilutes the remaining
// share value instead of burning shares.
func (l *Ledger) Deduct(id PoolID, amount *big.Int) error {
	p, err := l.Pool(id)
	if err != nil {
		return err
	}
	if p.TotalBalance.Cmp(amount) < 0 {
		return errors.Wrapf(backstop.ErrInsufficientBalance, "deduct %s of %s", amount, p.TotalBalance)
	}
	p.TotalBalance.Sub(p.TotalBalance, amount)
	return nil
}

// Slash removes slashed from the pool balance and cuts the queued
// withdrawals by the same fraction, folding the cut into the pool's scale
// factor. It returns the extra amount taken from the pending bucket; both
// parts belong to the slash payout.
func (l *Ledger) Slash(id PoolID, slashed *big.Int) (*big.Int, error) {
	p, err := l.Pool(id)
	if err != nil {
		return nil, err
	}
	if slashed.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if p.TotalBalance.Cmp(slashed) < 0 {
		return nil, errors.Wrapf(backstop.ErrInsufficientBalance, "slash %s of %s", slashed, p.TotalBalance)
	}

	// fraction removed, rounded down so holders keep the dust
	f := wad.DivDown(slashed, p.TotalBalance)
	keep := new(big.Int).Sub(wad.One, f)

	p.TotalBalance.Sub(p.TotalBalance, slashed)

	pendingCut := big.NewInt(0)
	if p.PendingWithdrawals.Sign() > 0 {
		kept := wad.MulUp(p.PendingWithdrawals, keep)
		pendingCut.Sub(p.PendingWithdrawals, kept)
		p.PendingWithdrawals.Set(kept)
	}
	p.ScaleFactor = wad.MulUp(p.ScaleFactor, keep)
	return pendingCut, nil
}
