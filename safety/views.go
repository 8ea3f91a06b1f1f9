// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package safety

import (
	"math/big"

	"github.com/backstopfi/backstop/backstop"
	"github.com/backstopfi/backstop/ledger"
	"github.com/backstopfi/backstop/trigger"
)

// PoolView is a detached snapshot of one pool, safe to hold outside the
// module lock.
type PoolView struct {
	ID                 string           `json:"id"`
	Asset              backstop.AssetID `json:"asset"`
	TotalBalance       *big.Int         `json:"totalBalance"`
	TotalShares        *big.Int         `json:"totalShares"`
	TotalStakedShares  *big.Int         `json:"totalStakedShares"`
	PendingWithdrawals *big.Int         `json:"pendingWithdrawals"`
	ScaleFactor        *big.Int         `json:"scaleFactor"`
	LastDripAt         uint64           `json:"lastDripAt"`
	PendingDrip        *big.Int         `json:"pendingDrip"`
	MaxSlashPct        *big.Int         `json:"maxSlashPct,omitempty"`
	SlashBudget        *big.Int         `json:"slashBudget,omitempty"`
}

func (m *Module) snapshotPool(p *ledger.Pool, now uint64) *PoolView {
	v := &PoolView{
		ID:                 p.ID.String(),
		Asset:              p.Asset,
		TotalBalance:       new(big.Int).Set(p.TotalBalance),
		TotalShares:        new(big.Int).Set(p.TotalShares),
		TotalStakedShares:  new(big.Int).Set(p.TotalStakedShares),
		PendingWithdrawals: new(big.Int).Set(p.PendingWithdrawals),
		ScaleFactor:        new(big.Int).Set(p.ScaleFactor),
		LastDripAt:         p.LastDripAt,
	}
	if drip, err := m.ledger.PreviewDrip(p.ID, now); err == nil {
		v.PendingDrip = drip
	}
	if p.MaxSlashPct != nil {
		v.MaxSlashPct = new(big.Int).Set(p.MaxSlashPct)
	}
	if p.SlashBudget != nil {
		v.SlashBudget = new(big.Int).Set(p.SlashBudget)
	}
	return v
}

// State returns the current gate state.
func (m *Module) State() trigger.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gate.State()
}

// Initialized reports whether Initialize has run.
func (m *Module) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

// Owner returns the module owner.
func (m *Module) Owner() backstop.Address {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.owner
}

// FeeCollector returns the fee drip recipient.
func (m *Module) FeeCollector() backstop.Address {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.feeCollector
}

// CurrentDelays returns the configured time locks.
func (m *Module) CurrentDelays() Delays {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.delays
}

// PoolViews snapshots every pool, reserves first.
func (m *Module) PoolViews() []*PoolView {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	var views []*PoolView
	for _, p := range m.ledger.ReservePools() {
		views = append(views, m.snapshotPool(p, now))
	}
	for _, p := range m.ledger.RewardPools() {
		views = append(views, m.snapshotPool(p, now))
	}
	return views
}

// PoolView snapshots one pool.
func (m *Module) PoolView(id ledger.PoolID) (*PoolView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.ledger.Pool(id)
	if err != nil {
		return nil, err
	}
	return m.snapshotPool(p, m.clock.Now()), nil
}

// Withdrawal returns a copy of a queued withdrawal record.
func (m *Module) Withdrawal(id backstop.Bytes32) (*Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.withdrawals[id]
	if !ok {
		return nil, backstop.ErrWithdrawalNotFound
	}
	cp := *w
	cp.Shares = new(big.Int).Set(w.Shares)
	cp.Amount = new(big.Int).Set(w.Amount)
	cp.ScaleSnapshot = new(big.Int).Set(w.ScaleSnapshot)
	return &cp, nil
}

// Position returns copies of the owner's share balances in the pool.
func (m *Module) Position(id ledger.PoolID, owner backstop.Address) (shares, stakedShares *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos := m.ledger.Position(id, owner)
	return new(big.Int).Set(pos.Shares), new(big.Int).Set(pos.StakedShares)
}

// FiredTrigger returns the trigger that tripped the gate, if any.
func (m *Module) FiredTrigger() (backstop.Bytes32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.firedTrigger, m.gate.State() == trigger.StateTriggered
}

// PendingConfigWindow reports the execution window of a scheduled config
// update.
func (m *Module) PendingConfigWindow() (notBefore, expiresAt uint64, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending == nil {
		return 0, 0, false
	}
	return m.pending.notBefore, m.pending.expiresAt, true
}
