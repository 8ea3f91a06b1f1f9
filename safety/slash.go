// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package safety

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/backstopfi/backstop/backstop"
	"github.com/backstopfi/backstop/events"
	"github.com/backstopfi/backstop/ledger"
	"github.com/backstopfi/backstop/trigger"
	"github.com/backstopfi/backstop/wad"
)

// Trigger trips the gate for the named risk condition. Only the trigger's
// registered oracle address may call it, and the oracle must report the
// condition as live. Tripping fixes every reserve pool's slash budget at
// balance * MaxSlashPct; later deposits never raise it.
func (m *Module) Trigger(caller backstop.Address, id backstop.Bytes32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guard(trigger.OpTrigger); err != nil {
		return err
	}
	t, ok := m.triggers[id]
	if !ok {
		return errors.Wrapf(backstop.ErrInvalidState, "unknown trigger %s", id.AbbrevString())
	}
	if caller != t.Oracle {
		return errors.Wrapf(backstop.ErrUnauthorized, "%s is not the oracle of %s", caller, id.AbbrevString())
	}
	if !m.oracle.IsTriggered(id) {
		return errors.Wrapf(backstop.ErrInvalidState, "condition %s not met", id.AbbrevString())
	}
	if err := m.gate.Trip(); err != nil {
		return err
	}

	for _, p := range m.ledger.ReservePools() {
		p.SlashBudget = wad.MulDown(p.MaxSlashPct, p.TotalBalance)
	}
	m.firedTrigger = id
	m.payoutHandler = t.PayoutHandler

	logger.Warn("module triggered", "trigger", id.AbbrevString(), "payoutHandler", t.PayoutHandler)
	metricStateGauge().Set(int64(trigger.StateTriggered))
	m.done(trigger.OpTrigger)
	m.emit(&events.Event{Kind: events.KindTriggered, Account: caller, Ref: &id, Time: m.clock.Now()})
	return nil
}

// Slash removes up to amount from a triggered reserve pool and pays it to
// the fired trigger's payout handler. The request is clamped to the pool's
// remaining slash budget; the pool's queued withdrawals are cut by the same
// fraction and that cut joins the payout.
func (m *Module) Slash(caller backstop.Address, pool ledger.PoolID, amount *big.Int) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guard(trigger.OpSlash); err != nil {
		return nil, err
	}
	if caller != m.payoutHandler && !m.auth.IsAuthorized(caller, RolePayoutHandler) {
		return nil, errors.Wrapf(backstop.ErrUnauthorized, "%s slashing", caller)
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, backstop.ErrZeroAmount
	}
	if pool.Kind != ledger.KindReserve {
		return nil, errors.Wrapf(backstop.ErrInvalidState, "slash targets a reserve pool, got %s", pool)
	}
	p, err := m.ledger.Pool(pool)
	if err != nil {
		return nil, err
	}
	if p.SlashBudget == nil || p.SlashBudget.Sign() == 0 {
		return nil, errors.Wrapf(backstop.ErrInsufficientBalance, "slash budget of %s exhausted", pool)
	}

	slashed := wad.Min(amount, wad.Min(p.SlashBudget, p.TotalBalance))
	pendingCut, err := m.ledger.Slash(pool, slashed)
	if err != nil {
		return nil, err
	}
	p.SlashBudget.Sub(p.SlashBudget, slashed)
	paid := new(big.Int).Add(slashed, pendingCut)

	if err := m.vault.TransferOut(p.Asset, m.payoutHandler, paid); err != nil {
		logger.Error("custody transfer failed after slash", "pool", pool, "err", err)
		return nil, err
	}
	logger.Warn("pool slashed", "pool", pool, "amount", paid, "budgetLeft", p.SlashBudget)
	m.done(trigger.OpSlash)
	fired := m.firedTrigger
	m.emit(&events.Event{
		Kind: events.KindSlashed, Pool: pool.String(),
		Account: m.payoutHandler, Asset: p.Asset,
		Amount: paid, Ref: &fired,
		Time: m.clock.Now(),
	})
	return paid, nil
}

// Sweep is one asset's emergency payout.
type Sweep struct {
	Asset  backstop.AssetID
	Amount *big.Int
}

// EmergencyWithdraw drains every pool, queued withdrawals included, to the
// receiver in one batched sweep per asset. Owner only, Triggered only.
func (m *Module) EmergencyWithdraw(caller, receiver backstop.Address) ([]Sweep, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guard(trigger.OpEmergencyWithdraw); err != nil {
		return nil, err
	}
	if !m.isOwner(caller) {
		return nil, errors.Wrapf(backstop.ErrUnauthorized, "%s emergency withdrawing", caller)
	}

	// aggregate per asset in pool order so the sweep sequence is stable
	var sweeps []Sweep
	index := make(map[backstop.AssetID]int)
	drain := func(p *ledger.Pool) {
		total := new(big.Int).Add(p.TotalBalance, p.PendingWithdrawals)
		if total.Sign() == 0 {
			return
		}
		p.TotalBalance.SetInt64(0)
		p.PendingWithdrawals.SetInt64(0)
		if i, ok := index[p.Asset]; ok {
			sweeps[i].Amount.Add(sweeps[i].Amount, total)
			return
		}
		index[p.Asset] = len(sweeps)
		sweeps = append(sweeps, Sweep{Asset: p.Asset, Amount: total})
	}
	for _, p := range m.ledger.ReservePools() {
		drain(p)
	}
	for _, p := range m.ledger.RewardPools() {
		drain(p)
	}

	now := m.clock.Now()
	for _, s := range sweeps {
		if err := m.vault.TransferOut(s.Asset, receiver, s.Amount); err != nil {
			logger.Error("custody transfer failed during emergency sweep", "asset", s.Asset, "err", err)
			return nil, err
		}
		m.emit(&events.Event{
			Kind: events.KindEmergencyWithdrawal,
			Account: receiver, Asset: s.Asset,
			Amount: s.Amount, Time: now,
		})
	}
	logger.Warn("emergency withdrawal", "receiver", receiver, "assets", len(sweeps))
	m.done(trigger.OpEmergencyWithdraw)
	return sweeps, nil
}
