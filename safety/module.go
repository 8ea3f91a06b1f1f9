// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package safety composes the ledger, the trigger gate, the withdrawal
// queue and the slash engine into the externally callable module. A single
// mutex serializes every operation; all guards run before the first
// mutation and the custody transfer is the last action of an operation.
package safety

import (
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/backstopfi/backstop/backstop"
	"github.com/backstopfi/backstop/custody"
	"github.com/backstopfi/backstop/events"
	"github.com/backstopfi/backstop/ledger"
	"github.com/backstopfi/backstop/log"
	"github.com/backstopfi/backstop/trigger"
	"github.com/backstopfi/backstop/wad"
)

var logger = log.WithContext("pkg", "safety")

type claimKey struct {
	reward  ledger.PoolID
	reserve ledger.PoolID
	owner   backstop.Address
}

// Module is the root of the treasury. It owns all bookkeeping state and
// delegates authorization, custody, trigger conditions and time to injected
// collaborators.
type Module struct {
	mu sync.Mutex

	clock  backstop.Clock
	vault  custody.Vault
	auth   Authorizer
	oracle trigger.Oracle
	hub    events.Hub

	initialized  bool
	owner        backstop.Address
	feeCollector backstop.Address
	delays       Delays

	ledger   *ledger.Ledger
	gate     *trigger.Gate
	triggers map[backstop.Bytes32]*trigger.Trigger

	// set when the gate trips
	firedTrigger  backstop.Bytes32
	payoutHandler backstop.Address

	withdrawals   map[backstop.Bytes32]*Withdrawal
	withdrawalSeq uint64

	lastClaims map[claimKey]uint64

	pending *pendingConfig
}

// New wires a module to its collaborators. The module is unusable until
// Initialize has run.
func New(clock backstop.Clock, vault custody.Vault, auth Authorizer, oracle trigger.Oracle) *Module {
	return &Module{
		clock:       clock,
		vault:       vault,
		auth:        auth,
		oracle:      oracle,
		ledger:      ledger.New(),
		gate:        trigger.NewGate(),
		triggers:    make(map[backstop.Bytes32]*trigger.Trigger),
		withdrawals: make(map[backstop.Bytes32]*Withdrawal),
		lastClaims:  make(map[claimKey]uint64),
	}
}

// Hub returns the module's event hub for subscriptions.
func (m *Module) Hub() *events.Hub {
	return &m.hub
}

// Initialize configures the module exactly once.
func (m *Module) Initialize(params *Params) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return backstop.ErrAlreadyInitialized
	}
	if err := params.validate(); err != nil {
		return err
	}

	now := m.clock.Now()
	for _, pc := range params.ReservePools {
		m.ledger.AddReservePool(pc.Asset, pc.Model, pc.MaxSlashPct, now)
	}
	for _, pc := range params.RewardPools {
		m.ledger.AddRewardPool(pc.Asset, pc.Model, now)
	}
	for i := range params.Triggers {
		t := params.Triggers[i]
		m.triggers[t.ID] = &t
	}
	m.owner = params.Owner
	m.feeCollector = params.FeeCollector
	m.delays = params.Delays
	m.initialized = true

	logger.Info("initialized",
		"owner", m.owner,
		"reservePools", len(params.ReservePools),
		"rewardPools", len(params.RewardPools),
		"triggers", len(params.Triggers))
	m.emit(&events.Event{Kind: events.KindInitialized, Account: m.owner, Time: now})
	return nil
}

// guard checks initialization and the gate; it must pass before any
// mutation.
func (m *Module) guard(op trigger.Op) error {
	if !m.initialized {
		return errors.Wrap(backstop.ErrInvalidState, "not initialized")
	}
	if err := m.gate.Allows(op); err != nil {
		metricOpFailureCounter().AddWithLabel(1, map[string]string{"op": op.String()})
		return err
	}
	return nil
}

func (m *Module) isOwner(caller backstop.Address) bool {
	return caller == m.owner || m.auth.IsAuthorized(caller, RoleOwner)
}

func (m *Module) emit(ev *events.Event) {
	m.hub.Publish(ev)
}

func (m *Module) done(op trigger.Op) {
	metricOpCounter().AddWithLabel(1, map[string]string{"op": op.String()})
}

// Deposit mints unstaked shares of the pool for receiver. Anyone may
// deposit; the assets are assumed custodied by the vault already.
func (m *Module) Deposit(caller backstop.Address, pool ledger.PoolID, amount *big.Int, receiver backstop.Address) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guard(trigger.OpDeposit); err != nil {
		return nil, err
	}
	shares, err := m.ledger.Deposit(pool, amount, receiver, false)
	if err != nil {
		return nil, err
	}
	p, _ := m.ledger.Pool(pool)
	m.done(trigger.OpDeposit)
	m.emit(&events.Event{
		Kind: events.KindDeposit, Pool: pool.String(),
		Account: receiver, Asset: p.Asset,
		Amount: new(big.Int).Set(amount), Shares: shares,
		Time: m.clock.Now(),
	})
	return shares, nil
}

// Stake mints staked shares of a reserve pool for receiver. Staked shares
// earn reward drips and redeem through the unstake delay.
func (m *Module) Stake(caller backstop.Address, pool ledger.PoolID, amount *big.Int, receiver backstop.Address) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guard(trigger.OpStake); err != nil {
		return nil, err
	}
	if pool.Kind != ledger.KindReserve {
		return nil, errors.Wrapf(backstop.ErrInvalidState, "stake targets a reserve pool, got %s", pool)
	}
	shares, err := m.ledger.Deposit(pool, amount, receiver, true)
	if err != nil {
		return nil, err
	}
	p, _ := m.ledger.Pool(pool)

	// open reward windows for a first-time staker so nothing accrues from
	// before the stake
	now := m.clock.Now()
	for _, rp := range m.ledger.RewardPools() {
		key := claimKey{rp.ID, pool, receiver}
		if _, ok := m.lastClaims[key]; !ok {
			m.lastClaims[key] = now
		}
	}

	m.done(trigger.OpStake)
	m.emit(&events.Event{
		Kind: events.KindStake, Pool: pool.String(),
		Account: receiver, Asset: p.Asset,
		Amount: new(big.Int).Set(amount), Shares: shares,
		Time: now,
	})
	return shares, nil
}

// RequestWithdrawal burns unstaked shares and queues the redeemed amount
// behind the withdraw delay. The amount leaves the pool now; slashes still
// reach it until release.
func (m *Module) RequestWithdrawal(caller backstop.Address, pool ledger.PoolID, shares *big.Int, receiver backstop.Address) (backstop.Bytes32, error) {
	return m.requestRedemption(trigger.OpRequestWithdrawal, caller, pool, shares, receiver, false)
}

// RequestUnstake is RequestWithdrawal for staked shares, behind the unstake
// delay.
func (m *Module) RequestUnstake(caller backstop.Address, pool ledger.PoolID, shares *big.Int, receiver backstop.Address) (backstop.Bytes32, error) {
	return m.requestRedemption(trigger.OpRequestUnstake, caller, pool, shares, receiver, true)
}

func (m *Module) requestRedemption(op trigger.Op, caller backstop.Address, pool ledger.PoolID, shares *big.Int, receiver backstop.Address, staked bool) (backstop.Bytes32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guard(op); err != nil {
		return backstop.Bytes32{}, err
	}
	amount, err := m.ledger.Redeem(pool, caller, shares, staked, true)
	if err != nil {
		return backstop.Bytes32{}, err
	}
	p, _ := m.ledger.Pool(pool)

	if staked && m.ledger.Position(pool, caller).StakedShares.Sign() == 0 {
		// fully unstaked: close the reward windows so a later re-stake
		// accrues nothing from the idle gap
		for _, rp := range m.ledger.RewardPools() {
			delete(m.lastClaims, claimKey{rp.ID, pool, caller})
		}
	}

	now := m.clock.Now()
	delay := m.delays.Withdraw
	kind := events.KindWithdrawalRequested
	if staked {
		delay = m.delays.Unstake
		kind = events.KindUnstakeRequested
	}
	m.withdrawalSeq++
	w := &Withdrawal{
		ID:            withdrawalID(caller, pool, m.withdrawalSeq),
		Pool:          pool,
		Owner:         caller,
		Receiver:      receiver,
		Shares:        new(big.Int).Set(shares),
		Amount:        amount,
		ScaleSnapshot: new(big.Int).Set(p.ScaleFactor),
		RequestedAt:   now,
		UnlockAt:      now + delay,
	}
	m.withdrawals[w.ID] = w

	metricQueuedGauge().Add(1)
	m.done(op)
	m.emit(&events.Event{
		Kind: kind, Pool: pool.String(),
		Account: caller, Asset: p.Asset,
		Amount: new(big.Int).Set(amount), Shares: w.Shares,
		Ref: &w.ID, Time: now,
	})
	return w.ID, nil
}

// CompleteWithdrawal releases a queued withdrawal once its delay elapsed.
// The payout is the recorded amount rescaled by slashes since the request.
func (m *Module) CompleteWithdrawal(caller backstop.Address, id backstop.Bytes32) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guard(trigger.OpCompleteWithdrawal); err != nil {
		return nil, err
	}
	w, ok := m.withdrawals[id]
	if !ok {
		return nil, errors.Wrap(backstop.ErrWithdrawalNotFound, id.AbbrevString())
	}
	if caller != w.Owner && caller != w.Receiver {
		return nil, errors.Wrapf(backstop.ErrUnauthorized, "%s completing withdrawal of %s", caller, w.Owner)
	}
	now := m.clock.Now()
	if now < w.UnlockAt {
		return nil, errors.Wrapf(backstop.ErrDelayNotElapsed, "unlocks at %d, now %d", w.UnlockAt, now)
	}
	p, err := m.ledger.Pool(w.Pool)
	if err != nil {
		return nil, err
	}

	payout := new(big.Int).Mul(w.Amount, p.ScaleFactor)
	payout.Quo(payout, w.ScaleSnapshot)
	if err := m.ledger.ReleasePending(w.Pool, payout); err != nil {
		return nil, err
	}
	if payout.Sign() > 0 {
		if err := m.vault.TransferOut(p.Asset, w.Receiver, payout); err != nil {
			// undo the release so the withdrawal stays claimable
			p.PendingWithdrawals.Add(p.PendingWithdrawals, payout)
			logger.Error("custody transfer failed, withdrawal kept", "withdrawal", w.ID, "err", err)
			return nil, err
		}
	}
	delete(m.withdrawals, id)
	metricQueuedGauge().Add(-1)
	m.done(trigger.OpCompleteWithdrawal)
	m.emit(&events.Event{
		Kind: events.KindWithdrawalCompleted, Pool: w.Pool.String(),
		Account: w.Receiver, Asset: p.Asset,
		Amount: payout, Shares: w.Shares,
		Ref: &w.ID, Time: now,
	})
	return payout, nil
}

// ClaimRewardDrip pays the caller its share of the reward pool's drip since
// its own last claim, weighted by its staked share of the reserve pool.
func (m *Module) ClaimRewardDrip(caller backstop.Address, reward, reserve ledger.PoolID) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guard(trigger.OpClaimRewardDrip); err != nil {
		return nil, err
	}
	if reward.Kind != ledger.KindReward {
		return nil, errors.Wrapf(backstop.ErrInvalidState, "claim targets a reward pool, got %s", reward)
	}
	rp, err := m.ledger.Pool(reward)
	if err != nil {
		return nil, err
	}
	sp, err := m.ledger.Pool(reserve)
	if err != nil {
		return nil, err
	}
	pos := m.ledger.Position(reserve, caller)
	if pos.StakedShares.Sign() == 0 {
		return nil, errors.Wrapf(backstop.ErrInsufficientShares, "no staked shares in %s", reserve)
	}

	now := m.clock.Now()
	key := claimKey{reward, reserve, caller}
	last, ok := m.lastClaims[key]
	if !ok {
		last = rp.LastDripAt
	}
	elapsed := now - last
	factor := rp.Model.Factor(elapsed, rp.TotalBalance)
	released := wad.MulDown(factor, rp.TotalBalance)

	amount := new(big.Int).Mul(released, pos.StakedShares)
	amount.Quo(amount, sp.TotalStakedShares)
	m.lastClaims[key] = now
	if amount.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if err := m.ledger.Deduct(reward, amount); err != nil {
		return nil, err
	}

	if err := m.vault.TransferOut(rp.Asset, caller, amount); err != nil {
		logger.Error("custody transfer failed after reward claim", "pool", reward, "err", err)
		return nil, err
	}
	m.done(trigger.OpClaimRewardDrip)
	m.emit(&events.Event{
		Kind: events.KindRewardClaimed, Pool: reward.String(),
		Account: caller, Asset: rp.Asset,
		Amount: amount, Time: now,
	})
	return amount, nil
}

// FeePayout is one reserve pool's dripped fee amount.
type FeePayout struct {
	Pool   ledger.PoolID
	Asset  backstop.AssetID
	Amount *big.Int
}

// ClaimFeeDrip settles every reserve pool's drip and pays the released
// amounts to the fee collector. Only the fee collector may call it.
func (m *Module) ClaimFeeDrip(caller backstop.Address) ([]FeePayout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guard(trigger.OpClaimFeeDrip); err != nil {
		return nil, err
	}
	if caller != m.feeCollector && !m.auth.IsAuthorized(caller, RoleFeeCollector) {
		return nil, errors.Wrapf(backstop.ErrUnauthorized, "%s claiming fee drip", caller)
	}

	now := m.clock.Now()
	var payouts []FeePayout
	for _, p := range m.ledger.ReservePools() {
		amount, err := m.ledger.SettleDrip(p.ID, now)
		if err != nil {
			return nil, err
		}
		if amount.Sign() == 0 {
			continue
		}
		payouts = append(payouts, FeePayout{Pool: p.ID, Asset: p.Asset, Amount: amount})
	}
	for _, po := range payouts {
		if err := m.vault.TransferOut(po.Asset, m.feeCollector, po.Amount); err != nil {
			logger.Error("custody transfer failed after fee drip", "pool", po.Pool, "err", err)
			return nil, err
		}
		m.emit(&events.Event{
			Kind: events.KindFeeClaimed, Pool: po.Pool.String(),
			Account: m.feeCollector, Asset: po.Asset,
			Amount: po.Amount, Time: now,
		})
	}
	m.done(trigger.OpClaimFeeDrip)
	return payouts, nil
}

// ScheduleConfigUpdate queues a parameter change behind the config delay
// and moves the gate to ConfigPending, blocking user fund operations.
func (m *Module) ScheduleConfigUpdate(caller backstop.Address, update ConfigUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guard(trigger.OpScheduleConfigUpdate); err != nil {
		return err
	}
	if !m.isOwner(caller) {
		return errors.Wrapf(backstop.ErrUnauthorized, "%s scheduling config update", caller)
	}
	if err := update.validate(); err != nil {
		return err
	}
	for id := range update.Models {
		if _, err := m.ledger.Pool(id); err != nil {
			return err
		}
	}
	for id := range update.MaxSlashPcts {
		if _, err := m.ledger.Pool(id); err != nil {
			return err
		}
	}
	if err := m.gate.BeginConfigUpdate(); err != nil {
		return err
	}

	now := m.clock.Now()
	m.pending = &pendingConfig{
		update:    update,
		notBefore: now + m.delays.ConfigUpdate,
		expiresAt: now + m.delays.ConfigUpdate + m.delays.ConfigUpdateGrace,
	}
	logger.Info("config update scheduled", "notBefore", m.pending.notBefore, "expiresAt", m.pending.expiresAt)
	m.done(trigger.OpScheduleConfigUpdate)
	m.emit(&events.Event{Kind: events.KindConfigScheduled, Account: caller, Time: now})
	return nil
}

// FinalizeConfigUpdate applies the queued change inside its execution
// window and returns the gate to Active. Pools whose model changes settle
// their drip first so the elapsed interval is charged at the old curve.
func (m *Module) FinalizeConfigUpdate(caller backstop.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guard(trigger.OpFinalizeConfigUpdate); err != nil {
		return err
	}
	if !m.isOwner(caller) {
		return errors.Wrapf(backstop.ErrUnauthorized, "%s finalizing config update", caller)
	}
	now := m.clock.Now()
	if now < m.pending.notBefore {
		return errors.Wrapf(backstop.ErrDelayNotElapsed, "executable at %d, now %d", m.pending.notBefore, now)
	}
	if now > m.pending.expiresAt {
		return errors.Wrapf(backstop.ErrInvalidState, "execution window expired at %d", m.pending.expiresAt)
	}

	update := m.pending.update
	var fees []FeePayout
	for id, model := range update.Models {
		p, _ := m.ledger.Pool(id)
		if id.Kind == ledger.KindReserve {
			// charge the open interval at the old curve
			amount, err := m.ledger.SettleDrip(id, now)
			if err != nil {
				return err
			}
			if amount.Sign() > 0 {
				fees = append(fees, FeePayout{Pool: id, Asset: p.Asset, Amount: amount})
			}
		}
		p.Model = model
	}
	for id, pct := range update.MaxSlashPcts {
		p, _ := m.ledger.Pool(id)
		p.MaxSlashPct = new(big.Int).Set(pct)
	}
	if update.Delays != nil {
		m.delays = *update.Delays
	}
	m.pending = nil
	if err := m.gate.EndConfigUpdate(); err != nil {
		return err
	}

	logger.Info("config update finalized")
	m.done(trigger.OpFinalizeConfigUpdate)
	m.emit(&events.Event{Kind: events.KindConfigFinalized, Account: caller, Time: now})

	// custody transfers run last, after every ledger and gate mutation
	for _, fee := range fees {
		if err := m.vault.TransferOut(fee.Asset, m.feeCollector, fee.Amount); err != nil {
			logger.Error("custody transfer failed after config drip settle", "pool", fee.Pool, "err", err)
			return err
		}
		m.emit(&events.Event{
			Kind: events.KindFeeClaimed, Pool: fee.Pool.String(),
			Account: m.feeCollector, Asset: fee.Asset,
			Amount: fee.Amount, Time: now,
		})
	}
	return nil
}

// CancelConfigUpdate discards the queued change and returns the gate to
// Active.
func (m *Module) CancelConfigUpdate(caller backstop.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return errors.Wrap(backstop.ErrInvalidState, "not initialized")
	}
	if !m.isOwner(caller) {
		return errors.Wrapf(backstop.ErrUnauthorized, "%s cancelling config update", caller)
	}
	if err := m.gate.EndConfigUpdate(); err != nil {
		return err
	}
	m.pending = nil

	logger.Info("config update cancelled")
	m.emit(&events.Event{Kind: events.KindConfigCancelled, Account: caller, Time: m.clock.Now()})
	return nil
}
