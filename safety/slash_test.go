// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package safety

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backstopfi/backstop/backstop"
	"github.com/backstopfi/backstop/trigger"
	"github.com/backstopfi/backstop/wad"
)

func TestTriggerGuards(t *testing.T) {
	e := newInitializedEnv(t)

	// unknown trigger id
	err := e.module.Trigger(oracleAddr, backstop.Blake2b([]byte("nope")))
	assert.ErrorIs(t, err, backstop.ErrInvalidState)

	// wrong caller
	e.fired[trigID] = true
	assert.ErrorIs(t, e.module.Trigger(alice, trigID), backstop.ErrUnauthorized)

	// condition not reported by the oracle
	e.fired[trigID] = false
	assert.ErrorIs(t, e.module.Trigger(oracleAddr, trigID), backstop.ErrInvalidState)

	e.fired[trigID] = true
	require.NoError(t, e.module.Trigger(oracleAddr, trigID))
	assert.Equal(t, trigger.StateTriggered, e.module.State())

	fired, ok := e.module.FiredTrigger()
	assert.True(t, ok)
	assert.Equal(t, trigID, fired)

	// a triggered module stays triggered
	assert.ErrorIs(t, e.module.Trigger(oracleAddr, trigID), backstop.ErrInvalidState)
}

func TestTriggerFixesSlashBudget(t *testing.T) {
	e := newInitializedEnv(t)

	NewSequence(e).
		Deposit(alice, reserve0, 1000).
		Trigger(oracleAddr).
		Run(t)

	view, err := e.module.PoolView(reserve0)
	require.NoError(t, err)
	assert.Equal(t, bi(500), view.SlashBudget, "budget is balance * maxSlashPct at trigger time")

	// user operations are frozen
	_, err = e.module.Deposit(alice, reserve0, bi(100), alice)
	assert.ErrorIs(t, err, backstop.ErrInvalidState)
	_, err = e.module.RequestWithdrawal(alice, reserve0, bi(100), alice)
	assert.ErrorIs(t, err, backstop.ErrInvalidState)
}

func TestSlashBeforeTrigger(t *testing.T) {
	e := newInitializedEnv(t)

	NewSequence(e).Deposit(alice, reserve0, 1000).Run(t)

	_, err := e.module.Slash(handlerAddr, reserve0, bi(100))
	assert.ErrorIs(t, err, backstop.ErrInvalidState)
}

func TestSlashScalesQueuedWithdrawals(t *testing.T) {
	e := newInitializedEnv(t)
	var id backstop.Bytes32

	NewSequence(e).
		Deposit(alice, reserve0, 1000).
		RequestWithdrawal(alice, reserve0, 400, &id).
		Trigger(oracleAddr).
		// budget 0.5*600 = 300; slash removes half the pool, so the
		// pending 400 is cut by half too and the cut joins the payout
		Slash(reserve0, 300, 500).
		Run(t)

	AssertPool(e, reserve0).
		Balance(300).
		Pending(200).
		Scale(wad.MustParseDecimal("0.5")).
		Assert(t)
	assert.Equal(t, bi(500), e.vault.BalanceOf(assetA, handlerAddr))

	// the queued withdrawal pays out rescaled once the module is...
	// still triggered: completion is frozen, the record reflects the cut
	w, err := e.module.Withdrawal(id)
	require.NoError(t, err)
	assert.Equal(t, bi(400), w.Amount)
	assert.Equal(t, wad.One, w.ScaleSnapshot)
}

func TestSlashClampedToBudget(t *testing.T) {
	e := newInitializedEnv(t)

	NewSequence(e).
		Deposit(alice, reserve0, 1000).
		Trigger(oracleAddr).
		Slash(reserve0, 10_000, 500). // request far above the 500 budget
		Run(t)

	view, err := e.module.PoolView(reserve0)
	require.NoError(t, err)
	assert.Equal(t, bi(0), view.SlashBudget)

	// budget exhausted
	_, err = e.module.Slash(handlerAddr, reserve0, bi(1))
	assert.ErrorIs(t, err, backstop.ErrInsufficientBalance)
}

func TestSlashDrawsDownBudget(t *testing.T) {
	e := newInitializedEnv(t)

	NewSequence(e).
		Deposit(alice, reserve0, 1000).
		Trigger(oracleAddr).
		Slash(reserve0, 200, 200).
		Slash(reserve0, 200, 200).
		Run(t)

	view, err := e.module.PoolView(reserve0)
	require.NoError(t, err)
	assert.Equal(t, bi(100), view.SlashBudget)
	assert.Equal(t, bi(600), view.TotalBalance)

	// later deposits never raise the fixed budget: the remaining 100 is
	// the cap even though the balance could cover more
	NewSequence(e).Slash(reserve0, 500, 100).Run(t)
	_, err = e.module.Slash(handlerAddr, reserve0, bi(1))
	assert.ErrorIs(t, err, backstop.ErrInsufficientBalance)
}

func TestSlashAuthorization(t *testing.T) {
	e := newInitializedEnv(t)

	NewSequence(e).
		Deposit(alice, reserve0, 1000).
		Trigger(oracleAddr).
		Run(t)

	_, err := e.module.Slash(alice, reserve0, bi(100))
	assert.ErrorIs(t, err, backstop.ErrUnauthorized)

	_, err = e.module.Slash(handlerAddr, reserve0, big.NewInt(0))
	assert.ErrorIs(t, err, backstop.ErrZeroAmount)

	_, err = e.module.Slash(handlerAddr, reward0, bi(100))
	assert.ErrorIs(t, err, backstop.ErrInvalidState)
}

func TestEmergencyWithdraw(t *testing.T) {
	e := newInitializedEnv(t)

	amountA, _ := new(big.Int).SetString("1000000000", 10)  // 1000e6
	amountB, _ := new(big.Int).SetString("500000000000000000000", 10) // 500e18

	e.fund(assetA, amountA)
	_, err := e.module.Deposit(alice, reserve0, amountA, alice)
	require.NoError(t, err)
	e.fund(assetB, amountB)
	_, err = e.module.Deposit(ownerAddr, reward0, amountB, ownerAddr)
	require.NoError(t, err)

	// only after a trigger
	_, err = e.module.EmergencyWithdraw(ownerAddr, ownerAddr)
	assert.ErrorIs(t, err, backstop.ErrInvalidState)

	NewSequence(e).Trigger(oracleAddr).Run(t)

	// owner only
	_, err = e.module.EmergencyWithdraw(alice, alice)
	assert.ErrorIs(t, err, backstop.ErrUnauthorized)

	sweeps, err := e.module.EmergencyWithdraw(ownerAddr, ownerAddr)
	require.NoError(t, err)
	require.Len(t, sweeps, 2)
	assert.Equal(t, assetA, sweeps[0].Asset)
	assert.Equal(t, amountA, sweeps[0].Amount)
	assert.Equal(t, assetB, sweeps[1].Asset)
	assert.Equal(t, amountB, sweeps[1].Amount)

	assert.Equal(t, amountA, e.vault.BalanceOf(assetA, ownerAddr))
	assert.Equal(t, amountB, e.vault.BalanceOf(assetB, ownerAddr))
	AssertPool(e, reserve0).Balance(0).Pending(0).Assert(t)
	AssertPool(e, reward0).Balance(0).Pending(0).Assert(t)
}

func TestEmergencyWithdrawIncludesQueued(t *testing.T) {
	e := newInitializedEnv(t)
	var id backstop.Bytes32

	NewSequence(e).
		Deposit(alice, reserve0, 1000).
		RequestWithdrawal(alice, reserve0, 400, &id).
		Trigger(oracleAddr).
		Run(t)

	sweeps, err := e.module.EmergencyWithdraw(ownerAddr, bob)
	require.NoError(t, err)
	require.Len(t, sweeps, 1)
	assert.Equal(t, bi(1000), sweeps[0].Amount, "queued withdrawals are swept too")
	assert.Equal(t, bi(1000), e.vault.BalanceOf(assetA, bob))
}
