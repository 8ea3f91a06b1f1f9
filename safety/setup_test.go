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
	"github.com/backstopfi/backstop/custody"
	"github.com/backstopfi/backstop/drip"
	"github.com/backstopfi/backstop/ledger"
	"github.com/backstopfi/backstop/trigger"
	"github.com/backstopfi/backstop/wad"
)

var (
	moduleAddr  = backstop.BytesToAddress([]byte("module"))
	ownerAddr   = backstop.BytesToAddress([]byte("owner"))
	feeAddr     = backstop.BytesToAddress([]byte("fee-collector"))
	oracleAddr  = backstop.BytesToAddress([]byte("oracle"))
	handlerAddr = backstop.BytesToAddress([]byte("payout-handler"))
	alice       = backstop.BytesToAddress([]byte("alice"))
	bob         = backstop.BytesToAddress([]byte("bob"))
	assetA      = backstop.BytesToAddress([]byte("asset-a"))
	assetB      = backstop.BytesToAddress([]byte("asset-b"))

	trigID = backstop.Blake2b([]byte("trigger-1"))

	reserve0 = ledger.PoolID{Kind: ledger.KindReserve, Index: 0}
	reward0  = ledger.PoolID{Kind: ledger.KindReward, Index: 0}
)

const startTime = uint64(1_700_000_000)

func bi(n int64) *big.Int { return big.NewInt(n) }

type env struct {
	clock  *backstop.ManualClock
	vault  *custody.MemVault
	auth   *StaticAuthorizer
	fired  map[backstop.Bytes32]bool
	module *Module
}

func newEnv() *env {
	e := &env{
		clock: backstop.NewManualClock(startTime),
		vault: custody.NewMemVault(moduleAddr),
		auth:  NewStaticAuthorizer().Grant(RoleOwner, ownerAddr).Grant(RoleFeeCollector, feeAddr),
		fired: make(map[backstop.Bytes32]bool),
	}
	e.module = New(e.clock, e.vault, e.auth, trigger.OracleFunc(func(id backstop.Bytes32) bool {
		return e.fired[id]
	}))
	return e
}

// defaultParams: one slashable reserve pool of asset A dripping 1/s in fees
// and one reward pool of asset B dripping 10/s to stakers.
func defaultParams() *Params {
	return &Params{
		Owner:        ownerAddr,
		FeeCollector: feeAddr,
		Delays: Delays{
			Withdraw:          100,
			Unstake:           200,
			ConfigUpdate:      50,
			ConfigUpdateGrace: 100,
		},
		ReservePools: []PoolConfig{{
			Asset:       assetA,
			Model:       drip.NewConstant(bi(1)),
			MaxSlashPct: wad.MustParseDecimal("0.5"),
		}},
		RewardPools: []PoolConfig{{
			Asset: assetB,
			Model: drip.NewConstant(bi(10)),
		}},
		Triggers: []trigger.Trigger{{
			ID:            trigID,
			Oracle:        oracleAddr,
			PayoutHandler: handlerAddr,
		}},
	}
}

func newInitializedEnv(t *testing.T) *env {
	e := newEnv()
	require.NoError(t, e.module.Initialize(defaultParams()))
	return e
}

// fund credits the module's custody, backing a deposit made through the
// ledger.
func (e *env) fund(asset backstop.AssetID, amount *big.Int) {
	e.vault.Mint(asset, moduleAddr, amount)
}

type TestFunc func(t *testing.T)

// TestSequence scripts module operations so scenarios read as timelines.
type TestSequence struct {
	env   *env
	funcs []TestFunc
}

func NewSequence(e *env) *TestSequence {
	return &TestSequence{env: e, funcs: make([]TestFunc, 0)}
}

func (ts *TestSequence) AddFunc(f TestFunc) *TestSequence {
	ts.funcs = append(ts.funcs, f)
	return ts
}

func (ts *TestSequence) Advance(seconds uint64) *TestSequence {
	return ts.AddFunc(func(t *testing.T) {
		ts.env.clock.Advance(seconds)
	})
}

func (ts *TestSequence) Deposit(who backstop.Address, pool ledger.PoolID, amount int64) *TestSequence {
	return ts.AddFunc(func(t *testing.T) {
		ts.env.fund(mustAsset(t, ts.env, pool), bi(amount))
		_, err := ts.env.module.Deposit(who, pool, bi(amount), who)
		if err != nil {
			t.Fatalf("failed to deposit %d into %s: %v", amount, pool, err)
		}
	})
}

func (ts *TestSequence) Stake(who backstop.Address, pool ledger.PoolID, amount int64) *TestSequence {
	return ts.AddFunc(func(t *testing.T) {
		ts.env.fund(mustAsset(t, ts.env, pool), bi(amount))
		_, err := ts.env.module.Stake(who, pool, bi(amount), who)
		if err != nil {
			t.Fatalf("failed to stake %d into %s: %v", amount, pool, err)
		}
	})
}

func (ts *TestSequence) RequestWithdrawal(who backstop.Address, pool ledger.PoolID, shares int64, into *backstop.Bytes32) *TestSequence {
	return ts.AddFunc(func(t *testing.T) {
		id, err := ts.env.module.RequestWithdrawal(who, pool, bi(shares), who)
		if err != nil {
			t.Fatalf("failed to request withdrawal of %d shares: %v", shares, err)
		}
		*into = id
	})
}

func (ts *TestSequence) RequestUnstake(who backstop.Address, pool ledger.PoolID, shares int64, into *backstop.Bytes32) *TestSequence {
	return ts.AddFunc(func(t *testing.T) {
		id, err := ts.env.module.RequestUnstake(who, pool, bi(shares), who)
		if err != nil {
			t.Fatalf("failed to request unstake of %d shares: %v", shares, err)
		}
		*into = id
	})
}

func (ts *TestSequence) CompleteWithdrawal(who backstop.Address, id *backstop.Bytes32, expect int64) *TestSequence {
	return ts.AddFunc(func(t *testing.T) {
		paid, err := ts.env.module.CompleteWithdrawal(who, *id)
		if err != nil {
			t.Fatalf("failed to complete withdrawal: %v", err)
		}
		assert.Equal(t, bi(expect), paid, "completed withdrawal payout mismatch")
	})
}

func (ts *TestSequence) Trigger(caller backstop.Address) *TestSequence {
	return ts.AddFunc(func(t *testing.T) {
		ts.env.fired[trigID] = true
		if err := ts.env.module.Trigger(caller, trigID); err != nil {
			t.Fatalf("failed to trigger: %v", err)
		}
	})
}

func (ts *TestSequence) Slash(pool ledger.PoolID, amount, expectPaid int64) *TestSequence {
	return ts.AddFunc(func(t *testing.T) {
		paid, err := ts.env.module.Slash(handlerAddr, pool, bi(amount))
		if err != nil {
			t.Fatalf("failed to slash %d: %v", amount, err)
		}
		assert.Equal(t, bi(expectPaid), paid, "slash payout mismatch")
	})
}

func (ts *TestSequence) Run(t *testing.T) {
	for _, f := range ts.funcs {
		f(t)
	}
}

func mustAsset(t *testing.T, e *env, pool ledger.PoolID) backstop.AssetID {
	v, err := e.module.PoolView(pool)
	require.NoError(t, err)
	return v.Asset
}

// PoolAssertions checks selected fields of a pool snapshot.
type PoolAssertions struct {
	env *env
	id  ledger.PoolID

	balance *big.Int
	shares  *big.Int
	staked  *big.Int
	pending *big.Int
	scale   *big.Int
}

func AssertPool(e *env, id ledger.PoolID) *PoolAssertions {
	return &PoolAssertions{env: e, id: id}
}

func (pa *PoolAssertions) Balance(v int64) *PoolAssertions { pa.balance = bi(v); return pa }
func (pa *PoolAssertions) Shares(v int64) *PoolAssertions  { pa.shares = bi(v); return pa }
func (pa *PoolAssertions) Staked(v int64) *PoolAssertions  { pa.staked = bi(v); return pa }
func (pa *PoolAssertions) Pending(v int64) *PoolAssertions { pa.pending = bi(v); return pa }

func (pa *PoolAssertions) Scale(v *big.Int) *PoolAssertions { pa.scale = v; return pa }

func (pa *PoolAssertions) Assert(t *testing.T) {
	view, err := pa.env.module.PoolView(pa.id)
	require.NoError(t, err, "failed to snapshot pool %s", pa.id)

	if pa.balance != nil {
		assert.Equal(t, pa.balance, view.TotalBalance, "pool %s balance mismatch", pa.id)
	}
	if pa.shares != nil {
		assert.Equal(t, pa.shares, view.TotalShares, "pool %s shares mismatch", pa.id)
	}
	if pa.staked != nil {
		assert.Equal(t, pa.staked, view.TotalStakedShares, "pool %s staked shares mismatch", pa.id)
	}
	if pa.pending != nil {
		assert.Equal(t, pa.pending, view.PendingWithdrawals, "pool %s pending mismatch", pa.id)
	}
	if pa.scale != nil {
		assert.Equal(t, pa.scale, view.ScaleFactor, "pool %s scale factor mismatch", pa.id)
	}
}
