// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backstopfi/backstop/backstop"
	"github.com/backstopfi/backstop/custody"
	"github.com/backstopfi/backstop/ledger"
	"github.com/backstopfi/backstop/trigger"
	"github.com/backstopfi/backstop/wad"
)

const testDoc = `
owner: "0x0000000000000000000000000000000000000001"
feeCollector: "0x0000000000000000000000000000000000000002"
delays:
  withdraw: 100
  unstake: 200
  configUpdate: 50
  configUpdateGrace: 100
reservePools:
  - asset: "0x00000000000000000000000000000000000000aa"
    drip:
      type: constant
      ratePerSecond: "1"
    maxSlashPct: "0.5"
rewardPools:
  - asset: "0x00000000000000000000000000000000000000bb"
    drip:
      type: exponential
      ratePerSecond: "0.000000008"
triggers:
  - id: depeg
    oracle: "0x0000000000000000000000000000000000000003"
    payoutHandler: "0x0000000000000000000000000000000000000004"
premine:
  - asset: "0x00000000000000000000000000000000000000aa"
    account: "0x0000000000000000000000000000000000000005"
    amount: "1000000000"
`

func TestLoadAndParams(t *testing.T) {
	cfg, err := Load(strings.NewReader(testDoc))
	require.NoError(t, err)

	params, err := cfg.Params()
	require.NoError(t, err)

	assert.Equal(t, backstop.MustParseAddress("0x0000000000000000000000000000000000000001"), params.Owner)
	assert.Equal(t, backstop.MustParseAddress("0x0000000000000000000000000000000000000002"), params.FeeCollector)
	assert.Equal(t, uint64(200), params.Delays.Unstake)

	require.Len(t, params.ReservePools, 1)
	assert.Equal(t, wad.MustParseDecimal("0.5"), params.ReservePools[0].MaxSlashPct)
	require.Len(t, params.RewardPools, 1)
	require.NotNil(t, params.RewardPools[0].Model)

	require.Len(t, params.Triggers, 1)
	assert.Equal(t, backstop.Blake2b([]byte("depeg")), params.Triggers[0].ID)
	assert.Equal(t, backstop.MustParseAddress("0x0000000000000000000000000000000000000003"), params.Triggers[0].Oracle)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader("owner: \"0x0000000000000000000000000000000000000001\"\nbogus: 1\n"))
	assert.Error(t, err)
}

func TestHexTriggerID(t *testing.T) {
	hexID := "0x" + strings.Repeat("ab", 32)
	id, err := parseTriggerID(hexID)
	require.NoError(t, err)

	want, err := backstop.ParseBytes32(hexID)
	require.NoError(t, err)
	assert.Equal(t, want, id)

	_, err = parseTriggerID("")
	assert.Error(t, err)
}

func TestParamsErrors(t *testing.T) {
	cfg, err := Load(strings.NewReader(testDoc))
	require.NoError(t, err)

	bad := *cfg
	bad.Owner = "not-an-address"
	_, err = bad.Params()
	assert.Error(t, err)

	bad = *cfg
	bad.ReservePools = []PoolSpec{{
		Asset:       "0x00000000000000000000000000000000000000aa",
		Drip:        DripSpec{Type: "sawtooth", RatePerSecond: "1"},
		MaxSlashPct: "0.5",
	}}
	_, err = bad.Params()
	assert.ErrorContains(t, err, "unknown drip model")

	bad = *cfg
	bad.ReservePools = []PoolSpec{{
		Asset:       "0x00000000000000000000000000000000000000aa",
		Drip:        DripSpec{Type: "constant", RatePerSecond: "-5"},
		MaxSlashPct: "0.5",
	}}
	_, err = bad.Params()
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	cfg, err := Load(strings.NewReader(testDoc))
	require.NoError(t, err)

	moduleAddr := backstop.BytesToAddress([]byte("module"))
	clock := backstop.NewManualClock(1_700_000_000)
	vault := custody.NewMemVault(moduleAddr)

	m, err := cfg.Build(clock, vault, trigger.OracleFunc(func(backstop.Bytes32) bool { return false }))
	require.NoError(t, err)

	assert.True(t, m.Initialized())
	assert.Equal(t, trigger.StateActive, m.State())
	assert.Equal(t, uint64(100), m.CurrentDelays().Withdraw)

	views := m.PoolViews()
	require.Len(t, views, 2)
	assert.Equal(t, "reserve/0", views[0].ID)

	// premined balance lets the account deposit right away
	account := backstop.MustParseAddress("0x0000000000000000000000000000000000000005")
	asset := backstop.MustParseAddress("0x00000000000000000000000000000000000000aa")
	assert.Equal(t, big.NewInt(1_000_000_000), vault.BalanceOf(asset, account))

	_, err = m.Deposit(account, ledger.PoolID{Kind: ledger.KindReserve, Index: 0}, big.NewInt(500), account)
	require.NoError(t, err)
}
