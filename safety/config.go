// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package safety

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/backstopfi/backstop/backstop"
	"github.com/backstopfi/backstop/drip"
	"github.com/backstopfi/backstop/ledger"
	"github.com/backstopfi/backstop/trigger"
	"github.com/backstopfi/backstop/wad"
)

// Delays are the module's time locks, in seconds.
type Delays struct {
	Withdraw          uint64
	Unstake           uint64
	ConfigUpdate      uint64
	ConfigUpdateGrace uint64
}

// PoolConfig describes one pool at initialization.
type PoolConfig struct {
	Asset backstop.AssetID
	Model drip.Model
	// reserve pools only, WAD fraction of the balance slashable over the
	// module's lifetime
	MaxSlashPct *big.Int
}

// Params is the one-shot initialization document.
type Params struct {
	Owner        backstop.Address
	FeeCollector backstop.Address
	Delays       Delays
	ReservePools []PoolConfig
	RewardPools  []PoolConfig
	Triggers     []trigger.Trigger
}

func (p *Params) validate() error {
	if p.Owner.IsZero() {
		return errors.New("owner must not be zero")
	}
	if len(p.ReservePools) == 0 {
		return errors.New("at least one reserve pool required")
	}
	for i, pc := range p.ReservePools {
		if pc.Model == nil {
			return errors.Errorf("reserve pool %d: drip model required", i)
		}
		if pc.MaxSlashPct == nil || pc.MaxSlashPct.Sign() < 0 || pc.MaxSlashPct.Cmp(wad.One) > 0 {
			return errors.Errorf("reserve pool %d: max slash pct outside [0, 1]", i)
		}
	}
	for i, pc := range p.RewardPools {
		if pc.Model == nil {
			return errors.Errorf("reward pool %d: drip model required", i)
		}
	}
	for i, t := range p.Triggers {
		if t.IsEmpty() {
			return errors.Errorf("trigger %d: empty record", i)
		}
	}
	return nil
}

// ConfigUpdate is a queued parameter change. Zero-valued fields keep the
// current setting.
type ConfigUpdate struct {
	Delays *Delays
	// replacement drip models keyed by pool
	Models map[ledger.PoolID]drip.Model
	// replacement slash caps for reserve pools, each a WAD fraction
	MaxSlashPcts map[ledger.PoolID]*big.Int
}

func (u *ConfigUpdate) validate() error {
	for id, m := range u.Models {
		if m == nil {
			return errors.Errorf("%s: nil model", id)
		}
	}
	for id, pct := range u.MaxSlashPcts {
		if id.Kind != ledger.KindReserve {
			return errors.Errorf("%s: slash cap on non-reserve pool", id)
		}
		if pct == nil || pct.Sign() < 0 || pct.Cmp(wad.One) > 0 {
			return errors.Errorf("%s: max slash pct outside [0, 1]", id)
		}
	}
	return nil
}

// pendingConfig is a scheduled update with its execution window.
type pendingConfig struct {
	update    ConfigUpdate
	notBefore uint64
	expiresAt uint64
}
