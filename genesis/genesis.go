// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis builds an initialized module from a yaml document. The
// document carries the module parameters plus optional premined custody
// balances for solo runs and tests.
package genesis

import (
	"io"
	"math/big"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/backstopfi/backstop/backstop"
	"github.com/backstopfi/backstop/custody"
	"github.com/backstopfi/backstop/drip"
	"github.com/backstopfi/backstop/safety"
	"github.com/backstopfi/backstop/trigger"
	"github.com/backstopfi/backstop/wad"
)

// DripSpec selects and parameterizes a release curve.
type DripSpec struct {
	// "constant" or "exponential"
	Type string `yaml:"type"`
	// constant: asset base units per second, an integer.
	// exponential: decimal fraction of the pool released per second, e.g.
	// "0.000000008" for roughly 25%/year.
	RatePerSecond string `yaml:"ratePerSecond"`
}

func (s *DripSpec) model() (drip.Model, error) {
	switch s.Type {
	case "constant":
		rate, ok := new(big.Int).SetString(s.RatePerSecond, 10)
		if !ok || rate.Sign() < 0 {
			return nil, errors.Errorf("invalid constant rate %q", s.RatePerSecond)
		}
		return drip.NewConstant(rate), nil
	case "exponential":
		rate, err := wad.ParseDecimal(s.RatePerSecond)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid exponential rate %q", s.RatePerSecond)
		}
		return drip.NewExponential(rate), nil
	default:
		return nil, errors.Errorf("unknown drip model type %q", s.Type)
	}
}

// PoolSpec describes one pool.
type PoolSpec struct {
	Asset string   `yaml:"asset"`
	Drip  DripSpec `yaml:"drip"`
	// reserve pools only, a decimal fraction like "0.5"
	MaxSlashPct string `yaml:"maxSlashPct,omitempty"`
}

// TriggerSpec describes one registered risk condition. The id may be a
// 32-byte hex string or an arbitrary name, which is hashed.
type TriggerSpec struct {
	ID            string `yaml:"id"`
	Oracle        string `yaml:"oracle"`
	PayoutHandler string `yaml:"payoutHandler"`
}

// PremineSpec credits custody before the module starts.
type PremineSpec struct {
	Asset   string `yaml:"asset"`
	Account string `yaml:"account"`
	Amount  string `yaml:"amount"` // base units, an integer
}

// Config is the genesis document.
type Config struct {
	Owner        string `yaml:"owner"`
	FeeCollector string `yaml:"feeCollector"`
	Delays       struct {
		Withdraw          uint64 `yaml:"withdraw"`
		Unstake           uint64 `yaml:"unstake"`
		ConfigUpdate      uint64 `yaml:"configUpdate"`
		ConfigUpdateGrace uint64 `yaml:"configUpdateGrace"`
	} `yaml:"delays"`
	ReservePools []PoolSpec    `yaml:"reservePools"`
	RewardPools  []PoolSpec    `yaml:"rewardPools"`
	Triggers     []TriggerSpec `yaml:"triggers"`
	Premine      []PremineSpec `yaml:"premine,omitempty"`
}

// Load parses a genesis document, rejecting unknown fields.
func Load(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var c Config
	if err := dec.Decode(&c); err != nil {
		return nil, errors.Wrap(err, "decode genesis")
	}
	return &c, nil
}

// LoadFile parses the genesis document at path.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Params converts the document into initialization parameters.
func (c *Config) Params() (*safety.Params, error) {
	owner, err := backstop.ParseAddress(c.Owner)
	if err != nil {
		return nil, errors.Wrap(err, "owner")
	}
	feeCollector, err := backstop.ParseAddress(c.FeeCollector)
	if err != nil {
		return nil, errors.Wrap(err, "feeCollector")
	}

	params := &safety.Params{
		Owner:        *owner,
		FeeCollector: *feeCollector,
		Delays: safety.Delays{
			Withdraw:          c.Delays.Withdraw,
			Unstake:           c.Delays.Unstake,
			ConfigUpdate:      c.Delays.ConfigUpdate,
			ConfigUpdateGrace: c.Delays.ConfigUpdateGrace,
		},
	}
	for i, ps := range c.ReservePools {
		asset, err := backstop.ParseAssetID(ps.Asset)
		if err != nil {
			return nil, errors.Wrapf(err, "reserve pool %d asset", i)
		}
		model, err := ps.Drip.model()
		if err != nil {
			return nil, errors.Wrapf(err, "reserve pool %d", i)
		}
		pct, err := wad.ParseDecimal(ps.MaxSlashPct)
		if err != nil {
			return nil, errors.Wrapf(err, "reserve pool %d maxSlashPct", i)
		}
		params.ReservePools = append(params.ReservePools, safety.PoolConfig{
			Asset:       *asset,
			Model:       model,
			MaxSlashPct: pct,
		})
	}
	for i, ps := range c.RewardPools {
		asset, err := backstop.ParseAssetID(ps.Asset)
		if err != nil {
			return nil, errors.Wrapf(err, "reward pool %d asset", i)
		}
		model, err := ps.Drip.model()
		if err != nil {
			return nil, errors.Wrapf(err, "reward pool %d", i)
		}
		params.RewardPools = append(params.RewardPools, safety.PoolConfig{
			Asset: *asset,
			Model: model,
		})
	}
	for i, ts := range c.Triggers {
		id, err := parseTriggerID(ts.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "trigger %d", i)
		}
		oracle, err := backstop.ParseAddress(ts.Oracle)
		if err != nil {
			return nil, errors.Wrapf(err, "trigger %d oracle", i)
		}
		handler, err := backstop.ParseAddress(ts.PayoutHandler)
		if err != nil {
			return nil, errors.Wrapf(err, "trigger %d payoutHandler", i)
		}
		params.Triggers = append(params.Triggers, trigger.Trigger{
			ID:            id,
			Oracle:        *oracle,
			PayoutHandler: *handler,
		})
	}
	return params, nil
}

// Authorizer builds the default role table: the owner and the fee
// collector hold their respective roles.
func (c *Config) Authorizer() (*safety.StaticAuthorizer, error) {
	owner, err := backstop.ParseAddress(c.Owner)
	if err != nil {
		return nil, errors.Wrap(err, "owner")
	}
	feeCollector, err := backstop.ParseAddress(c.FeeCollector)
	if err != nil {
		return nil, errors.Wrap(err, "feeCollector")
	}
	return safety.NewStaticAuthorizer().
		Grant(safety.RoleOwner, *owner).
		Grant(safety.RoleFeeCollector, *feeCollector), nil
}

// ApplyPremine credits the configured custody balances.
func (c *Config) ApplyPremine(vault *custody.MemVault) error {
	for i, p := range c.Premine {
		asset, err := backstop.ParseAssetID(p.Asset)
		if err != nil {
			return errors.Wrapf(err, "premine %d asset", i)
		}
		account, err := backstop.ParseAddress(p.Account)
		if err != nil {
			return errors.Wrapf(err, "premine %d account", i)
		}
		amount, ok := new(big.Int).SetString(p.Amount, 10)
		if !ok || amount.Sign() < 0 {
			return errors.Errorf("premine %d: invalid amount %q", i, p.Amount)
		}
		vault.Mint(*asset, *account, amount)
	}
	return nil
}

// Build wires and initializes a module from the document.
func (c *Config) Build(clock backstop.Clock, vault *custody.MemVault, oracle trigger.Oracle) (*safety.Module, error) {
	params, err := c.Params()
	if err != nil {
		return nil, err
	}
	auth, err := c.Authorizer()
	if err != nil {
		return nil, err
	}
	if err := c.ApplyPremine(vault); err != nil {
		return nil, err
	}
	m := safety.New(clock, vault, auth, oracle)
	if err := m.Initialize(params); err != nil {
		return nil, err
	}
	return m, nil
}

func parseTriggerID(s string) (backstop.Bytes32, error) {
	if s == "" {
		return backstop.Bytes32{}, errors.New("empty trigger id")
	}
	if id, err := backstop.ParseBytes32(s); err == nil {
		return id, nil
	}
	return backstop.Blake2b([]byte(s)), nil
}
