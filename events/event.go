// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package events defines the treasury event stream. Every state-changing
// operation publishes exactly one event after its mutation has committed.
package events

import (
	"math/big"

	"github.com/backstopfi/backstop/backstop"
)

// Kind identifies the operation an event records.
type Kind string

const (
	KindInitialized         Kind = "initialized"
	KindDeposit             Kind = "deposit"
	KindStake               Kind = "stake"
	KindWithdrawalRequested Kind = "withdrawal_requested"
	KindUnstakeRequested    Kind = "unstake_requested"
	KindWithdrawalCompleted Kind = "withdrawal_completed"
	KindRewardClaimed       Kind = "reward_claimed"
	KindFeeClaimed          Kind = "fee_claimed"
	KindTriggered           Kind = "triggered"
	KindSlashed             Kind = "slashed"
	KindEmergencyWithdrawal Kind = "emergency_withdrawal"
	KindConfigScheduled     Kind = "config_scheduled"
	KindConfigFinalized     Kind = "config_finalized"
	KindConfigCancelled     Kind = "config_cancelled"
)

// Event is a single entry of the treasury event stream.
type Event struct {
	Kind    Kind              `json:"kind"`
	Pool    string            `json:"pool,omitempty"` // e.g. "reserve/0", empty for module-level events
	Account backstop.Address  `json:"account"`
	Asset   backstop.AssetID  `json:"asset"`
	Amount  *big.Int          `json:"amount,omitempty"`
	Shares  *big.Int          `json:"shares,omitempty"`
	Ref     *backstop.Bytes32 `json:"ref,omitempty"` // withdrawal or trigger id, nil for module-level events
	Time    uint64            `json:"time"`
}
