// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package trigger holds the module's state machine and the registered
// trigger records. The gate answers "is operation X permitted in the
// current state" from a single table instead of scattered checks.
package trigger

import (
	"github.com/pkg/errors"

	"github.com/backstopfi/backstop/backstop"
)

type State uint8

const (
	StateActive        State = iota // normal operation
	StateTriggered                  // terminal: a risk condition fired
	StateConfigPending              // a configuration update is queued
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateTriggered:
		return "triggered"
	case StateConfigPending:
		return "config-pending"
	default:
		return "unknown"
	}
}

// Op enumerates the externally callable operations the gate rules on.
type Op uint8

const (
	OpDeposit Op = iota
	OpStake
	OpRequestWithdrawal
	OpRequestUnstake
	OpCompleteWithdrawal
	OpClaimRewardDrip
	OpClaimFeeDrip
	OpTrigger
	OpSlash
	OpEmergencyWithdraw
	OpScheduleConfigUpdate
	OpFinalizeConfigUpdate

	opCount
)

func (op Op) String() string {
	switch op {
	case OpDeposit:
		return "deposit"
	case OpStake:
		return "stake"
	case OpRequestWithdrawal:
		return "request-withdrawal"
	case OpRequestUnstake:
		return "request-unstake"
	case OpCompleteWithdrawal:
		return "complete-withdrawal"
	case OpClaimRewardDrip:
		return "claim-reward-drip"
	case OpClaimFeeDrip:
		return "claim-fee-drip"
	case OpTrigger:
		return "trigger"
	case OpSlash:
		return "slash"
	case OpEmergencyWithdraw:
		return "emergency-withdraw"
	case OpScheduleConfigUpdate:
		return "schedule-config-update"
	case OpFinalizeConfigUpdate:
		return "finalize-config-update"
	default:
		return "unknown"
	}
}

// permitted[op][state]. Triggering stays available while a config update is
// pending: responding to a live risk condition outranks governance.
var permitted = [opCount][3]bool{
	OpDeposit:              {StateActive: true},
	OpStake:                {StateActive: true},
	OpRequestWithdrawal:    {StateActive: true},
	OpRequestUnstake:       {StateActive: true},
	OpCompleteWithdrawal:   {StateActive: true},
	OpClaimRewardDrip:      {StateActive: true},
	OpClaimFeeDrip:         {StateActive: true},
	OpTrigger:              {StateActive: true, StateConfigPending: true},
	OpSlash:                {StateTriggered: true},
	OpEmergencyWithdraw:    {StateTriggered: true},
	OpScheduleConfigUpdate: {StateActive: true},
	OpFinalizeConfigUpdate: {StateConfigPending: true},
}

// Gate tracks the module state and gates operations on it.
type Gate struct {
	state State
}

func NewGate() *Gate {
	return &Gate{state: StateActive}
}

// State returns the current state.
func (g *Gate) State() State {
	return g.state
}

// Allows returns ErrInvalidState unless op is permitted in the current
// state.
func (g *Gate) Allows(op Op) error {
	if op >= opCount || !permitted[op][g.state] {
		return errors.Wrapf(backstop.ErrInvalidState, "%s not permitted while %s", op, g.state)
	}
	return nil
}

// Trip moves the gate to Triggered. Tripping an already triggered gate is
// rejected, not a no-op, so callers observe a clear failure.
func (g *Gate) Trip() error {
	if g.state == StateTriggered {
		return errors.Wrap(backstop.ErrInvalidState, "already triggered")
	}
	g.state = StateTriggered
	return nil
}

// BeginConfigUpdate moves Active -> ConfigPending.
func (g *Gate) BeginConfigUpdate() error {
	if g.state != StateActive {
		return errors.Wrapf(backstop.ErrInvalidState, "config update while %s", g.state)
	}
	g.state = StateConfigPending
	return nil
}

// EndConfigUpdate moves ConfigPending -> Active, both on finalize and on
// cancel.
func (g *Gate) EndConfigUpdate() error {
	if g.state != StateConfigPending {
		return errors.Wrapf(backstop.ErrInvalidState, "no config update pending while %s", g.state)
	}
	g.state = StateActive
	return nil
}
