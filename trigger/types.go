// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package trigger

import "github.com/backstopfi/backstop/backstop"

// Trigger is a registered risk condition: the oracle address allowed to
// trip the module and the handler that receives slashed funds.
type Trigger struct {
	ID            backstop.Bytes32
	Oracle        backstop.Address
	PayoutHandler backstop.Address
}

// IsEmpty returns whether the entry can be treated as empty.
func (t *Trigger) IsEmpty() bool {
	return t.Oracle.IsZero() && t.PayoutHandler.IsZero()
}

// Oracle reports whether a registered risk condition currently holds. It is
// an external collaborator: the module never decides trigger conditions
// itself.
type Oracle interface {
	IsTriggered(id backstop.Bytes32) bool
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(id backstop.Bytes32) bool

func (f OracleFunc) IsTriggered(id backstop.Bytes32) bool {
	return f(id)
}
