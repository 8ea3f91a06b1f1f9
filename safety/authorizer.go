// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package safety

import (
	"sync"

	"github.com/backstopfi/backstop/backstop"
)

// Role names a privileged capability. Fund-moving user operations carry no
// role; administrative and payout operations do.
type Role string

const (
	RoleOwner         Role = "owner"
	RolePayoutHandler Role = "payout-handler"
	RoleFeeCollector  Role = "fee-collector"
)

// Authorizer is the access-control collaborator. The module asks, it never
// decides membership itself.
type Authorizer interface {
	IsAuthorized(caller backstop.Address, role Role) bool
}

// StaticAuthorizer is a fixed role table, sufficient for tests and solo
// deployments.
type StaticAuthorizer struct {
	mu    sync.RWMutex
	roles map[Role]map[backstop.Address]bool
}

func NewStaticAuthorizer() *StaticAuthorizer {
	return &StaticAuthorizer{roles: make(map[Role]map[backstop.Address]bool)}
}

// Grant adds caller to role and returns the authorizer for chaining.
func (a *StaticAuthorizer) Grant(role Role, caller backstop.Address) *StaticAuthorizer {
	a.mu.Lock()
	defer a.mu.Unlock()
	members, ok := a.roles[role]
	if !ok {
		members = make(map[backstop.Address]bool)
		a.roles[role] = members
	}
	members[caller] = true
	return a
}

// Revoke removes caller from role.
func (a *StaticAuthorizer) Revoke(role Role, caller backstop.Address) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.roles[role], caller)
}

func (a *StaticAuthorizer) IsAuthorized(caller backstop.Address, role Role) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.roles[role][caller]
}
