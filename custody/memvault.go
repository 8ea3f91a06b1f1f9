// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package custody

import (
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/backstopfi/backstop/backstop"
)

type balanceKey struct {
	asset backstop.AssetID
	who   backstop.Address
}

// MemVault is an in-memory Vault used by tests, genesis bootstrap and solo
// runs. The module's own custody is tracked under the module address.
type MemVault struct {
	mu       sync.Mutex
	self     backstop.Address
	balances map[balanceKey]*big.Int
}

// NewMemVault creates an empty vault custodied by self.
func NewMemVault(self backstop.Address) *MemVault {
	return &MemVault{
		self:     self,
		balances: make(map[balanceKey]*big.Int),
	}
}

// Mint credits amount of asset to who. Test and bootstrap helper.
func (v *MemVault) Mint(asset backstop.AssetID, who backstop.Address, amount *big.Int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.credit(asset, who, amount)
}

func (v *MemVault) credit(asset backstop.AssetID, who backstop.Address, amount *big.Int) {
	key := balanceKey{asset, who}
	bal, ok := v.balances[key]
	if !ok {
		bal = big.NewInt(0)
		v.balances[key] = bal
	}
	bal.Add(bal, amount)
}

// TransferOut implements Vault, moving funds out of the module's custody.
func (v *MemVault) TransferOut(asset backstop.AssetID, to backstop.Address, amount *big.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	bal, ok := v.balances[balanceKey{asset, v.self}]
	if !ok || bal.Cmp(amount) < 0 {
		return errors.Wrapf(backstop.ErrInsufficientBalance, "custody of %s short: have %s, want %s", asset, bal, amount)
	}
	bal.Sub(bal, amount)
	v.credit(asset, to, amount)
	return nil
}

// BalanceOf implements Vault.
func (v *MemVault) BalanceOf(asset backstop.AssetID, who backstop.Address) *big.Int {
	v.mu.Lock()
	defer v.mu.Unlock()

	if bal, ok := v.balances[balanceKey{asset, who}]; ok {
		return new(big.Int).Set(bal)
	}
	return big.NewInt(0)
}
