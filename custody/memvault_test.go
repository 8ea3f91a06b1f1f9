// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package custody

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backstopfi/backstop/backstop"
)

var (
	self  = backstop.BytesToAddress([]byte("module"))
	alice = backstop.BytesToAddress([]byte("alice"))
	asset = backstop.BytesToAddress([]byte("asset"))
)

func TestTransferOut(t *testing.T) {
	v := NewMemVault(self)
	v.Mint(asset, self, big.NewInt(1000))

	require.NoError(t, v.TransferOut(asset, alice, big.NewInt(400)))
	assert.Equal(t, big.NewInt(600), v.BalanceOf(asset, self))
	assert.Equal(t, big.NewInt(400), v.BalanceOf(asset, alice))
}

func TestTransferOutShort(t *testing.T) {
	v := NewMemVault(self)
	v.Mint(asset, self, big.NewInt(100))

	err := v.TransferOut(asset, alice, big.NewInt(200))
	assert.ErrorIs(t, err, backstop.ErrInsufficientBalance)
	assert.Equal(t, big.NewInt(100), v.BalanceOf(asset, self))

	// unknown asset behaves like a zero balance
	err = v.TransferOut(backstop.BytesToAddress([]byte("other")), alice, big.NewInt(1))
	assert.ErrorIs(t, err, backstop.ErrInsufficientBalance)
}

func TestBalanceOfReturnsCopy(t *testing.T) {
	v := NewMemVault(self)
	v.Mint(asset, self, big.NewInt(100))

	bal := v.BalanceOf(asset, self)
	bal.SetInt64(0)
	assert.Equal(t, big.NewInt(100), v.BalanceOf(asset, self))
}
