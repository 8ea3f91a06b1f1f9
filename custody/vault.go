// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package custody abstracts the asset-transfer primitive. The ledger
// decides amounts and destinations; the vault performs the real money
// movement and is the last fallible step of every operation.
package custody

import (
	"math/big"

	"github.com/backstopfi/backstop/backstop"
)

// Vault moves custodied assets on behalf of the module.
type Vault interface {
	// TransferOut moves amount of asset from the module's custody to the
	// receiver. It fails with ErrInsufficientBalance when the custodied
	// funds are short.
	TransferOut(asset backstop.AssetID, to backstop.Address, amount *big.Int) error
	// BalanceOf reports the custodied balance of asset held for who.
	BalanceOf(asset backstop.AssetID, who backstop.Address) *big.Int
}
