// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package safety

import (
	"encoding/binary"
	"math/big"

	"github.com/backstopfi/backstop/backstop"
	"github.com/backstopfi/backstop/ledger"
)

// Withdrawal is one queued redemption. The shares were burned and the amount
// left the pool when the request was made; until release the amount sits in
// the pool's pending bucket where slashes still reach it.
type Withdrawal struct {
	ID       backstop.Bytes32
	Pool     ledger.PoolID
	Owner    backstop.Address
	Receiver backstop.Address
	Shares   *big.Int
	Amount   *big.Int
	// pool scale factor at request time; the payout is
	// Amount * ScaleFactor/ScaleSnapshot, so slashes after the request
	// shrink it pro-rata
	ScaleSnapshot *big.Int
	RequestedAt   uint64
	UnlockAt      uint64
}

// withdrawalID derives a unique id from the owner, the pool and a module
// scoped sequence number.
func withdrawalID(owner backstop.Address, pool ledger.PoolID, seq uint64) backstop.Bytes32 {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], seq)
	return backstop.Blake2b(owner.Bytes(), []byte(pool.String()), b[:])
}
