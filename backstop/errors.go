// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package backstop

import "errors"

// Module-wide error kinds. Every failing operation aborts with no partial
// state mutation and reports exactly one of these, possibly wrapped with
// call context.
var (
	// ErrUnauthorized caller lacks the required role for the operation.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidState operation not permitted in the current gate state.
	ErrInvalidState = errors.New("invalid state")
	// ErrAlreadyInitialized second call to initialize.
	ErrAlreadyInitialized = errors.New("already initialized")
	// ErrInsufficientShares redeem amount exceeds the owner's shares.
	ErrInsufficientShares = errors.New("insufficient shares")
	// ErrInsufficientBalance transfer exceeds the custodied balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrDelayNotElapsed withdrawal completed before its unlock time.
	ErrDelayNotElapsed = errors.New("delay not elapsed")
	// ErrWithdrawalNotFound unknown or already completed withdrawal id.
	ErrWithdrawalNotFound = errors.New("withdrawal not found")
	// ErrZeroAmount deposit or redeem of a non-positive amount.
	ErrZeroAmount = errors.New("zero amount")
	// ErrUnknownPool pool id does not name a configured pool.
	ErrUnknownPool = errors.New("unknown pool")
)
