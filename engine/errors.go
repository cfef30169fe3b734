// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package engine

import (
	"github.com/nuonetwork/stakevault/reverts"
)

// Business-rule rejections. Each aborts the whole operation with no partial
// state change; messages are surfaced to callers verbatim.
var (
	// ErrPaused all mutating operations are disabled.
	ErrPaused = reverts.New("staking is paused")
	// ErrNotAdmin privileged operation attempted by a non-admin caller.
	ErrNotAdmin = reverts.New("caller is not the admin")
	// ErrNotStaker caller does not own the stake.
	ErrNotStaker = reverts.New("caller is not the staker")
	// ErrNotMatured reward claims are gated until the cliff has elapsed.
	ErrNotMatured = reverts.New("stake is not matured yet")
	// ErrCannotUnstakeBeforeCliff principal is locked until the cliff has elapsed.
	ErrCannotUnstakeBeforeCliff = reverts.New("cannot unstake before the cliff period")
	// ErrAlreadyUnstaked principal was already withdrawn.
	ErrAlreadyUnstaked = reverts.New("no staked tokens in the vault")
	// ErrNoClaimsAvailable nothing left to claim.
	ErrNoClaimsAvailable = reverts.New("no claims available")
	// ErrInsufficientReward nothing available to restake.
	ErrInsufficientReward = reverts.New("insufficient reward to restake")
	// ErrInsufficientBalance caller's token balance is below the stake amount.
	ErrInsufficientBalance = reverts.New("insufficient token balance")
	// ErrInsufficientAllowance caller has not approved the custody account.
	ErrInsufficientAllowance = reverts.New("insufficient token allowance")
	// ErrCapacityExceeded the vault cannot take the amount without breaching its cap.
	ErrCapacityExceeded = reverts.New("vault capacity exceeded")
	// ErrZeroAmount stake amounts must be positive.
	ErrZeroAmount = reverts.New("amount must be positive")
)
