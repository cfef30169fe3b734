// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/nuonetwork/stakevault/nuo"
)

// StakeRequest opens a new stake. Now is optional and defaults to the
// server clock.
type StakeRequest struct {
	Caller  nuo.Address           `json:"caller"`
	Amount  *math.HexOrDecimal256 `json:"amount"`
	VaultID uint32                `json:"vaultId"`
	Now     uint64                `json:"now,omitempty"`
}

// ActionRequest drives claim, restake and unstake on an existing stake.
type ActionRequest struct {
	Caller        nuo.Address `json:"caller"`
	TargetVaultID uint32      `json:"targetVaultId,omitempty"`
	Now           uint64      `json:"now,omitempty"`
}

// StakeReceipt is the result of opening a stake.
type StakeReceipt struct {
	StakeID uint64 `json:"stakeId"`
}

// AmountReceipt reports tokens moved by a claim or an unstake.
type AmountReceipt struct {
	Amount *big.Int `json:"amount"`
}
