// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stake

import (
	"math/big"

	"github.com/nuonetwork/stakevault/nuo"
)

// Stake is one principal deposit. Records are append-only: once created they
// are mutated only through AddClaimed and MarkUnstaked, and never deleted.
type Stake struct {
	ID            uint64      `json:"id"`
	Owner         nuo.Address `json:"owner"`
	VaultID       uint32      `json:"vaultId"`
	Principal     *big.Int    `json:"principal"`
	CreatedAt     uint64      `json:"createdAt"` // unix seconds
	ClaimedReward *big.Int    `json:"claimedReward"`
	Unstaked      bool        `json:"unstaked"`
}

// Elapsed returns seconds since creation, zero if now precedes creation.
func (s *Stake) Elapsed(now uint64) uint64 {
	if now <= s.CreatedAt {
		return 0
	}
	return now - s.CreatedAt
}
