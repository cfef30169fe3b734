// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"math/big"

	"github.com/nuonetwork/stakevault/reverts"
)

// Vault is a fixed staking configuration. Vaults are set at genesis and are
// never mutated or removed afterwards.
type Vault struct {
	ID            uint32   `json:"id"`
	AnnualRate    uint32   `json:"annualRate"`    // total percent return over the cliff period
	Capacity      *big.Int `json:"capacity"`      // max cumulative staked principal
	CliffDuration uint64   `json:"cliffDuration"` // seconds until maturity
}

// Validate checks the vault invariants.
func (v *Vault) Validate() error {
	if v.Capacity == nil || v.Capacity.Sign() <= 0 {
		return reverts.Newf("vault %d: capacity must be positive", v.ID)
	}
	if v.CliffDuration == 0 {
		return reverts.Newf("vault %d: cliff duration must be positive", v.ID)
	}
	return nil
}
