// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reward

import (
	"math/big"

	"github.com/nuonetwork/stakevault/stake"
	"github.com/nuonetwork/stakevault/vault"
)

// Pure accrual math. Reward ramps linearly from zero at creation to the
// vault's maximum payout at the cliff, and is capped there: holding past
// maturity accrues nothing further.

// Max returns the total reward payable once fully matured:
// principal * rate / 100. The rate is the total return over the cliff
// period, not an annualized rate to be compounded.
func Max(entry *stake.Stake, v *vault.Vault) *big.Int {
	max := new(big.Int).Mul(entry.Principal, new(big.Int).SetUint64(uint64(v.AnnualRate)))
	return max.Div(max, big.NewInt(100))
}

// Accrued returns the reward accrued up to now, pre claim subtraction.
func Accrued(entry *stake.Stake, v *vault.Vault, now uint64) *big.Int {
	elapsed := entry.Elapsed(now)
	if elapsed >= v.CliffDuration {
		return Max(entry, v)
	}
	accrued := Max(entry, v)
	accrued.Mul(accrued, new(big.Int).SetUint64(elapsed))
	return accrued.Div(accrued, new(big.Int).SetUint64(v.CliffDuration))
}

// Claimable returns accrued reward minus what was already claimed, floored at zero.
func Claimable(entry *stake.Stake, v *vault.Vault, now uint64) *big.Int {
	claimable := Accrued(entry, v, now)
	claimable.Sub(claimable, entry.ClaimedReward)
	if claimable.Sign() < 0 {
		return new(big.Int)
	}
	return claimable
}

// IsMatured reports whether the stake has held through the vault's cliff.
func IsMatured(entry *stake.Stake, v *vault.Vault, now uint64) bool {
	return entry.Elapsed(now) >= v.CliffDuration
}
