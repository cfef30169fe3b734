// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package nuo

import "math/big"

// Constants of the NUO token and the staking ledger.
const (
	// TokenName name of the NUO token.
	TokenName = "NUO Token"
	// TokenSymbol symbol of the NUO token.
	TokenSymbol = "NUO"
	// TokenDecimals number of decimals of the NUO token.
	TokenDecimals = 18

	// SecondsPerDay seconds in a day, the unit cliff durations are quoted in.
	SecondsPerDay = uint64(24 * 60 * 60)
)

// UnitWei 1e18, the number of base units per whole token.
var UnitWei = new(big.Int).Exp(big.NewInt(10), big.NewInt(TokenDecimals), nil)

// WholeTokens converts n whole tokens into base units.
func WholeTokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), UnitWei)
}
