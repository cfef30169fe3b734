// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"github.com/nuonetwork/stakevault/nuo"
	"github.com/nuonetwork/stakevault/vault"
)

// DevAccounts are the pre-funded holders of the development network.
var DevAccounts = []nuo.Address{
	nuo.MustParseAddress("0xf077b491b355e64048ce21e3a6fc4751eeea77fa"),
	nuo.MustParseAddress("0x435933c8064b4ae76be665428e0307ef2ccfbd68"),
	nuo.MustParseAddress("0x0f872421dc479f3c11edd89512731814d0598db5"),
	nuo.MustParseAddress("0xf370940abdbd2583bc80bfc19d19bc216c88ccf0"),
}

// DevAdmin administers the development network and holds custody of
// staked tokens.
var DevAdmin = nuo.MustParseAddress("0x99602e4bbc0503b8ff4432bb1857f916c3653b85")

// Devnet returns the genesis of the development network: three vaults with
// descending lockups and a generous distribution to the dev accounts.
func Devnet() *Genesis {
	g := &Genesis{
		Name:    "devnet",
		Admin:   DevAdmin,
		Custody: DevAdmin,
		Vaults: []vault.Vault{
			{ID: 0, AnnualRate: 60, Capacity: nuo.WholeTokens(1_000_000_000), CliffDuration: 360 * nuo.SecondsPerDay},
			{ID: 1, AnnualRate: 30, Capacity: nuo.WholeTokens(1_000_000_000), CliffDuration: 180 * nuo.SecondsPerDay},
			{ID: 2, AnnualRate: 15, Capacity: nuo.WholeTokens(1_000_000_000), CliffDuration: 90 * nuo.SecondsPerDay},
		},
	}
	// the custody account is funded with the reward reserve
	g.Accounts = append(g.Accounts, Account{
		Address: DevAdmin,
		Balance: nuo.WholeTokens(100_000_000),
	})
	for _, addr := range DevAccounts {
		g.Accounts = append(g.Accounts, Account{
			Address: addr,
			Balance: nuo.WholeTokens(25_000_000),
		})
	}
	return g
}
