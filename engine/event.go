// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package engine

import (
	"math/big"

	"github.com/nuonetwork/stakevault/nuo"
)

// EventType names a successful engine mutation.
type EventType string

const (
	EventStaked   EventType = "staked"
	EventClaimed  EventType = "claimed"
	EventRestaked EventType = "restaked"
	EventUnstaked EventType = "unstaked"
	EventPaused   EventType = "paused"
	EventUnpaused EventType = "unpaused"
)

// Event describes one successful mutation. For restakes, StakeID is the
// newly created stake and Amount the compounded reward.
type Event struct {
	Type    EventType   `json:"type"`
	StakeID uint64      `json:"stakeId,omitempty"`
	VaultID uint32      `json:"vaultId"`
	Owner   nuo.Address `json:"owner"`
	Amount  *big.Int    `json:"amount,omitempty"`
	Time    uint64      `json:"time"`
}
