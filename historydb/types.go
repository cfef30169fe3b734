// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package historydb

import (
	"math/big"

	"github.com/nuonetwork/stakevault/engine"
	"github.com/nuonetwork/stakevault/nuo"
)

// Event is a stored engine event with its sequence number.
type Event struct {
	Seq     uint64           `json:"seq"`
	Type    engine.EventType `json:"type"`
	StakeID uint64           `json:"stakeId"`
	VaultID uint32           `json:"vaultId"`
	Owner   nuo.Address      `json:"owner"`
	Amount  *big.Int         `json:"amount"`
	Time    uint64           `json:"time"`
}

// TimeRange filters events by their unix timestamp, inclusive on both ends.
type TimeRange struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

// Options control paging.
type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// Order of returned events by sequence number.
type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// EventFilter selects events. Nil fields match everything.
type EventFilter struct {
	Owner   *nuo.Address       `json:"owner"`
	VaultID *uint32            `json:"vaultId"`
	StakeID *uint64            `json:"stakeId"`
	Types   []engine.EventType `json:"types"`
	Range   *TimeRange         `json:"range"`
	Options *Options           `json:"options"`
	Order   Order              `json:"order"`
}
