// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"github.com/nuonetwork/stakevault/reverts"
)

// ErrNotFound vault id out of range.
var ErrNotFound = reverts.New("vault not found")

// Registry is the immutable, ordered catalog of vaults, indexed by id.
// It is read-only after construction and safe for concurrent use.
type Registry struct {
	vaults []Vault
}

// NewRegistry builds a registry from an ordered vault list.
// Vault ids must equal their position in the list.
func NewRegistry(vaults []Vault) (*Registry, error) {
	if len(vaults) == 0 {
		return nil, reverts.New("no vaults configured")
	}
	list := make([]Vault, len(vaults))
	copy(list, vaults)
	for i := range list {
		if list[i].ID != uint32(i) {
			return nil, reverts.Newf("vault %d: id does not match position %d", list[i].ID, i)
		}
		if err := list[i].Validate(); err != nil {
			return nil, err
		}
	}
	return &Registry{vaults: list}, nil
}

// Get returns the vault with the given id, ErrNotFound if out of range.
func (r *Registry) Get(id uint32) (*Vault, error) {
	if int(id) >= len(r.vaults) {
		return nil, ErrNotFound
	}
	v := r.vaults[id]
	return &v, nil
}

// List returns the ordered vault list.
func (r *Registry) List() []Vault {
	list := make([]Vault, len(r.vaults))
	copy(list, r.vaults)
	return list
}

// Len returns the number of vaults.
func (r *Registry) Len() int {
	return len(r.vaults)
}
