// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis defines the initial state of a vault deployment: the
// vault catalog, the token distribution and the privileged accounts.
package genesis

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"os"

	"github.com/pkg/errors"

	"github.com/nuonetwork/stakevault/kv"
	"github.com/nuonetwork/stakevault/nuo"
	"github.com/nuonetwork/stakevault/token"
	"github.com/nuonetwork/stakevault/vault"
)

var appliedKey = []byte("gn-applied")

// Account is an initial token holder.
type Account struct {
	Address nuo.Address `json:"address"`
	Balance *big.Int `json:"balance"`
}

// Genesis describes the initial state of a deployment.
type Genesis struct {
	Name     string        `json:"name"`
	Admin    nuo.Address   `json:"admin"`
	Custody  nuo.Address   `json:"custody"`
	Accounts []Account     `json:"accounts"`
	Vaults   []vault.Vault `json:"vaults"`
}

// Load reads a genesis definition from a JSON file.
func Load(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	var g Genesis
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, errors.Wrap(err, "parse genesis file")
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// Validate checks the definition for internal consistency.
func (g *Genesis) Validate() error {
	if g.Name == "" {
		return errors.New("genesis: name must not be empty")
	}
	if g.Admin.IsZero() {
		return errors.New("genesis: admin must be set")
	}
	if g.Custody.IsZero() {
		return errors.New("genesis: custody must be set")
	}
	for _, acc := range g.Accounts {
		if acc.Balance == nil || acc.Balance.Sign() <= 0 {
			return errors.Errorf("genesis: account %v balance must be positive", acc.Address)
		}
	}
	if len(g.Vaults) == 0 {
		return errors.New("genesis: at least one vault required")
	}
	for _, v := range g.Vaults {
		if err := v.Validate(); err != nil {
			return errors.Wrapf(err, "genesis: vault %d", v.ID)
		}
	}
	return nil
}

// ID returns a digest of the definition. It pins a data directory to the
// genesis it was initialized with.
func (g *Genesis) ID() string {
	data, _ := json.Marshal(g)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Apply builds the vault registry and, on first use of the store, mints the
// initial token distribution. Re-applying the same genesis is a no-op;
// applying a different one to an initialized store fails.
func (g *Genesis) Apply(store kv.Store, tok *token.Token) (*vault.Registry, error) {
	registry, err := vault.NewRegistry(g.Vaults)
	if err != nil {
		return nil, err
	}

	applied, err := store.Get(appliedKey)
	if err == nil {
		if string(applied) != g.ID() {
			return nil, errors.New("genesis: store was initialized with a different genesis")
		}
		return registry, nil
	}
	if !store.IsNotFound(err) {
		return nil, err
	}

	for _, acc := range g.Accounts {
		if err := tok.Mint(acc.Address, acc.Balance); err != nil {
			return nil, errors.Wrapf(err, "genesis: mint to %v", acc.Address)
		}
	}
	if err := store.Put(appliedKey, []byte(g.ID())); err != nil {
		return nil, err
	}
	return registry, nil
}
