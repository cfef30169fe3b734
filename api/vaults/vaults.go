// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vaults

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/nuonetwork/stakevault/api/utils"
	"github.com/nuonetwork/stakevault/engine"
	"github.com/nuonetwork/stakevault/vault"
)

type Vaults struct {
	engine *engine.Engine
}

// Vault is a catalog entry together with its current staked total.
type Vault struct {
	ID            uint32   `json:"id"`
	AnnualRate    uint32   `json:"annualRate"`
	Capacity      *big.Int `json:"capacity"`
	CliffDuration uint64   `json:"cliffDuration"`
	TotalStaked   *big.Int `json:"totalStaked"`
}

func New(engine *engine.Engine) *Vaults {
	return &Vaults{engine}
}

func (v *Vaults) convertVault(entry *vault.Vault) (*Vault, error) {
	total, err := v.engine.VaultTotal(entry.ID)
	if err != nil {
		return nil, err
	}
	return &Vault{
		ID:            entry.ID,
		AnnualRate:    entry.AnnualRate,
		Capacity:      entry.Capacity,
		CliffDuration: entry.CliffDuration,
		TotalStaked:   total,
	}, nil
}

func (v *Vaults) handleGetVaults(w http.ResponseWriter, _ *http.Request) error {
	catalog := v.engine.GetVaults()
	out := make([]*Vault, 0, len(catalog))
	for i := range catalog {
		converted, err := v.convertVault(&catalog[i])
		if err != nil {
			return err
		}
		out = append(out, converted)
	}
	return utils.WriteJSON(w, out)
}

func (v *Vaults) handleGetVault(w http.ResponseWriter, req *http.Request) error {
	id, err := parseVaultID(mux.Vars(req)["id"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	entry, err := v.engine.GetVault(id)
	if err != nil {
		return err
	}
	converted, err := v.convertVault(entry)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, converted)
}

func parseVaultID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(id), nil
}

func (v *Vaults) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /vaults").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetVaults))
	sub.Path("/{id}").
		Methods(http.MethodGet).
		Name("GET /vaults/{id}").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetVault))
}
