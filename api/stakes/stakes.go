// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/nuonetwork/stakevault/api/utils"
	"github.com/nuonetwork/stakevault/engine"
	"github.com/nuonetwork/stakevault/nuo"
)

type Stakes struct {
	engine *engine.Engine
}

func New(engine *engine.Engine) *Stakes {
	return &Stakes{engine}
}

func (s *Stakes) handleCreateStake(w http.ResponseWriter, req *http.Request) error {
	var body StakeRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Amount == nil {
		return utils.BadRequest(errors.New("amount: missing"))
	}
	id, err := s.engine.Stake(body.Caller, (*big.Int)(body.Amount), body.VaultID, orNow(body.Now))
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &StakeReceipt{StakeID: id})
}

func (s *Stakes) handleGetStake(w http.ResponseWriter, req *http.Request) error {
	id, err := parseStakeID(mux.Vars(req)["id"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	entry, err := s.engine.GetStakeInfo(id)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, entry)
}

func (s *Stakes) handleGetStakes(w http.ResponseWriter, req *http.Request) error {
	owner, err := nuo.ParseAddress(req.URL.Query().Get("owner"))
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "owner"))
	}
	stakes, err := s.engine.StakesOf(owner)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, stakes)
}

func (s *Stakes) handleGetReward(w http.ResponseWriter, req *http.Request) error {
	id, err := parseStakeID(mux.Vars(req)["id"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	now, err := parseNow(req)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "now"))
	}
	reward, err := s.engine.GetStakingReward(id, now)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &AmountReceipt{Amount: reward})
}

func (s *Stakes) handleGetClaimable(w http.ResponseWriter, req *http.Request) error {
	id, err := parseStakeID(mux.Vars(req)["id"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	now, err := parseNow(req)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "now"))
	}
	claimable, err := s.engine.GetClaimableTokens(id, now)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &AmountReceipt{Amount: claimable})
}

func (s *Stakes) handleClaim(w http.ResponseWriter, req *http.Request) error {
	id, body, err := parseAction(req)
	if err != nil {
		return err
	}
	claimed, err := s.engine.ClaimReward(body.Caller, id, orNow(body.Now))
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &AmountReceipt{Amount: claimed})
}

func (s *Stakes) handleRestake(w http.ResponseWriter, req *http.Request) error {
	id, body, err := parseAction(req)
	if err != nil {
		return err
	}
	newID, err := s.engine.RestakeRewards(body.Caller, id, body.TargetVaultID, orNow(body.Now))
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &StakeReceipt{StakeID: newID})
}

func (s *Stakes) handleUnstake(w http.ResponseWriter, req *http.Request) error {
	id, body, err := parseAction(req)
	if err != nil {
		return err
	}
	principal, err := s.engine.Unstake(body.Caller, id, orNow(body.Now))
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &AmountReceipt{Amount: principal})
}

func parseAction(req *http.Request) (uint64, *ActionRequest, error) {
	id, err := parseStakeID(mux.Vars(req)["id"])
	if err != nil {
		return 0, nil, utils.BadRequest(errors.WithMessage(err, "id"))
	}
	var body ActionRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return 0, nil, utils.BadRequest(errors.WithMessage(err, "body"))
	}
	return id, &body, nil
}

func parseStakeID(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

// parseNow reads the optional now query parameter, defaulting to the
// server clock.
func parseNow(req *http.Request) (uint64, error) {
	raw := req.URL.Query().Get("now")
	if raw == "" {
		return uint64(time.Now().Unix()), nil
	}
	return strconv.ParseUint(raw, 10, 64)
}

func orNow(now uint64) uint64 {
	if now == 0 {
		return uint64(time.Now().Unix())
	}
	return now
}

func (s *Stakes) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /stakes").
		HandlerFunc(utils.WrapHandlerFunc(s.handleCreateStake))
	sub.Path("").
		Methods(http.MethodGet).
		Queries("owner", "{owner}").
		Name("GET /stakes?owner").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetStakes))
	sub.Path("/{id}").
		Methods(http.MethodGet).
		Name("GET /stakes/{id}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetStake))
	sub.Path("/{id}/reward").
		Methods(http.MethodGet).
		Name("GET /stakes/{id}/reward").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetReward))
	sub.Path("/{id}/claimable").
		Methods(http.MethodGet).
		Name("GET /stakes/{id}/claimable").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetClaimable))
	sub.Path("/{id}/claim").
		Methods(http.MethodPost).
		Name("POST /stakes/{id}/claim").
		HandlerFunc(utils.WrapHandlerFunc(s.handleClaim))
	sub.Path("/{id}/restake").
		Methods(http.MethodPost).
		Name("POST /stakes/{id}/restake").
		HandlerFunc(utils.WrapHandlerFunc(s.handleRestake))
	sub.Path("/{id}/unstake").
		Methods(http.MethodPost).
		Name("POST /stakes/{id}/unstake").
		HandlerFunc(utils.WrapHandlerFunc(s.handleUnstake))
}
