// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tokens

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/nuonetwork/stakevault/api/utils"
	"github.com/nuonetwork/stakevault/nuo"
	"github.com/nuonetwork/stakevault/token"
)

type Tokens struct {
	token *token.Token
}

// Info describes the token.
type Info struct {
	Name        string   `json:"name"`
	Symbol      string   `json:"symbol"`
	Decimals    uint8    `json:"decimals"`
	TotalSupply *big.Int `json:"totalSupply"`
	Paused      bool     `json:"paused"`
}

// TransferRequest moves tokens from the caller's balance.
type TransferRequest struct {
	Caller nuo.Address           `json:"caller"`
	To     nuo.Address           `json:"to"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// ApproveRequest sets the caller's allowance for a spender.
type ApproveRequest struct {
	Caller  nuo.Address           `json:"caller"`
	Spender nuo.Address           `json:"spender"`
	Amount  *math.HexOrDecimal256 `json:"amount"`
}

func New(token *token.Token) *Tokens {
	return &Tokens{token}
}

func (t *Tokens) handleGetInfo(w http.ResponseWriter, _ *http.Request) error {
	supply, err := t.token.TotalSupply()
	if err != nil {
		return err
	}
	paused, err := t.token.Paused()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Info{
		Name:        nuo.TokenName,
		Symbol:      nuo.TokenSymbol,
		Decimals:    nuo.TokenDecimals,
		TotalSupply: supply,
		Paused:      paused,
	})
}

func (t *Tokens) handleGetBalance(w http.ResponseWriter, req *http.Request) error {
	addr, err := nuo.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	balance, err := t.token.BalanceOf(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"balance": balance})
}

func (t *Tokens) handleGetAllowance(w http.ResponseWriter, req *http.Request) error {
	owner, err := nuo.ParseAddress(mux.Vars(req)["owner"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "owner"))
	}
	spender, err := nuo.ParseAddress(mux.Vars(req)["spender"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "spender"))
	}
	allowance, err := t.token.Allowance(owner, spender)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"allowance": allowance})
}

func (t *Tokens) handleApprove(w http.ResponseWriter, req *http.Request) error {
	var body ApproveRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Amount == nil {
		return utils.BadRequest(errors.New("amount: missing"))
	}
	if err := t.token.Approve(body.Caller, body.Spender, (*big.Int)(body.Amount)); err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"approved": true})
}

func (t *Tokens) handleTransfer(w http.ResponseWriter, req *http.Request) error {
	var body TransferRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Amount == nil {
		return utils.BadRequest(errors.New("amount: missing"))
	}
	if err := t.token.Transfer(body.Caller, body.To, (*big.Int)(body.Amount)); err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"transferred": true})
}

func (t *Tokens) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /token").
		HandlerFunc(utils.WrapHandlerFunc(t.handleGetInfo))
	sub.Path("/balances/{address}").
		Methods(http.MethodGet).
		Name("GET /token/balances/{address}").
		HandlerFunc(utils.WrapHandlerFunc(t.handleGetBalance))
	sub.Path("/allowances/{owner}/{spender}").
		Methods(http.MethodGet).
		Name("GET /token/allowances/{owner}/{spender}").
		HandlerFunc(utils.WrapHandlerFunc(t.handleGetAllowance))
	sub.Path("/approvals").
		Methods(http.MethodPost).
		Name("POST /token/approvals").
		HandlerFunc(utils.WrapHandlerFunc(t.handleApprove))
	sub.Path("/transfers").
		Methods(http.MethodPost).
		Name("POST /token/transfers").
		HandlerFunc(utils.WrapHandlerFunc(t.handleTransfer))
}
