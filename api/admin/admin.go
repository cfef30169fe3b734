// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/nuonetwork/stakevault/api/utils"
	"github.com/nuonetwork/stakevault/engine"
	"github.com/nuonetwork/stakevault/nuo"
)

type Admin struct {
	engine *engine.Engine
}

// PauseRequest identifies the caller of a pause or unpause.
type PauseRequest struct {
	Caller nuo.Address `json:"caller"`
	Now    uint64      `json:"now,omitempty"`
}

func New(engine *engine.Engine) *Admin {
	return &Admin{engine}
}

func (a *Admin) handleGetStatus(w http.ResponseWriter, _ *http.Request) error {
	paused, err := a.engine.Paused()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{
		"paused":  paused,
		"custody": a.engine.Custody(),
	})
}

func (a *Admin) handlePause(w http.ResponseWriter, req *http.Request) error {
	return a.setPaused(w, req, true)
}

func (a *Admin) handleUnpause(w http.ResponseWriter, req *http.Request) error {
	return a.setPaused(w, req, false)
}

func (a *Admin) setPaused(w http.ResponseWriter, req *http.Request, paused bool) error {
	var body PauseRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	now := body.Now
	if now == 0 {
		now = uint64(time.Now().Unix())
	}
	var err error
	if paused {
		err = a.engine.Pause(body.Caller, now)
	} else {
		err = a.engine.Unpause(body.Caller, now)
	}
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"paused": paused})
}

func (a *Admin) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/status").
		Methods(http.MethodGet).
		Name("GET /admin/status").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetStatus))
	sub.Path("/pause").
		Methods(http.MethodPost).
		Name("POST /admin/pause").
		HandlerFunc(utils.WrapHandlerFunc(a.handlePause))
	sub.Path("/unpause").
		Methods(http.MethodPost).
		Name("POST /admin/unpause").
		HandlerFunc(utils.WrapHandlerFunc(a.handleUnpause))
}
