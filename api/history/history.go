// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package history

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/nuonetwork/stakevault/api/utils"
	"github.com/nuonetwork/stakevault/historydb"
)

type History struct {
	db    *historydb.HistoryDB
	limit uint64
}

func New(db *historydb.HistoryDB, limit uint64) *History {
	return &History{db, limit}
}

func (h *History) handleFilter(w http.ResponseWriter, req *http.Request) error {
	var filter historydb.EventFilter
	if err := utils.ParseJSON(req.Body, &filter); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if filter.Options == nil {
		filter.Options = &historydb.Options{Limit: h.limit}
	} else if filter.Options.Limit > h.limit {
		return utils.Forbidden(errors.Errorf("options.limit exceeds the maximum allowed value of %v", h.limit))
	}
	events, err := h.db.Filter(req.Context(), &filter)
	if err != nil {
		return err
	}
	if events == nil {
		events = []*historydb.Event{}
	}
	return utils.WriteJSON(w, events)
}

func (h *History) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").
		Methods(http.MethodPost).
		Name("POST /history/events").
		HandlerFunc(utils.WrapHandlerFunc(h.handleFilter))
}
