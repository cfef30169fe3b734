// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api exposes the staking engine over HTTP.
package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/nuonetwork/stakevault/api/admin"
	"github.com/nuonetwork/stakevault/api/history"
	"github.com/nuonetwork/stakevault/api/stakes"
	"github.com/nuonetwork/stakevault/api/subscriptions"
	"github.com/nuonetwork/stakevault/api/tokens"
	"github.com/nuonetwork/stakevault/api/vaults"
	"github.com/nuonetwork/stakevault/engine"
	"github.com/nuonetwork/stakevault/historydb"
	"github.com/nuonetwork/stakevault/token"
)

type Options struct {
	AllowedOrigins string
	HistoryLimit   uint64
	EnableMetrics  bool
}

// New returns the api handler and a close function that shuts down
// hijacked subscription connections.
func New(
	eng *engine.Engine,
	tok *token.Token,
	historyDB *historydb.HistoryDB,
	opts Options,
) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	vaults.New(eng).
		Mount(router, "/vaults")
	stakes.New(eng).
		Mount(router, "/stakes")
	tokens.New(tok).
		Mount(router, "/token")
	history.New(historyDB, opts.HistoryLimit).
		Mount(router, "/history")
	admin.New(eng).
		Mount(router, "/admin")
	subs := subscriptions.New(eng, origins)
	subs.Mount(router, "/subscriptions")

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	return handler.ServeHTTP, subs.Close
}
