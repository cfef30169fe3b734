// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuonetwork/stakevault/engine"
	"github.com/nuonetwork/stakevault/historydb"
	"github.com/nuonetwork/stakevault/lvldb"
	"github.com/nuonetwork/stakevault/nuo"
	"github.com/nuonetwork/stakevault/stake"
	"github.com/nuonetwork/stakevault/token"
	"github.com/nuonetwork/stakevault/vault"
)

const (
	day = nuo.SecondsPerDay
	t0  = uint64(1_700_000_000)
)

var (
	custody   = nuo.BytesToAddress([]byte("custody"))
	adminAddr = nuo.BytesToAddress([]byte("admin"))
	alice     = nuo.BytesToAddress([]byte("alice"))
	bob       = nuo.BytesToAddress([]byte("bob"))
)

type testServer struct {
	*httptest.Server
	engine *engine.Engine
}

func newTestServer(t *testing.T) *testServer {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	registry, err := vault.NewRegistry([]vault.Vault{
		{ID: 0, AnnualRate: 60, Capacity: nuo.WholeTokens(1_000_000), CliffDuration: 360 * day},
		{ID: 1, AnnualRate: 30, Capacity: nuo.WholeTokens(1_000_000), CliffDuration: 180 * day},
	})
	require.NoError(t, err)

	tok := token.New(db)
	require.NoError(t, tok.Mint(alice, nuo.WholeTokens(1000)))
	require.NoError(t, tok.Mint(custody, nuo.WholeTokens(1000)))
	require.NoError(t, tok.Approve(alice, custody, nuo.WholeTokens(1000)))

	eng := engine.New(registry, stake.NewLedger(db), tok, db, engine.Options{
		Custody: custody,
		Admin:   adminAddr,
	})

	historyDB, err := historydb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { historyDB.Close() })

	handler, closer := New(eng, tok, historyDB, Options{
		AllowedOrigins: "*",
		HistoryLimit:   100,
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(func() { srv.Close(); closer() })
	return &testServer{srv, eng}
}

func (s *testServer) get(t *testing.T, path string) (int, []byte) {
	res, err := http.Get(s.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, body
}

func (s *testServer) post(t *testing.T, path string, payload interface{}) (int, []byte) {
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	res, err := http.Post(s.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, body
}

func TestGetVaults(t *testing.T) {
	srv := newTestServer(t)

	code, body := srv.get(t, "/vaults")
	require.Equal(t, http.StatusOK, code)

	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got, 2)
	assert.Equal(t, float64(60), got[0]["annualRate"])

	code, body = srv.get(t, "/vaults/1")
	require.Equal(t, http.StatusOK, code)
	var one map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &one))
	assert.Equal(t, float64(1), one["id"])

	code, body = srv.get(t, "/vaults/9")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "vault not found", strings.TrimSpace(string(body)))

	code, _ = srv.get(t, "/vaults/notanumber")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestStakeLifecycle(t *testing.T) {
	srv := newTestServer(t)

	code, body := srv.post(t, "/stakes", map[string]interface{}{
		"caller":  alice.String(),
		"amount":  "1000",
		"vaultId": 0,
		"now":     t0,
	})
	require.Equal(t, http.StatusOK, code, string(body))
	var receipt map[string]uint64
	require.NoError(t, json.Unmarshal(body, &receipt))
	assert.Equal(t, uint64(1), receipt["stakeId"])

	code, body = srv.get(t, "/stakes/1")
	require.Equal(t, http.StatusOK, code)
	var info map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &info))
	assert.Equal(t, strings.ToLower(alice.String()), strings.ToLower(info["owner"].(string)))

	// pre-cliff claims are rejected with the revert message verbatim
	code, body = srv.post(t, "/stakes/1/claim", map[string]interface{}{
		"caller": alice.String(),
		"now":    t0 + 179*day,
	})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "stake is not matured yet", strings.TrimSpace(string(body)))

	code, body = srv.get(t, fmt.Sprintf("/stakes/1/claimable?now=%d", t0+360*day))
	require.Equal(t, http.StatusOK, code)
	var claimable map[string]json.Number
	require.NoError(t, json.Unmarshal(body, &claimable))
	assert.Equal(t, "600", claimable["amount"].String())

	code, body = srv.post(t, "/stakes/1/claim", map[string]interface{}{
		"caller": alice.String(),
		"now":    t0 + 360*day,
	})
	require.Equal(t, http.StatusOK, code, string(body))

	code, body = srv.post(t, "/stakes/1/restake", map[string]interface{}{
		"caller":        alice.String(),
		"targetVaultId": 1,
		"now":           t0 + 360*day,
	})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "insufficient reward to restake", strings.TrimSpace(string(body)))

	code, body = srv.post(t, "/stakes/1/unstake", map[string]interface{}{
		"caller": alice.String(),
		"now":    t0 + 360*day,
	})
	require.Equal(t, http.StatusOK, code, string(body))
	var principal map[string]json.Number
	require.NoError(t, json.Unmarshal(body, &principal))
	assert.Equal(t, "1000", principal["amount"].String())

	code, body = srv.get(t, "/stakes?owner="+alice.String())
	require.Equal(t, http.StatusOK, code)
	var stakes []map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &stakes))
	assert.Len(t, stakes, 1)

	code, _ = srv.get(t, "/stakes/99")
	assert.Equal(t, http.StatusForbidden, code)
}

func TestStakeBadRequests(t *testing.T) {
	srv := newTestServer(t)

	code, _ := srv.post(t, "/stakes", map[string]interface{}{
		"caller":  alice.String(),
		"vaultId": 0,
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = srv.post(t, "/stakes", map[string]interface{}{
		"caller":  alice.String(),
		"amount":  "1000",
		"vaultId": 0,
		"bogus":   true,
	})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestTokenEndpoints(t *testing.T) {
	srv := newTestServer(t)

	code, body := srv.get(t, "/token")
	require.Equal(t, http.StatusOK, code)
	var info map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &info))
	assert.Equal(t, nuo.TokenSymbol, info["symbol"])
	assert.Equal(t, false, info["paused"])

	code, body = srv.get(t, "/token/balances/"+bob.String())
	require.Equal(t, http.StatusOK, code)
	var balance map[string]json.Number
	require.NoError(t, json.Unmarshal(body, &balance))
	assert.Equal(t, "0", balance["balance"].String())

	code, _ = srv.post(t, "/token/transfers", map[string]interface{}{
		"caller": alice.String(),
		"to":     bob.String(),
		"amount": "7",
	})
	require.Equal(t, http.StatusOK, code)

	code, body = srv.get(t, "/token/balances/"+bob.String())
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &balance))
	assert.Equal(t, "7", balance["balance"].String())

	code, body = srv.post(t, "/token/transfers", map[string]interface{}{
		"caller": bob.String(),
		"to":     alice.String(),
		"amount": "1000000",
	})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "insufficient balance", strings.TrimSpace(string(body)))

	code, body = srv.get(t, "/token/allowances/"+alice.String()+"/"+custody.String())
	require.Equal(t, http.StatusOK, code)
	var allowance map[string]json.Number
	require.NoError(t, json.Unmarshal(body, &allowance))
	assert.NotEqual(t, "0", allowance["allowance"].String())
}

func TestAdminEndpoints(t *testing.T) {
	srv := newTestServer(t)

	code, body := srv.post(t, "/admin/pause", map[string]interface{}{
		"caller": alice.String(),
	})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "caller is not the admin", strings.TrimSpace(string(body)))

	code, _ = srv.post(t, "/admin/pause", map[string]interface{}{
		"caller": adminAddr.String(),
	})
	require.Equal(t, http.StatusOK, code)

	code, body = srv.get(t, "/admin/status")
	require.Equal(t, http.StatusOK, code)
	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Equal(t, true, status["paused"])

	code, body = srv.post(t, "/stakes", map[string]interface{}{
		"caller":  alice.String(),
		"amount":  "1000",
		"vaultId": 0,
	})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "staking is paused", strings.TrimSpace(string(body)))

	code, _ = srv.post(t, "/admin/unpause", map[string]interface{}{
		"caller": adminAddr.String(),
	})
	require.Equal(t, http.StatusOK, code)
}

func TestHistoryEndpoint(t *testing.T) {
	srv := newTestServer(t)

	// the recorder wiring lives in the node, write directly here
	code, body := srv.post(t, "/history/events", map[string]interface{}{})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, "[]", string(body))

	code, body = srv.post(t, "/history/events", map[string]interface{}{
		"options": map[string]interface{}{"offset": 0, "limit": 1000},
	})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Contains(t, string(body), "options.limit exceeds")
}

func TestSubscribeEvents(t *testing.T) {
	srv := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/subscriptions/events"
	conn, res, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	defer res.Body.Close()

	_, err = srv.engine.Stake(alice, nuo.WholeTokens(1), 0, t0)
	require.NoError(t, err)

	var ev engine.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, engine.EventStaked, ev.Type)
	assert.Equal(t, uint64(1), ev.StakeID)
}
