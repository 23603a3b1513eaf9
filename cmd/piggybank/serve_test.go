package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/piggybank/cli"
	"go.dedis.ch/piggybank/core/access"
)

func TestServer_Contracts(t *testing.T) {
	app := newTestApp(t)

	app.mustRun("account", "create", "--name", "alice", "--balance", "100000")
	app.mustRun("init", "--sender", "alice")
	app.mustRun("insert", "--sender", "alice", "--contract", "0", "--amount", "20")

	e, err := openEnv(cli.FlagSet{"config": app.dir})
	require.NoError(t, err)

	defer e.Close()

	srv, err := newServer(e.chain, e.exec)
	require.NoError(t, err)

	rec := serveRequest(srv, http.MethodGet, "/contracts/0")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	var view contractView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, uint64(0), view.Index)
	require.Equal(t, "piggybank", view.Contract)
	require.Equal(t, uint64(20), view.Balance)
	require.Equal(t, "Intact", view.State)
	require.Equal(t, []string{"insert", "smash", "view"}, view.Entrypoints)

	inst, err := e.chain.Instance(access.ContractAddress{Index: 0})
	require.NoError(t, err)
	require.Equal(t, inst.Owner, view.Owner)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Equal(t, hex.EncodeToString(inst.Owner[:]), raw["owner"])

	rec = serveRequest(srv, http.MethodGet, "/contracts/abc")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid index 'abc'")

	rec = serveRequest(srv, http.MethodGet, "/contracts/5")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = serveRequest(srv, http.MethodPost, "/contracts/0")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_ListContracts(t *testing.T) {
	app := newTestApp(t)

	e, err := openEnv(cli.FlagSet{"config": app.dir})
	require.NoError(t, err)

	srv, err := newServer(e.chain, e.exec)
	require.NoError(t, err)

	rec := serveRequest(srv, http.MethodGet, "/contracts/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[]", rec.Body.String())

	require.NoError(t, e.Close())

	app.mustRun("account", "create", "--name", "alice", "--balance", "100000")
	app.mustRun("account", "create", "--name", "bob", "--balance", "100000")
	app.mustRun("init", "--sender", "alice")
	app.mustRun("init", "--sender", "bob")
	app.mustRun("insert", "--sender", "alice", "--contract", "0", "--amount", "3")
	app.mustRun("insert", "--sender", "bob", "--contract", "1", "--amount", "7")
	app.mustRun("smash", "--sender", "alice", "--contract", "0")

	e, err = openEnv(cli.FlagSet{"config": app.dir})
	require.NoError(t, err)

	defer e.Close()

	srv, err = newServer(e.chain, e.exec)
	require.NoError(t, err)

	rec = serveRequest(srv, http.MethodGet, "/contracts/")
	require.Equal(t, http.StatusOK, rec.Code)

	var views []contractView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 2)

	require.Equal(t, uint64(0), views[0].Index)
	require.Equal(t, "Smashed", views[0].State)
	require.Equal(t, uint64(1), views[1].Index)
	require.Equal(t, "Intact", views[1].State)
	require.Equal(t, uint64(7), views[1].Balance)
	require.NotEqual(t, views[0].Owner, views[1].Owner)
}

func TestServer_Metrics(t *testing.T) {
	app := newTestApp(t)

	e, err := openEnv(cli.FlagSet{"config": app.dir})
	require.NoError(t, err)

	defer e.Close()

	srv, err := newServer(e.chain, e.exec)
	require.NoError(t, err)

	rec := serveRequest(srv, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "piggybank_chain_instances")
}

func TestServer_RequestID(t *testing.T) {
	app := newTestApp(t)

	e, err := openEnv(cli.FlagSet{"config": app.dir})
	require.NoError(t, err)

	defer e.Close()

	srv, err := newServer(e.chain, e.exec)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/contracts/0", nil)
	req.Header.Set("X-Request-Id", "abc")

	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, req)

	require.Equal(t, "abc", rec.Header().Get("X-Request-Id"))
}

func TestServeAction(t *testing.T) {
	app := newTestApp(t)

	signals := make(chan os.Signal, 1)
	signals <- os.Interrupt

	buf := new(bytes.Buffer)
	a := action{printer: buf, signals: signals}

	err := a.serveAction(cli.FlagSet{"config": app.dir, "addr": "127.0.0.1:0"})
	require.NoError(t, err)
	require.Contains(t, buf.String(), "serving on 127.0.0.1:")
	require.Contains(t, buf.String(), "server stopped")

	err = a.serveAction(cli.FlagSet{"config": app.dir, "addr": "not an address"})
	require.Error(t, err)
	require.Regexp(t, "^failed to listen: ", err.Error())
}

// -----------------------------------------------------------------------------
// Utility functions

func serveRequest(srv *server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()

	srv.http.Handler.ServeHTTP(rec, req)

	return rec
}
