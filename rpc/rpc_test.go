package rpc_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolelom/snakegame/core"
	"github.com/tolelom/snakegame/events"
	"github.com/tolelom/snakegame/indexer"
	"github.com/tolelom/snakegame/internal/enginetest"
	"github.com/tolelom/snakegame/rpc"
	"github.com/tolelom/snakegame/vm"
)

type fixture struct {
	e      *enginetest.Engine
	hub    *rpc.Hub
	srv    *httptest.Server
	client *rpc.Client
}

func newFixture(t *testing.T, token string) *fixture {
	t.Helper()
	e := enginetest.New(t)
	store, err := indexer.OpenStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	indexer.New(store, e.Emitter)

	hub := rpc.NewHub(e.Emitter)
	server := rpc.NewServer("", rpc.NewHandler(e.Exec, store), hub, token, nil)
	srv := httptest.NewServer(server.Routes())
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return &fixture{e: e, hub: hub, srv: srv, client: rpc.NewClient(srv.URL, token)}
}

func dispatch(h *rpc.Handler, method string, params any) rpc.Response {
	raw, _ := json.Marshal(params)
	return h.Dispatch(context.Background(), rpc.Request{JSONRPC: "2.0", ID: 1, Method: method, Params: raw})
}

func TestHandlerReads(t *testing.T) {
	e := enginetest.New(t)
	h := rpc.NewHandler(e.Exec, nil)

	resp := dispatch(h, "getGameRound", nil)
	require.Nil(t, resp.Error)
	assert.Equal(t, uint64(1), resp.Result)

	resp = dispatch(h, "getScoreToClaimNft", nil)
	require.Nil(t, resp.Error)
	assert.Equal(t, uint64(50), resp.Result)

	resp = dispatch(h, "getChainID", nil)
	assert.Equal(t, enginetest.ChainID, resp.Result)

	resp = dispatch(h, "getPlayerData", map[string]string{})
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpc.CodeInvalidParams, resp.Error.Code)

	resp = dispatch(h, "getGameRoundData", map[string]uint64{"round": 4})
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpc.CodeNotFound, resp.Error.Code)

	resp = dispatch(h, "getNfts", map[string]string{"collection": "XYZ", "owner": "a"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpc.CodeInvalidParams, resp.Error.Code)

	resp = dispatch(h, "getLeaderboard", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpc.CodeMethodNotFound, resp.Error.Code, "history disabled")

	resp = dispatch(h, "mintMoney", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpc.CodeMethodNotFound, resp.Error.Code)
}

func TestHandlerSendTxErrorKind(t *testing.T) {
	e := enginetest.New(t)
	h := rpc.NewHandler(e.Exec, nil)
	alice := e.Player(0)

	tx, err := alice.GameStart(0)
	require.NoError(t, err)
	resp := dispatch(h, "sendTx", tx)
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpc.CodeTxRejected, resp.Error.Code)
	require.NotNil(t, resp.Error.Data)
	assert.Equal(t, "NoGameCredits", resp.Error.Data.Kind)
}

func TestClientRoundTrip(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	alice := f.e.Player(enginetest.Ether)

	nonce, err := f.client.Nonce(ctx, alice.PubKey())
	require.NoError(t, err)
	tx, err := alice.SnakeAirdrop(nonce)
	require.NoError(t, err)
	rcpt, err := f.client.SendTx(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, rcpt.TxID)
	assert.Equal(t, events.EventSnakeAirdrop, rcpt.Events[0].Type)

	var d vm.PlayerData
	require.NoError(t, f.client.Call(ctx, "getPlayerData", map[string]string{"address": alice.PubKey()}, &d))
	assert.Equal(t, uint64(10), d.Snake)
	assert.Equal(t, uint64(1), d.Nonce)

	_, err = f.client.SendTx(ctx, tx)
	var rpcErr *rpc.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, "InvalidNonce", rpcErr.Data.Kind)
	assert.True(t, strings.HasSuffix(rpcErr.Error(), "(InvalidNonce)"), rpcErr.Error())

	var p core.Params
	require.NoError(t, f.client.Call(ctx, "getParams", nil, &p))
	assert.Equal(t, f.e.Exec.Params(), p)

	var root vm.StateRoot
	require.NoError(t, f.client.Call(ctx, "getStateRoot", nil, &root))
	want, err := f.e.Exec.StateRoot()
	require.NoError(t, err)
	assert.Equal(t, want, root)
	assert.Equal(t, rcpt.Seq, root.Seq)

	var types []core.TxType
	require.NoError(t, f.client.Call(ctx, "getTxTypes", nil, &types))
	assert.Equal(t, f.e.Exec.TxTypes(), types)
}

func TestHistoryOverRPC(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	alice := f.e.Player(enginetest.Ether)
	f.e.BuySnake(alice, 5)
	f.e.BuyCredits(alice, 1)
	f.e.Play(alice, 77)
	f.e.FinishRound()

	var board []indexer.LeaderboardEntry
	require.NoError(t, f.client.Call(ctx, "getLeaderboard", map[string]uint64{"round": 1}, &board))
	require.Len(t, board, 1)
	assert.Equal(t, uint64(77), board[0].BestScore)

	var out struct {
		Round   indexer.RoundRecord    `json:"round"`
		Payouts []indexer.PayoutRecord `json:"payouts"`
	}
	require.NoError(t, f.client.Call(ctx, "getRoundPayouts", map[string]uint64{"round": 1}, &out))
	assert.Equal(t, alice.PubKey(), out.Round.BestPlayer)
	assert.Len(t, out.Payouts, 3)

	err := f.client.Call(ctx, "getRoundPayouts", map[string]uint64{"round": 2}, &out)
	var rpcErr *rpc.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, rpc.CodeNotFound, rpcErr.Code)
}

func TestServerAuthAndHealth(t *testing.T) {
	f := newFixture(t, "s3cret")

	resp, err := http.Get(f.srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var round uint64
	require.NoError(t, f.client.Call(context.Background(), "getGameRound", nil, &round))
	assert.Equal(t, uint64(1), round)

	err = rpc.NewClient(f.srv.URL, "wrong").Call(context.Background(), "getGameRound", nil, &round)
	var rpcErr *rpc.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, rpc.CodeUnauthorized, rpcErr.Code)

	resp, err = http.Post(f.srv.URL, "application/json", strings.NewReader(`{"jsonrpc":"1.0","id":1,"method":"getGameRound"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	var body rpc.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotNil(t, body.Error)
	assert.Equal(t, rpc.CodeUnauthorized, body.Error.Code, "auth is checked first")
}

func TestEventStream(t *testing.T) {
	f := newFixture(t, "")
	alice := f.e.Player(0)
	bob := f.e.Player(0)

	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws?player=" + alice.PubKey()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return f.hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	f.e.MustApply(bob, core.TxSnakeAirdrop, 0, nil)
	f.e.MustApply(alice, core.TxSnakeAirdrop, 0, nil)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev events.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, events.EventSnakeAirdrop, ev.Type)
	assert.Equal(t, alice.PubKey(), ev.Data["player"], "bob's events are filtered out")
}
