package rpc

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tolelom/snakegame/core"
	"github.com/tolelom/snakegame/indexer"
	"github.com/tolelom/snakegame/vm"
)

const defaultListLimit = 20

// Handler holds all dependencies needed to serve RPC methods.
type Handler struct {
	exec    *vm.Executor
	history *indexer.Store // nil disables history methods
}

// NewHandler creates an RPC Handler.
func NewHandler(exec *vm.Executor, history *indexer.Store) *Handler {
	return &Handler{exec: exec, history: history}
}

// Dispatch routes an RPC request to the correct method.
func (h *Handler) Dispatch(ctx context.Context, req Request) Response {
	switch req.Method {
	case "sendTx":
		return h.sendTx(req)

	case "getPlayerData":
		return h.withAddress(req, func(addr string) (any, error) { return h.exec.PlayerData(addr) })
	case "getPlayerStats":
		return h.withAddress(req, func(addr string) (any, error) { return h.exec.PlayerStats(addr) })
	case "getAccount":
		return h.withAddress(req, func(addr string) (any, error) { return h.exec.Account(addr) })

	case "getGameRound":
		return h.global(req, func(g core.GlobalState) any { return g.CurrentRound })
	case "getGamesPlayedTotal":
		return h.global(req, func(g core.GlobalState) any { return g.GamesPlayedTotal })
	case "getHighestScoreEver":
		return h.global(req, func(g core.GlobalState) any { return g.HighestScoreEver })
	case "getBestPlayerEver":
		return h.global(req, func(g core.GlobalState) any { return g.BestPlayerEver })
	case "getGameRoundData":
		return h.getGameRoundData(req)

	case "getBalance":
		bal, err := h.exec.Balance()
		if err != nil {
			return errResponse(req.ID, CodeInternalError, err.Error())
		}
		return okResponse(req.ID, bal)
	case "getParams":
		return okResponse(req.ID, h.exec.Params())
	case "getChainID":
		return okResponse(req.ID, h.exec.ChainID())
	case "getTxTypes":
		return okResponse(req.ID, h.exec.TxTypes())
	case "getStateRoot":
		root, err := h.exec.StateRoot()
		if err != nil {
			return errResponse(req.ID, CodeInternalError, err.Error())
		}
		return okResponse(req.ID, root)
	case "getScoreToClaimNft":
		return okResponse(req.ID, h.exec.Params().ScoreToClaimSnakeNft)
	case "getNfts":
		return h.getNfts(req)

	case "getLeaderboard":
		return h.getLeaderboard(ctx, req)
	case "getPlayerGames":
		return h.getPlayerGames(ctx, req)
	case "getRoundPayouts":
		return h.getRoundPayouts(ctx, req)

	default:
		return errResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
	}
}

func (h *Handler) sendTx(req Request) Response {
	var tx core.Transaction
	if err := json.Unmarshal(req.Params, &tx); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	rcpt, err := h.exec.ExecuteTx(&tx)
	if err != nil {
		return kindResponse(req.ID, CodeTxRejected, err, core.Kind(err))
	}
	return okResponse(req.ID, rcpt)
}

func (h *Handler) withAddress(req Request, fn func(addr string) (any, error)) Response {
	var params struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	if params.Address == "" {
		return errResponse(req.ID, CodeInvalidParams, "address is required")
	}
	res, err := fn(params.Address)
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, res)
}

func (h *Handler) global(req Request, pick func(core.GlobalState) any) Response {
	g, err := h.exec.Global()
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, pick(g))
}

func (h *Handler) getGameRoundData(req Request) Response {
	var params struct {
		Round uint64 `json:"round"` // 0 → current
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errResponse(req.ID, CodeInvalidParams, err.Error())
		}
	}
	r, err := h.exec.Round(params.Round)
	if errors.Is(err, core.ErrNotFound) {
		return kindResponse(req.ID, CodeNotFound, err, core.Kind(err))
	}
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, r)
}

func (h *Handler) getNfts(req Request) Response {
	var params struct {
		Collection string `json:"collection"`
		Owner      string `json:"owner"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	switch params.Collection {
	case core.CollectionSnakeNft, core.CollectionSuperPetNft:
	default:
		return errResponse(req.ID, CodeInvalidParams, fmt.Sprintf("unknown collection %q", params.Collection))
	}
	if params.Owner == "" {
		return errResponse(req.ID, CodeInvalidParams, "owner is required")
	}
	nfts, err := h.exec.Nfts(params.Collection, params.Owner)
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, nfts)
}

// ---- history ----

type historyParams struct {
	Round   uint64 `json:"round"`
	Address string `json:"address"`
	Limit   int    `json:"limit"`
}

func (h *Handler) historyParams(req Request) (historyParams, *Response) {
	var p historyParams
	if h.history == nil {
		resp := errResponse(req.ID, CodeMethodNotFound, "history index disabled")
		return p, &resp
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &p); err != nil {
			resp := errResponse(req.ID, CodeInvalidParams, err.Error())
			return p, &resp
		}
	}
	if p.Limit <= 0 || p.Limit > 500 {
		p.Limit = defaultListLimit
	}
	return p, nil
}

func (h *Handler) getLeaderboard(ctx context.Context, req Request) Response {
	p, bad := h.historyParams(req)
	if bad != nil {
		return *bad
	}
	if p.Round == 0 {
		g, err := h.exec.Global()
		if err != nil {
			return errResponse(req.ID, CodeInternalError, err.Error())
		}
		p.Round = g.CurrentRound
	}
	entries, err := h.history.Leaderboard(ctx, p.Round, p.Limit)
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, entries)
}

func (h *Handler) getPlayerGames(ctx context.Context, req Request) Response {
	p, bad := h.historyParams(req)
	if bad != nil {
		return *bad
	}
	if p.Address == "" {
		return errResponse(req.ID, CodeInvalidParams, "address is required")
	}
	games, err := h.history.PlayerGames(ctx, p.Address, p.Limit)
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, games)
}

func (h *Handler) getRoundPayouts(ctx context.Context, req Request) Response {
	p, bad := h.historyParams(req)
	if bad != nil {
		return *bad
	}
	if p.Round == 0 {
		return errResponse(req.ID, CodeInvalidParams, "round is required")
	}
	summary, err := h.history.Round(ctx, p.Round)
	if errors.Is(err, sql.ErrNoRows) {
		return errResponse(req.ID, CodeNotFound, fmt.Sprintf("round %d not finished", p.Round))
	}
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	payouts, err := h.history.RoundPayouts(ctx, p.Round)
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, map[string]any{"round": summary, "payouts": payouts})
}
