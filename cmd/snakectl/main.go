// Command snakectl signs engine operations and queries a running snaked.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tolelom/snakegame/config"
	"github.com/tolelom/snakegame/core"
	"github.com/tolelom/snakegame/rpc"
	"github.com/tolelom/snakegame/vm"
	"github.com/tolelom/snakegame/wallet"
)

const usage = `usage: snakectl [flags] <command> [args]

queries:
  player [address]         player record and holdings
  round [n]                round data (current when omitted)
  global                   all-time records
  pot                      engine balance
  params                   economic parameters
  root                     state root and the sequence it covers
  nfts <SNFT|SPET> [owner] owned NFTs
  leaderboard [round]      best paid scores of a round
  games [address]          recent games of a player
  payouts <round>          prize payouts of a finished round

transactions:
  keygen                   create a new key at -key
  transfer <to> <eth>      send native currency
  fund <eth>               pay into the prize pot
  airdrop                  claim the SNAKE airdrop
  buy-snake <amount>       buy SNAKE at the configured price
  buy-credits <amount>     buy game credits with SNAKE
  start                    start a game
  over <score>             settle the current game
  fruit-claim              mint pending FRUIT
  swap <fruit>             swap FRUIT for SNAKE
  nft-claim [amount]       mint pending Snake NFTs (all when omitted)
  check-super              re-check Super Pet eligibility
  super-claim [id...]      claim a Super Pet NFT
  finish-round             close the current round (operator)
  withdraw [eth]           withdraw from the pot (operator, all when omitted)
`

type cli struct {
	client  *rpc.Client
	keyPath string
	ctx     context.Context
}

func main() {
	rpcURL := flag.String("rpc", "http://localhost:8545", "snaked RPC endpoint")
	token := flag.String("token", os.Getenv("SNAKE_RPC_TOKEN"), "RPC bearer token")
	keyPath := flag.String("key", "player.key", "path to keystore file")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	caCert := flag.String("cacert", "", "CA the RPC server certificate must chain to (enables TLS)")
	cert := flag.String("cert", "", "client certificate for servers requiring mutual TLS")
	certKey := flag.String("certkey", "", "client certificate key")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage); flag.PrintDefaults() }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	c := &cli{client: rpc.NewClient(*rpcURL, *token), keyPath: *keyPath, ctx: ctx}
	if *caCert != "" {
		tlsCfg, err := config.LoadClientTLSConfig(*caCert, *cert, *certKey)
		if err != nil {
			fmt.Fprintf(os.Stderr, "tls: %v\n", err)
			os.Exit(1)
		}
		c.client.UseTLS(tlsCfg)
	}
	if err := c.run(flag.Arg(0), flag.Args()[1:]); err != nil {
		var rpcErr *rpc.Error
		if errors.As(err, &rpcErr) && rpcErr.Data != nil {
			fmt.Fprintf(os.Stderr, "rejected: %s\n", rpcErr.Data.Kind)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (c *cli) run(cmd string, args []string) error {
	switch cmd {
	// ---- queries ----
	case "player":
		addr, err := c.addressArg(args)
		if err != nil {
			return err
		}
		var d vm.PlayerData
		if err := c.client.Call(c.ctx, "getPlayerData", map[string]string{"address": addr}, &d); err != nil {
			return err
		}
		printPlayer(&d)
		return nil
	case "round":
		n, err := optUint(args, 0)
		if err != nil {
			return err
		}
		var r core.GameRound
		if err := c.client.Call(c.ctx, "getGameRoundData", map[string]uint64{"round": n}, &r); err != nil {
			return err
		}
		printRound(&r)
		return nil
	case "global":
		var total, best uint64
		var bestPlayer string
		if err := c.client.Call(c.ctx, "getGamesPlayedTotal", nil, &total); err != nil {
			return err
		}
		if err := c.client.Call(c.ctx, "getHighestScoreEver", nil, &best); err != nil {
			return err
		}
		if err := c.client.Call(c.ctx, "getBestPlayerEver", nil, &bestPlayer); err != nil {
			return err
		}
		fmt.Printf("games played:  %s\n", humanize.Comma(int64(total)))
		fmt.Printf("highest score: %s\n", humanize.Comma(int64(best)))
		fmt.Printf("best player:   %s\n", orNone(bestPlayer))
		return nil
	case "pot":
		var bal uint64
		if err := c.client.Call(c.ctx, "getBalance", nil, &bal); err != nil {
			return err
		}
		fmt.Printf("%s ETH\n", config.FormatNative(bal))
		return nil
	case "root":
		var root vm.StateRoot
		if err := c.client.Call(c.ctx, "getStateRoot", nil, &root); err != nil {
			return err
		}
		fmt.Printf("seq %s root %s\n", humanize.Comma(int64(root.Seq)), root.Root)
		return nil
	case "params":
		var p core.Params
		if err := c.client.Call(c.ctx, "getParams", nil, &p); err != nil {
			return err
		}
		return printJSON(p)
	case "nfts":
		if len(args) == 0 {
			return errors.New("collection required")
		}
		owner, err := c.addressArg(args[1:])
		if err != nil {
			return err
		}
		var nfts []core.Nft
		if err := c.client.Call(c.ctx, "getNfts", map[string]string{"collection": args[0], "owner": owner}, &nfts); err != nil {
			return err
		}
		for _, n := range nfts {
			fmt.Printf("%s #%d  %s  minted %s\n", n.Collection, n.ID, n.URI, humanize.Time(time.Unix(n.MintedAt, 0)))
		}
		return nil
	case "leaderboard":
		n, err := optUint(args, 0)
		if err != nil {
			return err
		}
		var entries []json.RawMessage
		if err := c.client.Call(c.ctx, "getLeaderboard", map[string]uint64{"round": n}, &entries); err != nil {
			return err
		}
		return printJSON(entries)
	case "games":
		addr, err := c.addressArg(args)
		if err != nil {
			return err
		}
		var games []json.RawMessage
		if err := c.client.Call(c.ctx, "getPlayerGames", map[string]string{"address": addr}, &games); err != nil {
			return err
		}
		return printJSON(games)
	case "payouts":
		n, err := optUint(args, 0)
		if err != nil {
			return err
		}
		var out json.RawMessage
		if err := c.client.Call(c.ctx, "getRoundPayouts", map[string]uint64{"round": n}, &out); err != nil {
			return err
		}
		return printJSON(out)

	// ---- transactions ----
	case "keygen":
		return c.keygen()
	case "transfer":
		if len(args) != 2 {
			return errors.New("usage: transfer <to> <eth>")
		}
		amount, err := config.ParseNative(args[1])
		if err != nil {
			return err
		}
		return c.send(func(w *wallet.Wallet, nonce uint64) (*core.Transaction, error) {
			return w.Transfer(args[0], amount, nonce)
		})
	case "fund":
		if len(args) != 1 {
			return errors.New("usage: fund <eth>")
		}
		amount, err := config.ParseNative(args[0])
		if err != nil {
			return err
		}
		return c.send(func(w *wallet.Wallet, nonce uint64) (*core.Transaction, error) {
			return w.Fund(amount, nonce)
		})
	case "airdrop":
		return c.send(func(w *wallet.Wallet, nonce uint64) (*core.Transaction, error) {
			return w.SnakeAirdrop(nonce)
		})
	case "buy-snake":
		amount, err := reqUint(args, "amount")
		if err != nil {
			return err
		}
		p, err := c.params()
		if err != nil {
			return err
		}
		payment, err := core.SafeMul(amount, p.SnakePrice)
		if err != nil {
			return err
		}
		fmt.Printf("paying %s ETH\n", config.FormatNative(payment))
		return c.send(func(w *wallet.Wallet, nonce uint64) (*core.Transaction, error) {
			return w.BuySnake(amount, payment, nonce)
		})
	case "buy-credits":
		amount, err := reqUint(args, "amount")
		if err != nil {
			return err
		}
		return c.send(func(w *wallet.Wallet, nonce uint64) (*core.Transaction, error) {
			return w.BuyCredits(amount, nonce)
		})
	case "start":
		return c.send(func(w *wallet.Wallet, nonce uint64) (*core.Transaction, error) {
			return w.GameStart(nonce)
		})
	case "over":
		score, err := reqUint(args, "score")
		if err != nil {
			return err
		}
		return c.send(func(w *wallet.Wallet, nonce uint64) (*core.Transaction, error) {
			return w.GameOver(score, nonce)
		})
	case "fruit-claim":
		return c.send(func(w *wallet.Wallet, nonce uint64) (*core.Transaction, error) {
			return w.FruitClaim(nonce)
		})
	case "swap":
		amount, err := reqUint(args, "fruit")
		if err != nil {
			return err
		}
		return c.send(func(w *wallet.Wallet, nonce uint64) (*core.Transaction, error) {
			return w.FruitToSnakeSwap(amount, nonce)
		})
	case "nft-claim":
		amount, err := optUint(args, 0)
		if err != nil {
			return err
		}
		return c.send(func(w *wallet.Wallet, nonce uint64) (*core.Transaction, error) {
			return w.SnakeNftClaim(amount, nonce)
		})
	case "check-super":
		return c.send(func(w *wallet.Wallet, nonce uint64) (*core.Transaction, error) {
			return w.CheckSuperNftClaim(nonce)
		})
	case "super-claim":
		ids := make([]uint64, 0, len(args))
		for _, a := range args {
			id, err := strconv.ParseUint(a, 10, 64)
			if err != nil {
				return fmt.Errorf("token id %q: %w", a, err)
			}
			ids = append(ids, id)
		}
		p, err := c.params()
		if err != nil {
			return err
		}
		fmt.Printf("paying %s ETH\n", config.FormatNative(p.SuperNftFee))
		return c.send(func(w *wallet.Wallet, nonce uint64) (*core.Transaction, error) {
			return w.SuperPetNftClaim(ids, p.SuperNftFee, nonce)
		})
	case "finish-round":
		return c.send(func(w *wallet.Wallet, nonce uint64) (*core.Transaction, error) {
			return w.FinishRound(nonce)
		})
	case "withdraw":
		var amount uint64
		if len(args) > 0 {
			var err error
			if amount, err = config.ParseNative(args[0]); err != nil {
				return err
			}
		}
		return c.send(func(w *wallet.Wallet, nonce uint64) (*core.Transaction, error) {
			return w.WithdrawEth(amount, nonce)
		})
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// ---- key and signing helpers ----

func (c *cli) keygen() error {
	if _, err := os.Stat(c.keyPath); err == nil {
		return fmt.Errorf("%s already exists", c.keyPath)
	}
	w, err := wallet.Generate("")
	if err != nil {
		return err
	}
	if err := wallet.SaveKey(c.keyPath, os.Getenv("SNAKE_PASSWORD"), w.PrivKey()); err != nil {
		return err
	}
	fmt.Printf("address: %s\nsaved to: %s\n", w.PubKey(), c.keyPath)
	return nil
}

func (c *cli) wallet() (*wallet.Wallet, error) {
	var chainID string
	if err := c.client.Call(c.ctx, "getChainID", nil, &chainID); err != nil {
		return nil, err
	}
	return wallet.Open(c.keyPath, os.Getenv("SNAKE_PASSWORD"), chainID)
}

func (c *cli) params() (core.Params, error) {
	var p core.Params
	err := c.client.Call(c.ctx, "getParams", nil, &p)
	return p, err
}

// send builds a transaction with the account's next nonce, submits it and
// prints the emitted events.
func (c *cli) send(build func(w *wallet.Wallet, nonce uint64) (*core.Transaction, error)) error {
	w, err := c.wallet()
	if err != nil {
		return err
	}
	nonce, err := c.client.Nonce(c.ctx, w.PubKey())
	if err != nil {
		return err
	}
	tx, err := build(w, nonce)
	if err != nil {
		return err
	}
	rcpt, err := c.client.SendTx(c.ctx, tx)
	if err != nil {
		return err
	}
	fmt.Printf("tx %s committed (seq %s)\n", rcpt.TxID, humanize.Comma(int64(rcpt.Seq)))
	for _, ev := range rcpt.Events {
		data, _ := json.Marshal(ev.Data)
		fmt.Printf("  %-24s %s\n", ev.Type, data)
	}
	return nil
}

// addressArg returns args[0] or, when absent, the address of the local key.
func (c *cli) addressArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	w, err := wallet.Open(c.keyPath, os.Getenv("SNAKE_PASSWORD"), "")
	if err != nil {
		return "", err
	}
	return w.PubKey(), nil
}

// ---- argument parsing ----

func reqUint(args []string, name string) (uint64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%s required", name)
	}
	return optUint(args, 0)
}

func optUint(args []string, def uint64) (uint64, error) {
	if len(args) == 0 {
		return def, nil
	}
	n, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", args[0], err)
	}
	return n, nil
}

// ---- output ----

func printPlayer(d *vm.PlayerData) {
	fmt.Printf("address:        %s\n", d.Address)
	fmt.Printf("balance:        %s ETH\n", config.FormatNative(d.Balance))
	fmt.Printf("SNAKE / FRUIT:  %s / %s\n", humanize.Comma(int64(d.Snake)), humanize.Comma(int64(d.Fruit)))
	fmt.Printf("credits:        %d (%d free) at %d SNAKE\n", d.GameCredits, d.FreeCredits, d.CreditPrice)
	fmt.Printf("game started:   %t\n", d.GameStarted)
	fmt.Printf("fruit to claim: %s\n", humanize.Comma(int64(d.FruitToClaim)))
	fmt.Printf("snake nfts:     %d held, %d to claim, %d earned\n", d.SnakeNfts, d.SnakeNftsToClaim, d.Stats.SnakeNftsAmount)
	fmt.Printf("super pets:     %d held, claimable %t\n", d.SuperPetNfts, d.SuperNftClaimable)
	fmt.Printf("games played:   %s (best %s, last %s)\n",
		humanize.Comma(int64(d.Stats.GamesPlayed)), humanize.Comma(int64(d.Stats.BestScore)), humanize.Comma(int64(d.Stats.LastScore)))
}

func printRound(r *core.GameRound) {
	fmt.Printf("round %d, started %s\n", r.Number, humanize.Time(time.Unix(r.StartedAt, 0)))
	if r.Finished() {
		fmt.Printf("finished %s\n", humanize.Time(time.Unix(r.FinishedAt, 0)))
	}
	fmt.Printf("games played:  %s\n", humanize.Comma(int64(r.GamesPlayed)))
	fmt.Printf("highest score: %s by %s\n", humanize.Comma(int64(r.HighestScore)), orNone(r.BestPlayer))
	for _, p := range r.Payouts {
		status := "paid"
		switch {
		case p.Error != "":
			status = "failed: " + p.Error
		case !p.Paid:
			status = "skipped"
		}
		fmt.Printf("  %-10s %s ETH to %s (%s)\n", p.Role, config.FormatNative(p.Amount), orNone(p.Beneficiary), status)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
