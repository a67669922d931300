// Command snaked runs the Snake game-economy engine.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/tolelom/snakegame/config"
	"github.com/tolelom/snakegame/crypto"
	"github.com/tolelom/snakegame/crypto/certgen"
	"github.com/tolelom/snakegame/events"
	"github.com/tolelom/snakegame/indexer"
	"github.com/tolelom/snakegame/keeper"
	"github.com/tolelom/snakegame/rpc"
	"github.com/tolelom/snakegame/storage"
	"github.com/tolelom/snakegame/vm"
	"github.com/tolelom/snakegame/wallet"

	// Import VM modules to trigger their init() self-registration.
	_ "github.com/tolelom/snakegame/vm/modules/asset"
	_ "github.com/tolelom/snakegame/vm/modules/economy"
	_ "github.com/tolelom/snakegame/vm/modules/market"
	_ "github.com/tolelom/snakegame/vm/modules/rewards"
	_ "github.com/tolelom/snakegame/vm/modules/round"
	_ "github.com/tolelom/snakegame/vm/modules/session"
)

func main() {
	cfgPath := flag.String("config", "config.json", "path to config file")
	keyPath := flag.String("key", "operator.key", "path to operator keystore file")
	genKey := flag.Bool("genkey", false, "generate a new operator key and exit")
	genCerts := flag.String("gencerts", "", "generate a CA, RPC server and client certificate into the given directory and exit")
	certHosts := flag.String("hosts", "", "comma-separated extra IPs or DNS names for the RPC certificate (with -gencerts)")
	flag.Parse()

	// ---- generate certs mode ----
	if *genCerts != "" {
		b, err := certgen.Generate(*genCerts, strings.Split(*certHosts, ",")...)
		if err != nil {
			log.Fatalf("gencerts: %v", err)
		}
		fmt.Printf("Certificates generated in %s. Serve mutual TLS with:\n", *genCerts)
		fmt.Printf("  \"tls\": {\"cert\": %q, \"key\": %q, \"client_ca\": %q}\n", b.ServerCert, b.ServerKey, b.CACert)
		fmt.Printf("Connect with: snakectl -rpc https://localhost:8545 -cacert %s -cert %s -certkey %s\n",
			b.CACert, b.ClientCert, b.ClientKey)
		return
	}

	// Read keystore password from environment (not CLI flags, they leak via ps).
	password := os.Getenv("SNAKE_PASSWORD")
	if password == "" {
		log.Println("WARNING: SNAKE_PASSWORD not set, keystore will use an empty password")
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- generate key mode ----
	if *genKey {
		w, err := wallet.Generate(cfg.Genesis.ChainID)
		if err != nil {
			log.Fatal(err)
		}
		if err := wallet.SaveKey(*keyPath, password, w.PrivKey()); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Generated key. Public key (operator address): %s\n", w.PubKey())
		fmt.Printf("Saved to: %s\n", *keyPath)
		return
	}

	if err := run(cfg, *keyPath, password); err != nil {
		log.Fatal(err)
	}
	log.Println("Shutdown complete.")
}

func run(cfg *config.Config, keyPath, password string) (err error) {
	// ---- operator key ----
	operator, err := wallet.Open(keyPath, password, cfg.Genesis.ChainID)
	if err != nil {
		return fmt.Errorf("load key: %w", err)
	}
	if cfg.Economy.Operator == "" {
		cfg.Economy.Operator = operator.PubKey()
		log.Printf("No operator configured, using key %s", crypto.Short(operator.PubKey()))
	}
	params, err := cfg.Economy.Params()
	if err != nil {
		return fmt.Errorf("economy: %w", err)
	}

	// ---- open DB ----
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("mkdir data dir: %w", err)
	}
	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { err = multierr.Append(err, db.Close()) }()
	state := storage.NewStateDB(db)

	// ---- genesis (if fresh state) ----
	alloc, err := cfg.Genesis.Accounts()
	if err != nil {
		return fmt.Errorf("genesis: %w", err)
	}
	created, err := vm.InitGenesis(state, alloc, time.Now().Unix())
	if err != nil {
		return err
	}
	if created {
		log.Printf("Genesis committed: chain %q, %d account(s)", cfg.Genesis.ChainID, len(alloc))
	}

	// ---- events + history index ----
	emitter := events.NewEmitter()
	var history *indexer.Store
	if cfg.IndexDB != "" {
		path := cfg.IndexDB
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.DataDir, path)
		}
		if history, err = indexer.OpenStore(path); err != nil {
			return fmt.Errorf("open index: %w", err)
		}
		defer func() { err = multierr.Append(err, history.Close()) }()
		indexer.New(history, emitter)
	}

	// ---- executor ----
	exec := vm.NewExecutor(state, emitter, params, cfg.Genesis.ChainID)

	// ---- TLS ----
	tlsCfg, err := config.LoadTLSConfig(cfg.TLS)
	if err != nil {
		return fmt.Errorf("tls: %w", err)
	}
	if tlsCfg != nil {
		log.Println("TLS enabled for RPC")
	}

	// ---- RPC ----
	rpcAddr := fmt.Sprintf(":%d", cfg.RPCPort)
	hub := rpc.NewHub(emitter)
	rpcServer := rpc.NewServer(rpcAddr, rpc.NewHandler(exec, history), hub, cfg.RPCAuthToken, tlsCfg)
	if err := rpcServer.Start(); err != nil {
		return fmt.Errorf("rpc start: %w", err)
	}
	log.Printf("RPC listening on %s", rpcAddr)
	if cfg.RPCAuthToken != "" {
		log.Println("RPC Bearer token authentication enabled")
	}

	// ---- round keeper + graceful shutdown ----
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	if interval := time.Duration(cfg.RoundInterval); interval > 0 {
		k, err := keeper.New(exec, operator, interval)
		if err != nil {
			return multierr.Append(fmt.Errorf("keeper: %w", err), rpcServer.Stop())
		}
		g.Go(func() error { return k.Run(ctx) })
		log.Printf("Round keeper running every %s (operator: %s)", interval, crypto.Short(operator.PubKey()))
	}
	g.Go(func() error {
		<-ctx.Done()
		log.Println("Shutting down...")
		return rpcServer.Stop()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Config file not found at %s, using defaults.", path)
			return config.DefaultConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}
