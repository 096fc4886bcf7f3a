package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/aurumchain/aurum/app/services/node/handlers"
	"github.com/aurumchain/aurum/foundation/blockchain/consensus"
	"github.com/aurumchain/aurum/foundation/blockchain/genesis"
	"github.com/aurumchain/aurum/foundation/blockchain/node"
	"github.com/aurumchain/aurum/foundation/blockchain/state"
	"github.com/aurumchain/aurum/foundation/blockchain/storage/disk"
	"github.com/aurumchain/aurum/foundation/blockchain/wallet"
	"github.com/aurumchain/aurum/foundation/blockchain/worker"
	"github.com/aurumchain/aurum/foundation/events"
	"github.com/aurumchain/aurum/foundation/logger"
	"github.com/aurumchain/aurum/foundation/nameservice"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	// This is all the configuration for the application and the default values.
	// Configuration values will be passed through the application as individual
	// values.
	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
			PrivateHost     string        `conf:"default:0.0.0.0:9080"`
			CorsOrigin      string        `conf:"default:*"`
		}
		State struct {
			WalletPath     string        `conf:"default:zblock/wallets/node.json"`
			WalletPassword string        `conf:"default:aurum,mask"`
			DBPath         string        `conf:"default:zblock/blocks"`
			GenesisPath    string        `conf:"default:"`
			Consensus      string        `conf:"default:coinflip"`
			MineThreshold  int           `conf:"default:5"`
			MiningTimeout  time.Duration `conf:"default:0s"`
			KnownPeers     []string      `conf:"default:"`
		}
		NameService struct {
			Folder string `conf:"default:zblock/wallets/"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "Aurum ledger node",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	fmt.Println(`     _   _   _ ____  _   _ __  __ `)
	fmt.Println(`    / \ | | | |  _ \| | | |  \/  |`)
	fmt.Println(`   / _ \| | | | |_) | | | | |\/| |`)
	fmt.Println(`  / ___ \ |_| |  _ <| |_| | |  | |`)
	fmt.Println(` /_/   \_\___/|_| \_\\___/|_|  |_|`)
	fmt.Print("\n")

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Node Wallet Support

	// Load the wallet of this node so the producer account gets credited with
	// block rewards. A new wallet is created on first start.
	keys, err := loadWallet(log, cfg.State.WalletPath, cfg.State.WalletPassword)
	if err != nil {
		return err
	}
	log.Infow("startup", "status", "wallet loaded", "address", keys.Address())

	// =========================================================================
	// Name Service Support

	// The nameservice package provides name resolution for account addresses.
	// The names come from the wallet file names in the configured folder.
	if err := os.MkdirAll(cfg.NameService.Folder, 0700); err != nil {
		return fmt.Errorf("creating name service folder: %w", err)
	}

	ns, err := nameservice.New(cfg.NameService.Folder)
	if err != nil {
		return fmt.Errorf("unable to load account name service: %w", err)
	}

	// Logging the accounts for documentation in the logs.
	for account, name := range ns.Copy() {
		log.Infow("startup", "status", "nameservice", "name", name, "account", account)
	}

	// =========================================================================
	// Blockchain Support

	gen := genesis.Default()
	if cfg.State.GenesisPath != "" {
		if gen, err = genesis.Load(cfg.State.GenesisPath); err != nil {
			return fmt.Errorf("unable to load genesis: %w", err)
		}
	}

	selector, err := consensus.Retrieve(cfg.State.Consensus, nil)
	if err != nil {
		return err
	}

	strg, err := disk.New(cfg.State.DBPath)
	if err != nil {
		return fmt.Errorf("unable to open block store: %w", err)
	}

	// The blockchain packages accept a function of this signature to allow the
	// application to log. Typed events go to websocket clients through the
	// events package.
	evts := events.New()
	ev := logger.EventHandler(log)

	// The state value represents the ledger and manages the blockchain
	// database and provides an API for application support.
	st, err := state.New(state.Config{
		Genesis:   gen,
		Storage:   strg,
		EvHandler: ev,
	})
	if err != nil {
		strg.Close()
		return err
	}
	defer st.Shutdown()

	// The worker package implements the mining workflow.
	wrk := worker.Run(worker.Config{
		State:         st,
		Selector:      selector,
		Producer:      keys.Address(),
		EvHandler:     ev,
		Emit:          evts.Emit,
		MiningTimeout: cfg.State.MiningTimeout,
	})
	defer wrk.Shutdown()

	nd, err := node.New(node.Config{
		Host:          cfg.Web.PrivateHost,
		Producer:      keys.Address(),
		State:         st,
		Miner:         wrk,
		Events:        evts,
		MineThreshold: cfg.State.MineThreshold,
		EvHandler:     ev,
	})
	if err != nil {
		return err
	}

	for _, host := range cfg.State.KnownPeers {
		if host == "" {
			continue
		}
		if err := nd.ConnectPeer(host); err != nil {
			log.Infow("startup", "status", "connect peer", "host", host, "ERROR", err)
		}
	}

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// The Debug function returns a mux to listen and serve on for all the debug
	// related endpoints. This includes the standard library endpoints.

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, nd)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Construct the mux for the public API calls.
	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		Node:     nd,
		NS:       ns,
		Origin:   cfg.Web.CorsOrigin,
	})

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Start Private Service

	log.Infow("startup", "status", "initializing V1 private API support")

	// Construct the mux for the private API calls.
	privateMux := handlers.PrivateMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		Node:     nd,
		NS:       ns,
	})

	// Construct a server to service the requests against the mux.
	private := http.Server{
		Addr:         cfg.Web.PrivateHost,
		Handler:      privateMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "private api router started", "host", private.Addr)
		serverErrors <- private.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancelPub := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPub()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown private API started")
		if err := private.Shutdown(ctx); err != nil {
			private.Close()
			return fmt.Errorf("could not stop private service gracefully: %w", err)
		}

		// Give outstanding requests a deadline for completion.
		ctx, cancelPri := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPri()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}

// loadWallet opens the node wallet, creating it when the file does not exist.
func loadWallet(log *zap.SugaredLogger, path string, password string) (*wallet.KeyPair, error) {
	keys, err := wallet.Load(path, password)
	switch {
	case err == nil:
		return keys, nil

	case errors.Is(err, os.ErrNotExist):
		log.Infow("startup", "status", "creating node wallet", "path", path)

		keys, err := wallet.Generate()
		if err != nil {
			return nil, err
		}

		if err := keys.Save(path, password); err != nil {
			return nil, err
		}
		return keys, nil

	default:
		return nil, fmt.Errorf("unable to load node wallet: %w", err)
	}
}
