// This program performs administrative tasks against the block store of a
// stopped node.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/conf/v3"
	"github.com/aurumchain/aurum/app/tooling/admin/commands"
	"github.com/aurumchain/aurum/foundation/blockchain/genesis"
	"github.com/aurumchain/aurum/foundation/blockchain/state"
	"github.com/aurumchain/aurum/foundation/blockchain/storage/disk"
	"github.com/aurumchain/aurum/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		if !errors.Is(err, commands.ErrHelp) {
			log.Errorw("startup", "ERROR", err)
		}
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	cfg := struct {
		conf.Version
		Args  conf.Args
		State struct {
			DBPath      string `conf:"default:zblock/blocks"`
			GenesisPath string `conf:"default:"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "Aurum ledger admin",
		},
	}

	const prefix = "ADMIN"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			fmt.Println(commands.Usage)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	gen := genesis.Default()
	if cfg.State.GenesisPath != "" {
		if gen, err = genesis.Load(cfg.State.GenesisPath); err != nil {
			return fmt.Errorf("unable to load genesis: %w", err)
		}
	}

	strg, err := disk.New(cfg.State.DBPath)
	if err != nil {
		return fmt.Errorf("unable to open block store: %w", err)
	}

	st, err := state.New(state.Config{
		Genesis: gen,
		Storage: strg,
	})
	if err != nil {
		strg.Close()
		return err
	}
	defer st.Shutdown()

	return commands.Process(os.Stdout, cfg.Args, st)
}
