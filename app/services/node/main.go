package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ardanlabs/blocksim/app/services/node/handlers"
	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
	"github.com/ardanlabs/blocksim/foundation/blockchain/network"
	"github.com/ardanlabs/blocksim/foundation/blockchain/node"
	"github.com/ardanlabs/blocksim/foundation/blockchain/wallet"
	"github.com/ardanlabs/blocksim/foundation/events"
	"github.com/ardanlabs/blocksim/foundation/logger"
	"github.com/ardanlabs/blocksim/foundation/nameservice"
	"github.com/ardanlabs/conf/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("BLOCKSIM")
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

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
		}
		Sim struct {
			Nodes      int           `conf:"default:5"`
			Difficulty uint          `conf:"default:20"`
			Latency    time.Duration `conf:"default:1s"`
			Capacity   int           `conf:"default:32"`
			Reward     bool          `conf:"default:true"`
			KeyFolder  string        `conf:"help:folder to save the generated reward keys in"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "simulated proof of work blockchain network",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "BLOCKSIM"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Sim.Nodes < 1 {
		return fmt.Errorf("at least one node is required: nodes[%d]", cfg.Sim.Nodes)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Blockchain Support

	// The blockchain packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New(events.DefaultBuffer)
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	// The fabric is the simulated network connecting every node.
	fabric, err := network.New(network.Config{
		Capacity:  cfg.Sim.Capacity,
		EvHandler: ev,
	})
	if err != nil {
		return fmt.Errorf("constructing network: %w", err)
	}

	// Every node starts from the same genesis block.
	genesis := database.Genesis()
	log.Infow("startup", "status", "genesis", "hash", genesis.Hash())

	// The signing context is created once and handed to the wallet calls.
	wctx := wallet.NewContext(nil)

	// The name service lets the API report rewards by miner name.
	ns := nameservice.New()
	if cfg.Sim.KeyFolder != "" {
		if ns, err = nameservice.Load(wctx, cfg.Sim.KeyFolder); err != nil {
			return fmt.Errorf("loading reward keys: %w", err)
		}
	}

	nodes := make([]*node.Node, cfg.Sim.Nodes)
	for i := range nodes {
		conn := fabric.Connect()

		var beneficiary *database.PubKey
		if cfg.Sim.Reward {
			name := fmt.Sprintf("miner%d", i+1)
			pk, err := rewardKey(wctx, cfg.Sim.KeyFolder, name)
			if err != nil {
				return fmt.Errorf("creating reward key: %w", err)
			}
			ns.Add(pk, name)
			beneficiary = &pk
		}

		n, err := node.New(node.Config{
			Transport:   conn,
			Genesis:     genesis,
			Difficulty:  cfg.Sim.Difficulty,
			Beneficiary: beneficiary,
			EvHandler:   ev,
		})
		if err != nil {
			return fmt.Errorf("constructing node %d: %w", i, err)
		}
		nodes[i] = n

		log.Infow("startup", "status", "node created", "node", n.ID())
	}

	for pk, name := range ns.Copy() {
		log.Infow("startup", "status", "reward key", "name", name, "key", pk)
	}

	// Run the fabric and every node until the simulation is cancelled.
	simCtx, simCancel := context.WithCancel(context.Background())
	defer simCancel()

	g, gctx := errgroup.WithContext(simCtx)
	g.Go(func() error {
		return fabric.Run(gctx, cfg.Sim.Latency)
	})
	for _, n := range nodes {
		g.Go(func() error {
			return n.Run(gctx)
		})
	}

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, fabric, evts)

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
		Nodes:    nodes,
		NS:       ns,
		Evts:     evts,
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

	// Report when the simulation stops on its own.
	simDone := make(chan error, 1)
	go func() {
		simDone <- g.Wait()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case err := <-simDone:
		return fmt.Errorf("simulation stopped: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Stop the nodes and the fabric and wait for them to finish.
		log.Infow("shutdown", "status", "stopping simulation")
		simCancel()
		if err := <-simDone; err != nil {
			log.Errorw("shutdown", "status", "simulation", "ERROR", err)
		}

		for _, n := range nodes {
			st := n.Status()
			log.Infow("shutdown", "status", "final", "node", st.ID, "height", st.Height, "head", st.Head, "blocks", st.Blocks)
		}

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancelPub := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPub()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}

// rewardKey returns the key a node's rewards are paid to. When a folder is
// provided an existing key saved under the name is reused, otherwise a new
// key is generated and saved there.
func rewardKey(wctx *wallet.Context, folder string, name string) (database.PubKey, error) {
	if folder != "" {
		w, err := wctx.Load(filepath.Join(folder, name+".ecdsa"))
		if err == nil {
			return w.PubKey(), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return database.PubKey{}, err
		}
	}

	w, err := wctx.Generate()
	if err != nil {
		return database.PubKey{}, err
	}

	if folder != "" {
		if err := os.MkdirAll(folder, 0o755); err != nil {
			return database.PubKey{}, fmt.Errorf("creating key folder: %w", err)
		}

		if err := w.Save(filepath.Join(folder, name+".ecdsa")); err != nil {
			return database.PubKey{}, err
		}
	}

	return w.PubKey(), nil
}
