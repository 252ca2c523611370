// Command worldd runs the authoritative world simulation core as a single
// process: it loads configuration and the entity ruleset, connects to
// PostgreSQL and restores the persisted world tree, accepts client
// connections, and ticks the simulation forever until signaled to stop.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/worldforge-go/simcore/internal/config"
	coresys "github.com/worldforge-go/simcore/internal/core/system"
	"github.com/worldforge-go/simcore/internal/entity"
	"github.com/worldforge-go/simcore/internal/handler"
	"github.com/worldforge-go/simcore/internal/persist"
	"github.com/worldforge-go/simcore/internal/ruleset"
	"github.com/worldforge-go/simcore/internal/telemetry"
	"github.com/worldforge-go/simcore/internal/transport"
	"github.com/worldforge-go/simcore/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps a startup/run failure to a process exit code: 0 clean
// shutdown, 1 config error, 2 DB connection failure, 3 irrecoverable
// world-state error.
func exitCodeFor(err error) int {
	switch err.(type) {
	case configError:
		return 1
	case dbError:
		return 2
	default:
		return 3
	}
}

type configError struct{ error }
type dbError struct{ error }

func run() error {
	cfgPath := "config/worldd.toml"
	if p := os.Getenv("WORLDD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return configError{fmt.Errorf("load config: %w", err)}
	}

	log, err := telemetry.NewLogger(cfg.Logging)
	if err != nil {
		return configError{fmt.Errorf("init logger: %w", err)}
	}
	defer log.Sync()

	w := world.New(log, cfg.Ops.OpsPerTick, time.Unix(0, 0))

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelBoot()

	// Connect to the database and load the ruleset concurrently — neither
	// depends on the other, both gate the restore pass below.
	var db *persist.DB
	var types *ruleset.Set

	g, gctx := errgroup.WithContext(bootCtx)
	g.Go(func() error {
		var err error
		db, err = persist.NewDB(gctx, cfg.Database, log)
		return err
	})
	g.Go(func() error {
		var err error
		types, err = ruleset.Load(cfg.World.TypesFile, w.Reg)
		return err
	})
	if err := g.Wait(); err != nil {
		return dbError{fmt.Errorf("startup: %w", err)}
	}
	defer db.Close()

	if err := persist.RunMigrations(bootCtx, db.Pool); err != nil {
		return dbError{fmt.Errorf("migrations: %w", err)}
	}
	log.Info("database ready")

	// currentTypes is captured by reference so a SIGHUP reload (below) can
	// swap the active ruleset without re-registering every handler.
	currentTypes := types
	handler.Register(w, w.Reg, func(typeName string) *entity.TypeInfo { return currentTypes.Lookup(typeName) })

	mgr := persist.NewManager(db, w.Graph, w.Reg, log, cfg.Ops.PersistenceBatch, cfg.Ops.PersistencePending)
	mgr.Subscribe(w.Bus)
	w.Persist = mgr.Tick

	if err := mgr.Restore(bootCtx, w.Builder, w.Graph.Root(), persist.TypeLookup(types.Lookup)); err != nil {
		return dbError{fmt.Errorf("restore world: %w", err)}
	}
	log.Info("world restored")

	runCtx, cancelRun := context.WithCancel(context.Background())
	mgr.Run(runCtx)

	bind := net.JoinHostPort(cfg.Net.BindHost, fmt.Sprintf("%d", cfg.Net.BindPort))
	srv, err := transport.NewServer(bind, 256, 256, log)
	if err != nil {
		cancelRun()
		return dbError{fmt.Errorf("listen %s: %w", bind, err)}
	}
	go srv.AcceptLoop()
	log.Info("listening", zap.String("addr", srv.Addr().String()))

	sessReg := transport.NewRegistry()
	world.SetInstance(w)

	runner := coresys.NewRunner()
	runner.Register(&inputSystem{w: w, srv: srv, sessions: sessReg, log: log})
	runner.Register(&worldTickSystem{w: w})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	reloadCh := make(chan os.Signal, 1)
	signal.Notify(reloadCh, syscall.SIGHUP)

	ticker := time.NewTicker(cfg.Ops.TickBudget)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Ops.TickBudget)
		case <-reloadCh:
			reloaded, err := ruleset.Load(cfg.World.TypesFile, w.Reg)
			if err != nil {
				log.Error("ruleset reload failed, keeping previous ruleset", zap.Error(err))
				continue
			}
			currentTypes = reloaded
			for _, name := range currentTypes.Names() {
				w.ResolveType(name)
			}
			log.Info("ruleset reloaded", zap.Int("types", len(currentTypes.Names())))
		case sig := <-sigCh:
			log.Info("shutting down", zap.String("signal", sig.String()))
			srv.Shutdown()

			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
			mgr.Shutdown(shutdownCtx)
			cancelShutdown()

			cancelRun()
			log.Info("stopped")
			return nil
		}
	}
}
