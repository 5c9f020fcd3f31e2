package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ruteri/token-governance/api/governancehandler"
	"github.com/ruteri/token-governance/api/server"
	"github.com/ruteri/token-governance/cmd/flags"
	"github.com/ruteri/token-governance/common"
	"github.com/ruteri/token-governance/config"
	"github.com/ruteri/token-governance/governance"
	"github.com/ruteri/token-governance/interfaces"
	"github.com/ruteri/token-governance/metrics"
	"github.com/ruteri/token-governance/storage"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "governance-server",
		Usage: "Serve the token governance API",
		Flags: append([]cli.Flag{
			flags.ListenAddrFlag,
			flags.GenesisFlag,
			flags.StorageFlag,
			flags.EventRetentionFlag,
			flags.LogServiceFlagFn("token-governance"),
		}, flags.CommonFlags...),
		Action: runServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runServer(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)
	cfg := flags.ConfigureServer(cCtx, logger)

	metricsSrv, err := metrics.New(common.PackageName, cfg.MetricsAddr)
	if err != nil {
		logger.Error("Failed to create metrics server", "err", err)
		return err
	}

	var snapshots *storage.Snapshotter
	if uris := cCtx.StringSlice(flags.StorageFlag.Name); len(uris) > 0 {
		backend, err := createBackend(uris, logger)
		if err != nil {
			logger.Error("Failed to create snapshot storage", "err", err)
			return err
		}
		if closer, ok := backend.(io.Closer); ok {
			defer closer.Close()
		}
		snapshots = storage.NewSnapshotter(backend, logger)
	}

	engine, err := loadEngine(cCtx, logger, snapshots)
	if err != nil {
		logger.Error("Failed to load governance state", "err", err)
		return err
	}
	engine.SetEventRetention(cCtx.Int(flags.EventRetentionFlag.Name))
	engine.SetEmitter(metricsSrv.Governance)

	var store interfaces.SnapshotStore
	if snapshots != nil {
		store = snapshots
	}
	handler := governancehandler.NewHandler(engine, store, metricsSrv.Governance, logger)

	srv, err := server.New(cfg, metricsSrv, handler)
	if err != nil {
		logger.Error("Failed to create server", "err", err)
		return err
	}

	logger.Info("Starting server", "governor", engine.NetworkGovernor().Hex())
	srv.RunInBackground()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
	<-exit
	logger.Info("Shutdown signal received")

	srv.Shutdown()

	if snapshots != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := snapshots.Save(ctx, engine.Snapshot()); err != nil {
			logger.Error("Failed to save final snapshot", "err", err)
		}
	}

	logger.Info("Server shutdown complete")
	return nil
}

func createBackend(uris []string, logger *slog.Logger) (interfaces.StorageBackend, error) {
	locations := make([]interfaces.StorageBackendLocation, 0, len(uris))
	for _, uri := range uris {
		location, err := interfaces.NewStorageBackendLocation(uri)
		if err != nil {
			return nil, err
		}
		locations = append(locations, location)
	}
	return storage.NewStorageBackendFactory(logger).CreateMultiBackend(locations)
}

// loadEngine restores the latest snapshot if there is one, and otherwise applies the genesis file.
func loadEngine(cCtx *cli.Context, logger *slog.Logger, snapshots *storage.Snapshotter) (*governance.Engine, error) {
	ctx, cancel := context.WithTimeout(cCtx.Context, 30*time.Second)
	defer cancel()

	if snapshots != nil {
		snap, err := snapshots.Load(ctx)
		switch {
		case err == nil:
			logger.Info("Restoring governance state from snapshot", "seq", snap.LastSeq)
			return governance.Restore(logger, *snap)
		case !errors.Is(err, interfaces.ErrContentNotFound):
			return nil, fmt.Errorf("could not load snapshot: %w", err)
		}
	}

	engine := governance.NewEngine(logger)

	genesisPath := cCtx.String(flags.GenesisFlag.Name)
	if genesisPath == "" {
		logger.Warn("No snapshot and no genesis file, governance starts uninitialized")
		return engine, nil
	}

	genesis, err := config.Load(genesisPath)
	if err != nil {
		return nil, err
	}
	if err := genesis.Apply(engine); err != nil {
		return nil, fmt.Errorf("could not apply genesis: %w", err)
	}
	logger.Info("Applied genesis", "file", genesisPath, "tokens", len(genesis.Tokens))

	if snapshots != nil {
		if err := snapshots.Save(ctx, engine.Snapshot()); err != nil {
			return nil, fmt.Errorf("could not save genesis snapshot: %w", err)
		}
	}
	return engine, nil
}
