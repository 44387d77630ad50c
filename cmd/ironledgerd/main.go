// ironledgerd is the full node daemon: it opens (or creates) a chain store,
// joins the gossip network, and serves peers until told to stop.
//
// Usage:
//
//	ironledgerd [--port <u16=9000>] [--db-path <path>] [peer-addr ...]
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/ironledger/ironledger/config"
	"github.com/ironledger/ironledger/internal/chain"
	klog "github.com/ironledger/ironledger/internal/log"
	"github.com/ironledger/ironledger/internal/p2p"
	"github.com/ironledger/ironledger/internal/storage"
)

func main() {
	cfg := config.ParseFlags()

	if err := klog.Init("info", false); err != nil {
		fmt.Fprintf(os.Stderr, "error initializing logger: %v\n", err)
		os.Exit(1)
	}
	logger := klog.WithComponent("supervisor")

	db, err := storage.NewBadger(cfg.DBPath)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.DBPath).Msg("failed to open store")
		os.Exit(1)
	}
	defer db.Close()

	engine, loadedFromDisk, err := p2p.LoadOrInit(db, config.GenesisRewardAddress, config.GenesisTimestamp)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize chain")
		os.Exit(1)
	}
	logger.Info().Uint64("height", engine.Height()).Bool("loaded_from_disk", loadedFromDisk).Msg("chain ready")

	hub := p2p.NewHub(uuid.New())
	listenAddr := fmt.Sprintf(":%d", cfg.Port)
	ln, err := hub.Listen(listenAddr)
	if err != nil {
		logger.Error().Err(err).Str("addr", listenAddr).Msg("failed to bind listener")
		os.Exit(1)
	}
	defer ln.Close()
	logger.Info().Str("addr", ln.Addr().String()).Msg("listening")

	if err := p2p.Bootstrap(hub, engine, cfg.Peers, loadedFromDisk); err != nil {
		logger.Error().Err(err).Msg("bootstrap did not complete cleanly, continuing with what synced")
	}

	store := chain.NewStore(db)
	dispatcher := p2p.NewDispatcher(hub, engine)

	stop := make(chan struct{})
	go dispatcher.Run(stop)
	go p2p.RunCleanupLoop(engine, stop)
	go p2p.RunSnapshotLoop(store, engine, stop)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("shutting down")

	close(stop)
	if err := store.Save(engine); err != nil {
		logger.Error().Err(err).Msg("final snapshot failed")
	}
}
