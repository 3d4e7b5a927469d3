package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"ewt/internal/api"
	"ewt/internal/client"
	"ewt/internal/config"
	"ewt/internal/crypto"
	"ewt/internal/events"
	"ewt/internal/keyring"
	"ewt/internal/netmgr"
	"ewt/internal/storage"
	"ewt/internal/txmgr"

	_ "ewt/docs"

	"github.com/lightningnetwork/lnd/clock"
	"go.uber.org/zap"
)

// @title           EVM Wallet Toolkit API
// @version         1.0
// @description     Self-custodial wallet engine: keys, networks, transactions, encrypted storage.
// @host            localhost:8080
// @BasePath        /
func main() {
	log, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	if err := config.Init(); err != nil {
		log.Fatal("load config", zap.Error(err))
	}
	cfg := config.Get()

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		log.Fatal("create data dir", zap.Error(err))
	}

	store, err := storage.OpenBolt(filepath.Join(cfg.DataDir, "wallet.db"))
	if err != nil {
		log.Fatal("open store", zap.Error(err))
	}

	var legacy *storage.LegacyStore
	if cfg.LegacyStorePath != "" {
		legacy, err = storage.OpenLegacy(cfg.LegacyStorePath)
		if err != nil {
			log.Warn("legacy store unavailable, skipping migration", zap.Error(err))
		}
	}

	storeMgr := storage.NewManager(store, legacy, crypto.DefaultParams, log)
	bus := events.NewBus()

	keys := keyring.NewManager(storeMgr, bus, log)
	networks := netmgr.NewManager(storeMgr, bus, client.NewEVMClient, log)
	txs := txmgr.NewManager(networks, storeMgr, bus, clock.NewDefaultClock(), txmgr.Config{
		PollInterval:   time.Duration(cfg.TxPollIntervalSec) * time.Second,
		ConfirmTimeout: time.Duration(cfg.TxConfirmTimeoutMin) * time.Minute,
	}, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := keys.Initialize(ctx); err != nil {
		log.Fatal("initialize keyring", zap.Error(err))
	}
	if err := networks.Initialize(ctx, cfg.DefaultNetwork); err != nil {
		log.Fatal("initialize networks", zap.Error(err))
	}
	networks.StartMonitoring(time.Duration(cfg.MonitorIntervalSec) * time.Second)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.SetupRouter(keys, networks, txs, storeMgr),
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown", zap.Error(err))
	}

	networks.StopMonitoring()
	networks.Close()
	txs.Wait()
	if err := storeMgr.Close(); err != nil {
		log.Warn("close store", zap.Error(err))
	}
}
